package transport

// RemoveMemberURI represents the URI parameters for force-removing a member
type RemoveMemberURI struct {
	// UserID: must be valid UUID v4 format
	UserID string `uri:"userId" binding:"required,userid"`
}

// LeaveBeaconBody represents the body of a sendBeacon unload request.
// Beacons cannot carry headers, so the token travels in the body.
type LeaveBeaconBody struct {
	Token string `json:"token" binding:"required"`
}
