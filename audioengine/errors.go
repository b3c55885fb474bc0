package audioengine

import "github.com/imtaco/voice-stage/internal/errors"

const (
	ErrBridgeUnavailable   errors.Code = "bridge unavailable"
	ErrNoneSuccessResponse errors.Code = "non-success response"
)
