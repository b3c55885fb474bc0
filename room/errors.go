package room

import "github.com/imtaco/voice-stage/internal/errors"

// Error codes, one per failure class. Liveness eviction is not an error,
// it is a scheduled removal path.
const (
	ErrValidation errors.Code = "validation"
	ErrState      errors.Code = "state"
	ErrTransition errors.Code = "transition"
	ErrSignaling  errors.Code = "signaling"
	ErrClosed     errors.Code = "room closed"
)
