package jwt

import "github.com/imtaco/voice-stage/internal/errors"

const (
	ErrInvalidRequest errors.Code = "invalid request"
	ErrInvalidToken   errors.Code = "invalid token"
	ErrNoToken        errors.Code = "no token"
)
