package session

import "errors"

var (
	ErrSessionNotFound  = errors.New("session: not found")
	ErrSessionExpired   = errors.New("session: expired")
	ErrInvalidSession   = errors.New("session: invalid")
	ErrTokenGeneration  = errors.New("session: token generation failed")
	ErrStoreUnavailable = errors.New("session: store unavailable")
)
