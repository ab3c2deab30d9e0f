package model

import (
	"errors"
)

// Sentinel domain errors. Repositories translate storage failures into
// these; handlers map them onto HTTP status codes.
var (
	ErrNotFound         = errors.New("not found")
	ErrSelfConnection   = errors.New("cannot connect to yourself")
	ErrAlreadyConnected = errors.New("an active connection already exists")
	ErrNotPending       = errors.New("connection is not pending")
	ErrForbidden        = errors.New("not allowed")
	ErrPendingLimit     = errors.New("pending request limit reached")
	ErrNotMember        = errors.New("not a conversation member")
	ErrNoSession        = errors.New("no active session")
)
