package game

import "errors"

var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrNotFound             = errors.New("not found")
	ErrNotAdmin             = errors.New("not admin")
	ErrConflict             = errors.New("another round is running")
	ErrNoActiveRound        = errors.New("no active round")
	ErrAlreadySolved        = errors.New("already solved")
	ErrInvalidTransition    = errors.New("invalid transition")
	ErrStorage              = errors.New("storage error")
)
