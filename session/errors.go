package session

import "errors"

var (
	ErrInvalidSessionID = errors.New("session: invalid session id")
	ErrUnknownSession   = errors.New("session: unknown session")
	ErrInvalidStream    = errors.New("session: invalid stream index")
	ErrStreamBusy       = errors.New("session: stream busy")
	ErrTransport        = errors.New("session: transport failed")
	ErrKillFailed       = errors.New("session: stream process survived kill")
)
