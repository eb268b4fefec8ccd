package session

import "context"

// Transport launches the streaming process of a session.
type Transport interface {
	Start(ctx context.Context, s *Session, opts Options) (Process, error)
	// Reconfigure is called after the previous process has been stopped.
	Reconfigure(ctx context.Context, s *Session, opts Options) (Process, error)
}

// Process is a running stream.
type Process interface {
	// Terminate asks the process to exit.
	Terminate() error
	Kill() error
	// Wait blocks until the process exits or ctx is done, returning ctx.Err()
	// in the latter case. It may be called more than once.
	Wait(ctx context.Context) error
}

// Pauser is implemented by processes that can be suspended in place.
type Pauser interface {
	Suspend() error
	Resume() error
}
