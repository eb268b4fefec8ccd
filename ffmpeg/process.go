package ffmpeg

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/rs/zerolog"
)

// Process is a running ffmpeg. Wait may be called from several goroutines.
type Process struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

func start(bin string, args []string, log zerolog.Logger) (*Process, error) {
	cmd := exec.Command(bin, args...)

	stderr := &limitBuffer{buf: make([]byte, 512)}
	if log.Trace().Enabled() {
		cmd.Stdout = os.Stdout
		cmd.Stderr = io.MultiWriter(os.Stderr, stderr)
	} else {
		cmd.Stderr = stderr
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	p := &Process{cmd: cmd, done: make(chan struct{})}

	go func() {
		p.err = p.cmd.Wait()
		if p.err != nil {
			log.Debug().Err(p.err).Int("pid", cmd.Process.Pid).Str("stderr", stderr.String()).Msg("[ffmpeg] exited")
		}
		close(p.done)
	}()

	return p, nil
}

func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

func (p *Process) Terminate() error {
	return p.signal(syscall.SIGTERM)
}

func (p *Process) Kill() error {
	return p.signal(syscall.SIGKILL)
}

func (p *Process) Suspend() error {
	return p.signal(syscall.SIGSTOP)
}

func (p *Process) Resume() error {
	return p.signal(syscall.SIGCONT)
}

func (p *Process) signal(sig os.Signal) error {
	if err := p.cmd.Process.Signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

// Wait returns the exit error of the process, or ctx.Err() when ctx is done
// first.
func (p *Process) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type limitBuffer struct {
	buf []byte
	n   int
}

func (l *limitBuffer) String() string {
	if l.n == len(l.buf) {
		return string(l.buf) + "..."
	}
	return string(l.buf[:l.n])
}

func (l *limitBuffer) Write(p []byte) (int, error) {
	if l.n < cap(l.buf) {
		l.n += copy(l.buf[l.n:], p)
	}
	return len(p), nil
}
