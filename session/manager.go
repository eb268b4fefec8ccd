package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/duncanleo/hc-camera-session/logging"
	"github.com/duncanleo/hc-camera-session/metrics"
	"github.com/duncanleo/hc-camera-session/protocol"
	"github.com/duncanleo/hc-camera-session/tlv"
	"github.com/google/uuid"
	"github.com/r3labs/diff"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const DefaultStopTimeout = 2 * time.Second

type Config struct {
	Streams     int           // number of stream indexes, at least 1
	StopTimeout time.Duration // graceful exit window before a kill
	Logger      *zerolog.Logger

	// OnStatusChange is called with the manager locked whenever a stream
	// status changes. It must not call back into the Manager.
	OnStatusChange func(stream int, status protocol.StreamingStatus)
}

// Manager owns the sessions and the streaming status of every stream index.
type Manager struct {
	transport      Transport
	log            zerolog.Logger
	stopTimeout    time.Duration
	onStatusChange func(int, protocol.StreamingStatus)

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	status   []protocol.StreamingStatus
	busy     []*Session // session whose start holds the stream BUSY
}

func NewManager(transport Transport, cfg Config) *Manager {
	if cfg.Streams < 1 {
		cfg.Streams = 1
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = DefaultStopTimeout
	}

	m := &Manager{
		transport:      transport,
		stopTimeout:    cfg.StopTimeout,
		onStatusChange: cfg.OnStatusChange,
		sessions:       map[uuid.UUID]*Session{},
		status:         make([]protocol.StreamingStatus, cfg.Streams),
		busy:           make([]*Session, cfg.Streams),
	}

	if cfg.Logger != nil {
		m.log = *cfg.Logger
	} else {
		m.log = logging.GetLogger("session")
	}

	for i := range m.status {
		metrics.StreamingStatus.WithLabelValues(strconv.Itoa(i)).Set(float64(protocol.StreamingAvailable))
	}

	return m
}

// SetupEndpoints negotiates a session on stream and registers it, replacing
// any session with the same id. The process of a replaced session is stopped
// first. It returns the SetupEndpoints answer.
func (m *Manager) SetupEndpoints(ctx context.Context, raw []byte, stream int, local LocalEndpoint) ([]byte, error) {
	if stream < 0 || stream >= len(m.status) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStream, stream)
	}

	reply, s, err := Negotiate(raw, stream, local)
	if err != nil {
		metrics.RequestErrors.WithLabelValues("setup_endpoints").Inc()
		return nil, err
	}

	m.mu.Lock()
	old := m.sessions[s.ID]
	var proc Process
	if old != nil {
		proc, old.process = old.process, nil
	}
	m.mu.Unlock()

	if proc != nil {
		m.log.Warn().Str("session", s.ID.String()).Msg("[session] replacing a streaming session")
		if err = m.terminate(ctx, proc); err != nil {
			m.mu.Lock()
			if old.process == nil {
				old.process = proc
			}
			m.mu.Unlock()
			metrics.RequestErrors.WithLabelValues("setup_endpoints").Inc()
			return nil, err
		}
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	metrics.ActiveSessions.Set(float64(len(m.sessions)))
	if proc != nil {
		m.settle(old.StreamIndex)
	}
	m.mu.Unlock()

	metrics.SessionsNegotiated.Inc()

	m.log.Debug().Str("session", s.ID.String()).Int("stream", stream).
		Str("address", s.Address).Uint16("video_port", s.Video.Port).Uint16("audio_port", s.Audio.Port).
		Stringer("srtp", s.Video.Local.Suite).Msg("[session] endpoints")

	return reply, nil
}

// SelectStreamConfiguration decodes a SelectedRTPStreamConfiguration request
// and runs its command.
func (m *Manager) SelectStreamConfiguration(ctx context.Context, raw []byte) error {
	sel, err := DecodeSelected(raw)
	if err != nil {
		metrics.RequestErrors.WithLabelValues("selected_configuration").Inc()
		return err
	}

	m.log.Debug().Str("session", sel.SessionID.String()).Stringer("command", sel.Command).Msg("[session] selected configuration")

	switch sel.Command {
	case protocol.CommandStart:
		err = m.Start(ctx, sel.SessionID, sel)
	case protocol.CommandReconfigure:
		err = m.Reconfigure(ctx, sel.SessionID, sel)
	case protocol.CommandEnd:
		err = m.End(ctx, sel.SessionID)
	case protocol.CommandSuspend:
		err = m.Suspend(sel.SessionID)
	case protocol.CommandResume:
		err = m.Resume(sel.SessionID)
	}

	if err != nil {
		metrics.RequestErrors.WithLabelValues("selected_configuration").Inc()
	}
	return err
}

func (m *Manager) Start(ctx context.Context, id uuid.UUID, sel *Selected) error {
	return m.launch(ctx, id, sel, protocol.CommandStart)
}

// Reconfigure restarts the streaming process of a session with new options.
// The running process is stopped first.
func (m *Manager) Reconfigure(ctx context.Context, id uuid.UUID, sel *Selected) error {
	return m.launch(ctx, id, sel, protocol.CommandReconfigure)
}

func (m *Manager) launch(ctx context.Context, id uuid.UUID, sel *Selected, cmd protocol.Command) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	if m.status[s.StreamIndex] == protocol.StreamingBusy {
		m.mu.Unlock()
		return fmt.Errorf("%w: stream %d", ErrStreamBusy, s.StreamIndex)
	}

	old, prev := s.process, s.media
	s.process = nil
	m.busy[s.StreamIndex] = s
	m.setStatus(s.StreamIndex, protocol.StreamingBusy)
	m.mu.Unlock()

	log := m.log.With().Str("session", id.String()).Int("stream", s.StreamIndex).Logger()

	if old != nil {
		if err := m.terminate(ctx, old); err != nil {
			log.Error().Err(err).Msg("[session] can't stop previous process")
			m.fail(s, cmd)
			return err
		}
	}

	if cmd == protocol.CommandReconfigure && prev != nil {
		sel = prev.fill(sel)
		if e := log.Debug(); e.Enabled() {
			changelog, err := diff.Diff(prev, &media{Video: sel.Video, Audio: sel.Audio})
			if err != nil {
				log.Debug().Err(err).Msg("[session] reconfigure changelog")
			}
			e.Interface("changes", changelog).Msg("[session] reconfigure")
		}
	}

	opts := s.Options(sel)

	var proc Process
	var err error
	if cmd == protocol.CommandReconfigure {
		proc, err = m.transport.Reconfigure(ctx, s, opts)
	} else {
		proc, err = m.transport.Start(ctx, s, opts)
	}
	if err != nil {
		log.Error().Err(err).Stringer("command", cmd).Msg("[session] transport failed")
		m.fail(s, cmd)
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}

	m.mu.Lock()
	if m.sessions[id] != s {
		// ended while the process was starting
		m.mu.Unlock()
		log.Warn().Msg("[session] session ended during start")
		if err = m.terminate(ctx, proc); err != nil {
			log.Error().Err(err).Msg("[session] can't stop orphaned process")
		}
		m.mu.Lock()
		m.release(s)
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	s.process = proc
	s.media = &media{Video: sel.Video, Audio: sel.Audio}
	m.release(s)
	m.mu.Unlock()

	metrics.StreamStarts.WithLabelValues(cmd.String(), "ok").Inc()
	log.Info().Stringer("command", cmd).Msg("[session] streaming")

	return nil
}

func (m *Manager) fail(s *Session, cmd protocol.Command) {
	metrics.StreamStarts.WithLabelValues(cmd.String(), "error").Inc()

	m.mu.Lock()
	m.forget(s)
	m.release(s)
	m.mu.Unlock()
}

// Stop terminates the session's process and removes the session. A session
// without a process is left untouched.
func (m *Manager) Stop(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	proc := s.process
	if proc == nil {
		m.mu.Unlock()
		m.log.Warn().Str("session", id.String()).Msg("[session] stop without a process")
		return nil
	}
	s.process = nil
	m.mu.Unlock()

	if err := m.terminate(ctx, proc); err != nil {
		m.mu.Lock()
		if s.process == nil {
			s.process = proc
		}
		m.mu.Unlock()
		m.log.Error().Err(err).Str("session", id.String()).Msg("[session] process leaked")
		return err
	}

	m.mu.Lock()
	m.forget(s)
	m.settle(s.StreamIndex)
	m.mu.Unlock()

	m.log.Info().Str("session", id.String()).Int("stream", s.StreamIndex).Msg("[session] stopped")

	return nil
}

// End stops the session and forgets it, whether or not it was streaming.
func (m *Manager) End(ctx context.Context, id uuid.UUID) error {
	if err := m.Stop(ctx, id); err != nil {
		return err
	}

	m.mu.Lock()
	if s, ok := m.sessions[id]; ok {
		m.forget(s)
		m.settle(s.StreamIndex)
	}
	m.mu.Unlock()

	return nil
}

// terminate asks proc to exit, waits up to the stop timeout and then kills it
// once. After a kill it waits without a deadline.
func (m *Manager) terminate(ctx context.Context, proc Process) error {
	if err := proc.Terminate(); err != nil {
		m.log.Debug().Err(err).Msg("[session] terminate")
	}

	waitCtx, cancel := context.WithTimeout(ctx, m.stopTimeout)
	err := proc.Wait(waitCtx)
	timedOut := err != nil && waitCtx.Err() != nil
	cancel()

	if !timedOut {
		if err != nil {
			m.log.Debug().Err(err).Msg("[session] process exited")
		}
		metrics.StreamStops.WithLabelValues("graceful").Inc()
		return nil
	}

	m.log.Warn().Dur("timeout", m.stopTimeout).Msg("[session] process didn't exit, killing")

	if err = proc.Kill(); err != nil {
		metrics.StreamStops.WithLabelValues("failed").Inc()
		return fmt.Errorf("%w: %w", ErrKillFailed, err)
	}

	_ = proc.Wait(context.Background())
	metrics.StreamStops.WithLabelValues("killed").Inc()

	return nil
}

func (m *Manager) Suspend(id uuid.UUID) error {
	return m.pause(id, protocol.CommandSuspend)
}

func (m *Manager) Resume(id uuid.UUID) error {
	return m.pause(id, protocol.CommandResume)
}

func (m *Manager) pause(id uuid.UUID, cmd protocol.Command) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	var proc Process
	if ok {
		proc = s.process
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}

	log := m.log.With().Str("session", id.String()).Str("command", cmd.String()).Logger()

	p, ok := proc.(Pauser)
	if !ok {
		log.Warn().Msg("[session] process can't be paused")
		return nil
	}

	log.Debug().Msg("[session] pause")

	if cmd == protocol.CommandSuspend {
		return p.Suspend()
	}
	return p.Resume()
}

// StopAll ends every session concurrently. Each failure is collected
// independently.
func (m *Manager) StopAll(ctx context.Context) error {
	m.mu.Lock()
	ids := make([]uuid.UUID, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)

	for _, id := range ids {
		id := id
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("session %s: panic: %v", id, r)
				}
				if err != nil {
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
				}
			}()

			if err = m.End(ctx, id); errors.Is(err, ErrUnknownSession) {
				err = nil
			}
			return err
		})
	}

	_ = g.Wait()

	return errors.Join(errs...)
}

func (m *Manager) Streams() int {
	return len(m.status)
}

func (m *Manager) Status(stream int) (protocol.StreamingStatus, error) {
	if stream < 0 || stream >= len(m.status) {
		return 0, fmt.Errorf("%w: %d", ErrInvalidStream, stream)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status[stream], nil
}

// StatusTLV returns the StreamingStatus characteristic value of stream.
func (m *Manager) StatusTLV(stream int) ([]byte, error) {
	status, err := m.Status(stream)
	if err != nil {
		return nil, err
	}
	return StatusTLV(status), nil
}

func StatusTLV(status protocol.StreamingStatus) []byte {
	return tlv.Encode(tlv.Uint8(protocol.StreamingStatusTag, byte(status)))
}

// Session returns a copy of the session with id.
func (m *Manager) Session(id uuid.UUID) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Sessions returns a copy of every session ordered by stream index.
func (m *Manager) Sessions() []Session {
	m.mu.Lock()
	sessions := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, *s)
	}
	m.mu.Unlock()

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].StreamIndex != sessions[j].StreamIndex {
			return sessions[i].StreamIndex < sessions[j].StreamIndex
		}
		return sessions[i].ID.String() < sessions[j].ID.String()
	})
	return sessions
}

// Streaming reports whether the session has an attached process.
func (s *Session) Streaming() bool {
	return s.process != nil
}

// forget removes s unless it was already replaced. Requires m.mu.
func (m *Manager) forget(s *Session) {
	if m.sessions[s.ID] == s {
		delete(m.sessions, s.ID)
		metrics.ActiveSessions.Set(float64(len(m.sessions)))
	}
}

// release ends the BUSY hold of s on its stream. Requires m.mu.
func (m *Manager) release(s *Session) {
	if m.busy[s.StreamIndex] == s {
		m.busy[s.StreamIndex] = nil
	}
	m.settle(s.StreamIndex)
}

// settle derives the status of stream from its sessions. A stream held BUSY
// by a start in flight is left to that start. Requires m.mu.
func (m *Manager) settle(stream int) {
	if m.busy[stream] != nil {
		return
	}

	status := protocol.StreamingAvailable
	for _, s := range m.sessions {
		if s.StreamIndex == stream && s.process != nil {
			status = protocol.StreamingActive
			break
		}
	}
	m.setStatus(stream, status)
}

// setStatus requires m.mu.
func (m *Manager) setStatus(stream int, status protocol.StreamingStatus) {
	if m.status[stream] == status {
		return
	}
	m.status[stream] = status
	metrics.StreamingStatus.WithLabelValues(strconv.Itoa(stream)).Set(float64(status))

	m.log.Debug().Int("stream", stream).Stringer("status", status).Msg("[session] status")

	if m.onStatusChange != nil {
		m.onStatusChange(stream, status)
	}
}
