// Package ffmpeg streams camera sessions by running ffmpeg with an rtp or srtp
// output per media type.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png"
	"os/exec"
	"strings"

	"github.com/duncanleo/hc-camera-session/logging"
	"github.com/duncanleo/hc-camera-session/session"
	"github.com/rs/zerolog"
)

type EncoderProfile string

const (
	CPU   EncoderProfile = "CPU"
	OMX   EncoderProfile = "OMX"
	VAAPI EncoderProfile = "VAAPI"
)

type Config struct {
	Bin              string // defaults to ffmpeg
	Source           string
	Format           string
	Audio            bool
	AAC              bool
	TimestampOverlay bool
	Encoder          EncoderProfile

	// Params is used when the controller sends no codec parameters. Nil
	// means HIGH 4.0.
	Params *session.VideoParams
}

func (c Config) bin() string {
	if c.Bin == "" {
		return "ffmpeg"
	}
	return c.Bin
}

// Transport implements session.Transport. Every start runs a new process.
type Transport struct {
	cfg Config
	log zerolog.Logger
}

func NewTransport(cfg Config) *Transport {
	return &Transport{cfg: cfg, log: logging.GetLogger("ffmpeg")}
}

func (t *Transport) Start(ctx context.Context, s *session.Session, opts session.Options) (session.Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	args := Arguments(t.cfg, opts)

	t.log.Debug().Str("session", s.ID.String()).Msgf("[ffmpeg] run %s %s", t.cfg.bin(), redact(args))

	p, err := start(t.cfg.bin(), args, t.log)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg: %w", err)
	}

	t.log.Info().Str("session", s.ID.String()).Int("pid", p.Pid()).Msg("[ffmpeg] started")

	return p, nil
}

// Reconfigure starts a fresh process; ffmpeg can't change its encoder
// settings in place.
func (t *Transport) Reconfigure(ctx context.Context, s *session.Session, opts session.Options) (session.Process, error) {
	return t.Start(ctx, s, opts)
}

// redact joins args for logging with the SRTP keys masked.
func redact(args []string) string {
	masked := make([]string, len(args))
	for i, arg := range args {
		if i > 0 && args[i-1] == "-srtp_out_params" {
			arg = "***"
		}
		masked[i] = arg
	}
	return strings.Join(masked, " ")
}

// Snapshot grabs one frame of the source scaled to width. A zero width keeps
// the source size.
func (t *Transport) Snapshot(ctx context.Context, width uint) (image.Image, error) {
	cmd := exec.CommandContext(ctx, t.cfg.bin(), snapshotArguments(t.cfg, width)...)

	var stdout bytes.Buffer
	stderr := &limitBuffer{buf: make([]byte, 512)}
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	t.log.Debug().Msgf("[ffmpeg] snapshot %s", cmd.String())

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg: snapshot: %w: %s", err, stderr.String())
	}

	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg: snapshot: %w", err)
	}
	return img, nil
}
