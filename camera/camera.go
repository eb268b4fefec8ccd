// Package camera exposes the stream session manager as a HomeKit IP camera.
package camera

import (
	"context"
	"image"
	"time"

	"github.com/brutella/hc/accessory"
	"github.com/brutella/hc/characteristic"
	"github.com/brutella/hc/service"
	"github.com/duncanleo/hc-camera-session/config"
	"github.com/duncanleo/hc-camera-session/logging"
	"github.com/duncanleo/hc-camera-session/protocol"
	"github.com/duncanleo/hc-camera-session/session"
	"github.com/rs/zerolog"
)

const snapshotTimeout = 10 * time.Second

type Options struct {
	Streams     int
	Audio       bool
	AAC         bool
	SRTP        bool
	Address     string // empty to answer with the controller connection's local address
	StopTimeout time.Duration

	// OnStatusChange is called after the StreamingStatus characteristic is
	// updated, with the manager locked.
	OnStatusChange func(stream int, status protocol.StreamingStatus)
}

func NewOptions(cfg config.CameraConfig) Options {
	return Options{
		Streams:     cfg.Streams,
		Audio:       cfg.Audio,
		AAC:         cfg.AAC,
		SRTP:        cfg.SRTP,
		Address:     cfg.Address,
		StopTimeout: cfg.StopTimeout,
	}
}

// Snapshotter grabs still images from the camera source.
type Snapshotter interface {
	Snapshot(ctx context.Context, width uint) (image.Image, error)
}

type Camera struct {
	*accessory.Camera

	Manager *session.Manager

	streams []*stream
	log     zerolog.Logger
}

// CreateCamera builds the accessory and wires the stream management services
// to a new session manager driving transport.
func CreateCamera(info accessory.Info, transport session.Transport, opts Options) (*Camera, error) {
	acc := accessory.NewCamera(info)

	c := &Camera{Camera: acc, log: logging.GetLogger("camera")}

	services := []*service.CameraRTPStreamManagement{acc.StreamManagement1, acc.StreamManagement2}

	onStatusChange := func(index int, status protocol.StreamingStatus) {
		if index < len(c.streams) {
			c.streams[index].setStatus(status)
		}
		if opts.OnStatusChange != nil {
			opts.OnStatusChange(index, status)
		}
	}

	streams := opts.Streams
	if streams < 1 || streams > len(services) {
		streams = len(services)
	}

	// services past the configured count are advertised but answer every
	// setup with BUSY
	c.Manager = session.NewManager(transport, session.Config{
		Streams:        streams,
		StopTimeout:    opts.StopTimeout,
		OnStatusChange: onStatusChange,
	})

	for i, sm := range services {
		s := &stream{index: i, sm: sm, manager: c.Manager, opts: opts, log: c.log}
		if err := s.advertise(); err != nil {
			return nil, err
		}
		c.streams = append(c.streams, s)
	}

	return c, nil
}

// SnapshotFunc adapts s to the HAP snapshot request handler.
func (c *Camera) SnapshotFunc(s Snapshotter) func(width, height uint) (*image.Image, error) {
	return func(width, height uint) (*image.Image, error) {
		ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
		defer cancel()

		img, err := s.Snapshot(ctx, width)
		if err != nil {
			c.log.Error().Err(err).Uint("width", width).Uint("height", height).Msg("[camera] snapshot")
			return nil, err
		}
		return &img, nil
	}
}

// AddDoorbell adds a doorbell service whose Ring method fires a single press.
func (c *Camera) AddDoorbell() *Doorbell {
	d := &Doorbell{service.NewDoorbell()}
	c.AddService(d.Service)
	return d
}

type Doorbell struct {
	*service.Doorbell
}

func (d *Doorbell) Ring() {
	d.ProgrammableSwitchEvent.SetValue(characteristic.ProgrammableSwitchEventLongPress)
	d.ProgrammableSwitchEvent.UpdateValue(characteristic.ProgrammableSwitchEventSinglePress)
}
