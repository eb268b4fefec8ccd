package camera

import (
	"context"
	"errors"
	"net"

	"github.com/brutella/hc/characteristic"
	"github.com/brutella/hc/rtp"
	"github.com/brutella/hc/service"
	"github.com/duncanleo/hc-camera-session/protocol"
	"github.com/duncanleo/hc-camera-session/session"
	"github.com/rs/zerolog"
)

// stream connects one CameraRTPStreamManagement service to the manager.
type stream struct {
	index   int
	sm      *service.CameraRTPStreamManagement
	manager *session.Manager
	opts    Options
	log     zerolog.Logger
}

func (s *stream) advertise() error {
	if err := setTLV8Payload(s.sm.SupportedVideoStreamConfiguration.Bytes, rtp.DefaultVideoStreamConfiguration()); err != nil {
		return err
	}

	var supportedCodecs = []rtp.AudioCodecConfiguration{
		rtp.NewOpusAudioCodecConfiguration(),
	}
	if s.opts.AAC {
		supportedCodecs = append(supportedCodecs, rtp.NewAacEldAudioCodecConfiguration())
	}

	if err := setTLV8Payload(s.sm.SupportedAudioStreamConfiguration.Bytes, rtp.AudioStreamConfiguration{
		Codecs:       supportedCodecs,
		ComfortNoise: false,
	}); err != nil {
		return err
	}

	if err := setTLV8Payload(s.sm.SupportedRTPConfiguration.Bytes, rtp.NewConfiguration(cryptoSuite(s.opts.SRTP))); err != nil {
		return err
	}

	// services past the manager's streams never leave BUSY
	if s.index < s.manager.Streams() {
		s.setStatus(protocol.StreamingAvailable)
	} else {
		s.setStatus(protocol.StreamingBusy)
	}

	var active = characteristic.NewActive()
	active.SetValue(1)
	s.sm.AddCharacteristic(active.Characteristic)
	active.OnValueRemoteUpdate(func(value int) {
		s.log.Debug().Int("stream", s.index).Int("active", value).Msg("[camera] active")
	})

	s.sm.SetupEndpoints.OnValueUpdateFromConn(func(conn net.Conn, c *characteristic.Characteristic, new, old interface{}) {
		s.sm.SetupEndpoints.Bytes.SetValue(s.setupEndpoints(context.Background(), conn, s.sm.SetupEndpoints.GetValue()))
	})

	s.sm.SelectedRTPStreamConfiguration.OnValueRemoteUpdate(func(value []byte) {
		s.selectedConfiguration(context.Background(), value)
	})

	return nil
}

func (s *stream) setupEndpoints(ctx context.Context, conn net.Conn, raw []byte) []byte {
	reply, err := s.manager.SetupEndpoints(ctx, raw, s.index, s.local(conn))
	if err != nil {
		s.log.Warn().Err(err).Int("stream", s.index).Msg("[camera] setup endpoints")
		if errors.Is(err, session.ErrInvalidStream) {
			return session.ErrorReply(raw, protocol.StatusBusy)
		}
		return session.ErrorReply(raw, protocol.StatusError)
	}
	return reply
}

func (s *stream) selectedConfiguration(ctx context.Context, raw []byte) {
	if err := s.manager.SelectStreamConfiguration(ctx, raw); err != nil {
		s.log.Warn().Err(err).Int("stream", s.index).Msg("[camera] selected stream configuration")
	}
}

// local answers with the configured address, or with the address the
// controller reached us on.
func (s *stream) local(conn net.Conn) session.LocalEndpoint {
	local := session.LocalEndpoint{Address: s.opts.Address, SRTP: s.opts.SRTP}

	if local.Address == "" && conn != nil {
		switch addr := conn.LocalAddr().(type) {
		case *net.TCPAddr:
			local.Address = addr.IP.String()
		case *net.UDPAddr:
			local.Address = addr.IP.String()
		}
	}

	if ip := net.ParseIP(local.Address); ip != nil {
		local.IPv6 = ip.To4() == nil
	}

	return local
}

func (s *stream) setStatus(status protocol.StreamingStatus) {
	s.sm.StreamingStatus.Bytes.SetValue(session.StatusTLV(status))
}

func cryptoSuite(srtp bool) byte {
	if srtp {
		return rtp.CryptoSuite_AES_CM_128_HMAC_SHA1_80
	}
	return byte(protocol.CryptoNone)
}
