// Package session negotiates camera stream sessions and drives their
// streaming processes.
//
// A session is created by the SetupEndpoints exchange, configured by a
// SelectedRTPStreamConfiguration request and ended by the same request with the
// END command. The Manager owns every session and the streaming status of each
// physical stream; callers only go through its transition methods.
package session

import (
	"encoding/base64"

	"github.com/duncanleo/hc-camera-session/protocol"
	"github.com/google/uuid"
)

// SRTPParams is one side's crypto suite with its master key and salt.
type SRTPParams struct {
	Suite      protocol.CryptoSuite
	MasterKey  []byte
	MasterSalt []byte
}

// Key returns the base64 key and salt, as ffmpeg's -srtp_out_params expects.
func (p SRTPParams) Key() string {
	if p.Suite == protocol.CryptoNone {
		return ""
	}
	b := make([]byte, 0, len(p.MasterKey)+len(p.MasterSalt))
	b = append(b, p.MasterKey...)
	return base64.StdEncoding.EncodeToString(append(b, p.MasterSalt...))
}

// Endpoint is the negotiated state of one media type.
type Endpoint struct {
	Port  uint16     // controller RTP port
	Peer  SRTPParams // offered by the controller
	Local SRTPParams // answered by the accessory
	SSRC  uint32     // generated by the accessory
}

type Session struct {
	ID          uuid.UUID
	StreamIndex int
	Address     string // controller address
	IPv6        bool

	Video Endpoint
	Audio Endpoint

	process Process
	media   *media // last started configuration
}

// Options merges the decoded stream configuration onto the session's
// endpoint data, producing everything the transport needs.
func (s *Session) Options(sel *Selected) Options {
	return Options{
		SessionID:   s.ID,
		StreamIndex: s.StreamIndex,
		Address:     s.Address,
		IPv6:        s.IPv6,
		VideoPort:   s.Video.Port,
		AudioPort:   s.Audio.Port,
		VideoSRTP:   s.Video.Local,
		AudioSRTP:   s.Audio.Local,
		VideoSSRC:   s.Video.SSRC,
		AudioSSRC:   s.Audio.SSRC,
		Video:       sel.Video,
		Audio:       sel.Audio,
	}
}

// Options is the self-contained configuration handed to a Transport.
// Video or Audio is nil when that media type was not requested.
type Options struct {
	SessionID   uuid.UUID
	StreamIndex int
	Address     string
	IPv6        bool

	VideoPort uint16
	AudioPort uint16
	VideoSRTP SRTPParams
	AudioSRTP SRTPParams
	VideoSSRC uint32
	AudioSSRC uint32

	Video *VideoOptions
	Audio *AudioOptions
}

type media struct {
	Video *VideoOptions
	Audio *AudioOptions
}

// fill returns sel with the parts it leaves out taken from the previous
// media, as RECONFIGURE usually carries only the changed video fields.
func (m *media) fill(sel *Selected) *Selected {
	out := *sel
	if out.Audio == nil {
		out.Audio = m.Audio
	}
	if out.Video == nil || m.Video == nil {
		if out.Video == nil {
			out.Video = m.Video
		}
		return &out
	}

	v := *out.Video
	if v.Params == nil {
		v.Params = m.Video.Params
	}
	if v.Attributes == nil {
		v.Attributes = m.Video.Attributes
	}
	prev := m.Video.RTP
	if v.RTP.PayloadType == nil {
		v.RTP.PayloadType = prev.PayloadType
	}
	if v.RTP.SSRC == nil {
		v.RTP.SSRC = prev.SSRC
	}
	if v.RTP.MaxBitrate == nil {
		v.RTP.MaxBitrate = prev.MaxBitrate
	}
	if v.RTP.RTCPInterval == nil {
		v.RTP.RTCPInterval = prev.RTCPInterval
	}
	if v.RTP.MaxMTU == nil {
		v.RTP.MaxMTU = prev.MaxMTU
	}
	out.Video = &v
	return &out
}
