package session

import (
	"fmt"

	"github.com/duncanleo/hc-camera-session/protocol"
	"github.com/duncanleo/hc-camera-session/tlv"
	"github.com/google/uuid"
)

// Selected is a decoded SelectedRTPStreamConfiguration request.
type Selected struct {
	SessionID uuid.UUID
	Command   protocol.Command
	Video     *VideoOptions // nil when video is not part of the request
	Audio     *AudioOptions // nil when audio is not part of the request
}

type VideoOptions struct {
	Codec      protocol.VideoCodec
	Params     *VideoParams     // nil without a codec parameter record
	Attributes *VideoAttributes // nil without an attribute record
	RTP        VideoRTP
}

type VideoParams struct {
	Profile protocol.Profile
	Level   protocol.Level
}

type VideoAttributes struct {
	Width     uint16
	Height    uint16
	FrameRate uint8
}

// VideoRTP fields are nil unless the controller sent them.
type VideoRTP struct {
	PayloadType  *uint8
	SSRC         *uint32
	MaxBitrate   *uint16 // kbps
	RTCPInterval *float32
	MaxMTU       *uint16
}

type AudioOptions struct {
	Codec         protocol.AudioCodec
	ComfortNoise  bool
	Channels      uint8
	BitrateMode   protocol.BitrateMode
	SampleRate    protocol.SampleRate
	SampleRateKHz int
	PacketTime    uint8 // ms
	RTP           AudioRTP
}

type AudioRTP struct {
	PayloadType             uint8
	SSRC                    uint32
	MaxBitrate              uint16 // kbps
	RTCPInterval            float32
	ComfortNoisePayloadType uint8
}

// DecodeSelected parses a SelectedRTPStreamConfiguration blob. It does not
// look the session up.
func DecodeSelected(raw []byte) (*Selected, error) {
	r, err := tlv.Decode(raw)
	if err != nil {
		return nil, err
	}

	control, err := r.Nested(protocol.SelectedSession)
	if err != nil {
		return nil, fmt.Errorf("session control: %w", err)
	}

	sel := &Selected{}
	if sel.SessionID, err = parseSessionID(control, protocol.ControlSessionID); err != nil {
		return nil, err
	}

	b, err := control.Uint8(protocol.ControlCommand)
	if err != nil {
		return nil, fmt.Errorf("session control: %w", err)
	}
	if sel.Command, err = protocol.ParseCommand(b); err != nil {
		return nil, err
	}

	if r.Has(protocol.SelectedVideo) {
		video, err := r.Nested(protocol.SelectedVideo)
		if err != nil {
			return nil, fmt.Errorf("video: %w", err)
		}
		if sel.Video, err = decodeVideo(video); err != nil {
			return nil, fmt.Errorf("video: %w", err)
		}
	}

	if r.Has(protocol.SelectedAudio) {
		audio, err := r.Nested(protocol.SelectedAudio)
		if err != nil {
			return nil, fmt.Errorf("audio: %w", err)
		}
		if sel.Audio, err = decodeAudio(audio); err != nil {
			return nil, fmt.Errorf("audio: %w", err)
		}
	}

	return sel, nil
}

func decodeVideo(r tlv.Records) (*VideoOptions, error) {
	v := &VideoOptions{Codec: protocol.VideoCodecH264}

	if r.Has(protocol.VideoCodecType) {
		b, err := r.Uint8(protocol.VideoCodecType)
		if err != nil {
			return nil, err
		}
		if v.Codec, err = protocol.ParseVideoCodec(b); err != nil {
			return nil, err
		}
	}

	if r.Has(protocol.VideoCodecParams) {
		params, err := r.Nested(protocol.VideoCodecParams)
		if err != nil {
			return nil, err
		}
		if v.Params, err = decodeVideoParams(params); err != nil {
			return nil, err
		}
	}

	if r.Has(protocol.VideoAttributes) {
		attrs, err := r.Nested(protocol.VideoAttributes)
		if err != nil {
			return nil, err
		}
		v.Attributes = &VideoAttributes{}
		if v.Attributes.Width, err = attrs.Uint16(protocol.AttributeWidth); err != nil {
			return nil, err
		}
		if v.Attributes.Height, err = attrs.Uint16(protocol.AttributeHeight); err != nil {
			return nil, err
		}
		if v.Attributes.FrameRate, err = attrs.Uint8(protocol.AttributeFrameRate); err != nil {
			return nil, err
		}
	}

	if r.Has(protocol.VideoRTPParams) {
		rtp, err := r.Nested(protocol.VideoRTPParams)
		if err != nil {
			return nil, err
		}
		if err = decodeVideoRTP(rtp, &v.RTP); err != nil {
			return nil, err
		}
	}

	return v, nil
}

func decodeVideoParams(r tlv.Records) (*VideoParams, error) {
	b, err := r.Uint8(protocol.VideoParamProfileID)
	if err != nil {
		return nil, err
	}
	profile, err := protocol.ParseProfile(b)
	if err != nil {
		return nil, err
	}

	if b, err = r.Uint8(protocol.VideoParamLevel); err != nil {
		return nil, err
	}
	level, err := protocol.ParseLevel(b)
	if err != nil {
		return nil, err
	}

	return &VideoParams{Profile: profile, Level: level}, nil
}

func decodeVideoRTP(r tlv.Records, rtp *VideoRTP) error {
	if r.Has(protocol.RTPPayloadType) {
		v, err := r.Uint8(protocol.RTPPayloadType)
		if err != nil {
			return err
		}
		rtp.PayloadType = &v
	}
	if r.Has(protocol.RTPSSRC) {
		v, err := r.Uint32(protocol.RTPSSRC)
		if err != nil {
			return err
		}
		rtp.SSRC = &v
	}
	if r.Has(protocol.RTPMaxBitrate) {
		v, err := r.Uint16(protocol.RTPMaxBitrate)
		if err != nil {
			return err
		}
		rtp.MaxBitrate = &v
	}
	if r.Has(protocol.RTPRTCPInterval) {
		v, err := r.Float32(protocol.RTPRTCPInterval)
		if err != nil {
			return err
		}
		rtp.RTCPInterval = &v
	}
	if r.Has(protocol.RTPMaxMTU) {
		v, err := r.Uint16(protocol.RTPMaxMTU)
		if err != nil {
			return err
		}
		rtp.MaxMTU = &v
	}
	return nil
}

// decodeAudio requires every field: an audio record without them cannot be
// streamed.
func decodeAudio(r tlv.Records) (*AudioOptions, error) {
	a := &AudioOptions{}

	b, err := r.Uint8(protocol.AudioCodecType)
	if err != nil {
		return nil, err
	}
	if a.Codec, err = protocol.ParseAudioCodec(b); err != nil {
		return nil, err
	}

	if a.ComfortNoise, err = r.Bool(protocol.AudioComfortNoise); err != nil {
		return nil, err
	}

	params, err := r.Nested(protocol.AudioCodecParams)
	if err != nil {
		return nil, err
	}
	if a.Channels, err = params.Uint8(protocol.AudioParamChannels); err != nil {
		return nil, err
	}
	if b, err = params.Uint8(protocol.AudioParamBitrate); err != nil {
		return nil, err
	}
	if a.BitrateMode, err = protocol.ParseBitrateMode(b); err != nil {
		return nil, err
	}
	if b, err = params.Uint8(protocol.AudioParamSampleRate); err != nil {
		return nil, err
	}
	if a.SampleRate, err = protocol.ParseSampleRate(b); err != nil {
		return nil, err
	}
	a.SampleRateKHz = a.SampleRate.KHz()
	if a.PacketTime, err = params.Uint8(protocol.AudioParamPacketTime); err != nil {
		return nil, err
	}

	rtp, err := r.Nested(protocol.AudioRTPParams)
	if err != nil {
		return nil, err
	}
	if a.RTP.PayloadType, err = rtp.Uint8(protocol.RTPPayloadType); err != nil {
		return nil, err
	}
	if a.RTP.SSRC, err = rtp.Uint32(protocol.RTPSSRC); err != nil {
		return nil, err
	}
	if a.RTP.MaxBitrate, err = rtp.Uint16(protocol.RTPMaxBitrate); err != nil {
		return nil, err
	}
	if a.RTP.RTCPInterval, err = rtp.Float32(protocol.RTPRTCPInterval); err != nil {
		return nil, err
	}
	if a.RTP.ComfortNoisePayloadType, err = rtp.Uint8(protocol.RTPComfortNoisePayloadType); err != nil {
		return nil, err
	}

	return a, nil
}
