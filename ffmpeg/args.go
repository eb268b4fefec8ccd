package ffmpeg

import (
	"fmt"
	"net"
	"strconv"

	"github.com/duncanleo/hc-camera-session/protocol"
	"github.com/duncanleo/hc-camera-session/session"
)

const (
	protocolWhitelist = "file,udp,tcp,rtp,http"

	defaultPayloadType = 99
	defaultFrameRate   = 30
	audioPacketSize    = 188
)

// Arguments builds the ffmpeg command line streaming opts to the controller.
func Arguments(cfg Config, opts session.Options) []string {
	var inputOpts []string
	var encoder string
	var encoderOpts []string

	video := opts.Video
	if video == nil {
		video = &session.VideoOptions{Codec: protocol.VideoCodecH264}
	}

	var scale []string
	switch cfg.Encoder {
	case OMX:
		encoder = "h264_omx"
		if video.Attributes != nil {
			scale = []string{"-vf", fmt.Sprintf("scale=%d:-1", video.Attributes.Width)}
		}
		encoderOpts = scale
	case VAAPI:
		inputOpts = []string{
			"-vaapi_device",
			"/dev/dri/renderD128",
			"-hwaccel",
			"vaapi",
		}
		encoder = "h264_vaapi"
		filter := "format=nv12|vaapi,hwupload"
		if video.Attributes != nil {
			filter += fmt.Sprintf(",scale_vaapi=w=%d:h=-1", video.Attributes.Width)
		}
		encoderOpts = []string{"-vf", filter, "-bf", "0"}
	default:
		encoder = "h264"
		if video.Attributes != nil {
			scale = []string{"-vf", fmt.Sprintf("scale=%d:-1", video.Attributes.Width)}
		}
		encoderOpts = append([]string{"-x264-params", "intra-refresh=1:bframes=0"}, scale...)
	}

	profile, level := protocol.ProfileHigh, protocol.Level40
	if cfg.Params != nil {
		profile, level = cfg.Params.Profile, cfg.Params.Level
	}
	if video.Params != nil {
		profile, level = video.Params.Profile, video.Params.Level
	}

	frameRate := defaultFrameRate
	if video.Attributes != nil && video.Attributes.FrameRate > 0 {
		frameRate = int(video.Attributes.FrameRate)
	}

	var args []string
	args = append(args, inputOpts...)
	args = append(
		args,
		"-f",
		cfg.Format,
		"-protocol_whitelist",
		protocolWhitelist,
		"-ss",
		"00:00:01.000",
		"-i",
		cfg.Source,
		"-c:v",
		encoder,
		"-profile:v",
		videoProfile(profile, cfg.Encoder),
		"-level:v",
		videoLevel(level),
		"-r",
		strconv.Itoa(frameRate),
	)

	args = append(args, encoderOpts...)
	args = append(args,
		"-preset",
		"veryfast",
	)

	if cfg.TimestampOverlay {
		args = append(
			args,
			"-filter_complex",
			"drawtext=text='time\\: %{localtime}':fontcolor=white",
		)
	}

	payloadType := defaultPayloadType
	if video.RTP.PayloadType != nil {
		payloadType = int(*video.RTP.PayloadType)
	}

	mtu := videoMTU(opts.IPv6)
	if video.RTP.MaxMTU != nil && *video.RTP.MaxMTU > 0 {
		mtu = int(*video.RTP.MaxMTU)
	}

	args = append(
		args,
		"-payload_type",
		strconv.Itoa(payloadType),
		"-ssrc",
		strconv.FormatUint(uint64(opts.VideoSSRC), 10),
		"-map",
		"0:0",
	)
	if video.RTP.MaxBitrate != nil {
		args = append(args, "-b:v", fmt.Sprintf("%dk", *video.RTP.MaxBitrate))
	}
	args = append(args, output(opts.Address, opts.VideoPort, mtu, opts.VideoSRTP)...)

	if cfg.Audio && opts.Audio != nil {
		audio := opts.Audio
		codec := audioEncoder(audio.Codec, cfg.AAC)

		args = append(
			args,
			"-payload_type",
			strconv.Itoa(int(audio.RTP.PayloadType)),
			"-ssrc",
			strconv.FormatUint(uint64(opts.AudioSSRC), 10),
			"-c:a",
			codec,
			"-map",
			"0:1",
			"-ar",
			strconv.Itoa(audio.SampleRateKHz*1000),
			"-ac",
			strconv.Itoa(int(audio.Channels)),
		)
		args = append(args, audioEncoderOptions(codec)...)
		args = append(
			args,
			"-b:a",
			fmt.Sprintf("%dk", audio.RTP.MaxBitrate),
		)
		if codec == "libopus" && audio.PacketTime > 0 {
			args = append(args, "-frame_duration", strconv.Itoa(int(audio.PacketTime)))
		}
		args = append(args, output(opts.Address, opts.AudioPort, audioPacketSize, opts.AudioSRTP)...)
	}

	return args
}

// output is the rtp muxer target of one media type. Without SRTP it falls back
// to plain rtp://.
func output(address string, port uint16, pktSize int, srtp session.SRTPParams) []string {
	host := net.JoinHostPort(address, strconv.Itoa(int(port)))
	query := fmt.Sprintf("?rtcpport=%d&localrtcpport=%d&pkt_size=%d&timeout=60", port, port, pktSize)

	if srtp.Suite == protocol.CryptoNone {
		return []string{"-f", "rtp", "rtp://" + host + query}
	}

	return []string{
		"-f",
		"rtp",
		"-srtp_out_suite",
		"AES_CM_128_HMAC_SHA1_80",
		"-srtp_out_params",
		srtp.Key(),
		"srtp://" + host + query,
	}
}

func snapshotArguments(cfg Config, width uint) []string {
	var args = []string{
		"-f",
		cfg.Format,
		"-protocol_whitelist",
		protocolWhitelist,
		"-ss",
		"00:00:01.000",
		"-i",
		cfg.Source,
		"-c:v",
		"png",
		"-vframes",
		"1",
		"-vsync",
		"vfr",
		"-compression_level",
		"50",
	}
	if width > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:-2", width))
	}
	return append(args,
		"-f",
		"image2pipe",
		"-",
	)
}
