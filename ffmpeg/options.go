package ffmpeg

import "github.com/duncanleo/hc-camera-session/protocol"

func videoProfile(p protocol.Profile, encoder EncoderProfile) string {
	switch p {
	case protocol.ProfileBaseline:
		if encoder == VAAPI {
			return "constrained_baseline"
		}
		return "baseline"
	case protocol.ProfileMain:
		return "main"
	default:
		return "high"
	}
}

func videoLevel(l protocol.Level) string {
	switch l {
	case protocol.Level31:
		return "3.1"
	case protocol.Level32:
		return "3.2"
	default:
		return "4"
	}
}

// videoMTU is the largest RTP packet the controller accepts without an
// explicit MTU.
func videoMTU(ipv6 bool) int {
	if ipv6 {
		return 1228
	}
	return 1378
}

func audioEncoder(codec protocol.AudioCodec, aac bool) string {
	if aac && codec == protocol.AudioCodecAACELD {
		return "aac"
		//return "libfdk_aac"
	}
	return "libopus"
}

func audioEncoderOptions(encoder string) []string {
	switch encoder {
	case "libopus":
		return []string{
			"-vbr",
			"on",
			"-application",
			"voip",
		}
	case "aac":
		return []string{
			"-profile:a",
			"aac_eld",
			"-flags",
			"+global_header",
		}
	default:
		return []string{}
	}
}
