package protocol

// SelectedRTPStreamConfiguration record tags
const (
	SelectedSession = 0x01
	SelectedVideo   = 0x02
	SelectedAudio   = 0x03
)

// Session control record tags
const (
	ControlSessionID = 0x01
	ControlCommand   = 0x02
)

type Command byte

const (
	CommandEnd         Command = 0x00
	CommandStart       Command = 0x01
	CommandSuspend     Command = 0x02
	CommandResume      Command = 0x03
	CommandReconfigure Command = 0x04
)

var commandNames = map[Command]string{
	CommandEnd:         "END",
	CommandStart:       "START",
	CommandSuspend:     "SUSPEND",
	CommandResume:      "RESUME",
	CommandReconfigure: "RECONFIGURE",
}

func (c Command) String() string { return name(commandNames, c) }

func ParseCommand(b byte) (Command, error) { return parse(commandNames, "session command", b) }

// Video record tags
const (
	VideoCodecType   = 0x01
	VideoCodecParams = 0x02
	VideoAttributes  = 0x03
	VideoRTPParams   = 0x04
)

// Video codec parameter tags
const (
	VideoParamProfileID         = 0x01
	VideoParamLevel             = 0x02
	VideoParamPacketizationMode = 0x03
	VideoParamCVOEnabled        = 0x04
	VideoParamCVOID             = 0x05
)

// Video attribute tags
const (
	AttributeWidth     = 0x01
	AttributeHeight    = 0x02
	AttributeFrameRate = 0x03
)

type VideoCodec byte

const VideoCodecH264 VideoCodec = 0x00

var videoCodecNames = map[VideoCodec]string{
	VideoCodecH264: "H264",
}

func (c VideoCodec) String() string { return name(videoCodecNames, c) }

func ParseVideoCodec(b byte) (VideoCodec, error) { return parse(videoCodecNames, "video codec", b) }

type Profile byte

const (
	ProfileBaseline Profile = 0x00
	ProfileMain     Profile = 0x01
	ProfileHigh     Profile = 0x02
)

var profileNames = map[Profile]string{
	ProfileBaseline: "BASELINE",
	ProfileMain:     "MAIN",
	ProfileHigh:     "HIGH",
}

func (p Profile) String() string { return name(profileNames, p) }

func ParseProfile(b byte) (Profile, error) { return parse(profileNames, "h264 profile", b) }

func (p *Profile) UnmarshalText(text []byte) (err error) {
	*p, err = lookup(profileNames, "h264 profile", string(text))
	return
}

type Level byte

const (
	Level31 Level = 0x00
	Level32 Level = 0x01
	Level40 Level = 0x02
)

var levelNames = map[Level]string{
	Level31: "3.1",
	Level32: "3.2",
	Level40: "4.0",
}

func (l Level) String() string { return name(levelNames, l) }

func ParseLevel(b byte) (Level, error) { return parse(levelNames, "h264 level", b) }

func (l *Level) UnmarshalText(text []byte) (err error) {
	*l, err = lookup(levelNames, "h264 level", string(text))
	return
}

// RTP parameter tags, shared by video and audio
const (
	RTPPayloadType             = 0x01
	RTPSSRC                    = 0x02
	RTPMaxBitrate              = 0x03
	RTPRTCPInterval            = 0x04
	RTPMaxMTU                  = 0x05
	RTPComfortNoisePayloadType = 0x06
)

// Audio record tags
const (
	AudioCodecType    = 0x01
	AudioCodecParams  = 0x02
	AudioRTPParams    = 0x03
	AudioComfortNoise = 0x04
)

// Audio codec parameter tags
const (
	AudioParamChannels   = 0x01
	AudioParamBitrate    = 0x02
	AudioParamSampleRate = 0x03
	AudioParamPacketTime = 0x04
)

type AudioCodec byte

const (
	AudioCodecPCMU   AudioCodec = 0x00
	AudioCodecPCMA   AudioCodec = 0x01
	AudioCodecAACELD AudioCodec = 0x02
	AudioCodecOpus   AudioCodec = 0x03
)

var audioCodecNames = map[AudioCodec]string{
	AudioCodecPCMU:   "PCMU",
	AudioCodecPCMA:   "PCMA",
	AudioCodecAACELD: "AAC-ELD",
	AudioCodecOpus:   "OPUS",
}

func (c AudioCodec) String() string { return name(audioCodecNames, c) }

func ParseAudioCodec(b byte) (AudioCodec, error) { return parse(audioCodecNames, "audio codec", b) }

type BitrateMode byte

const (
	BitrateVariable BitrateMode = 0x00
	BitrateConstant BitrateMode = 0x01
)

var bitrateModeNames = map[BitrateMode]string{
	BitrateVariable: "VARIABLE",
	BitrateConstant: "CONSTANT",
}

func (m BitrateMode) String() string { return name(bitrateModeNames, m) }

func ParseBitrateMode(b byte) (BitrateMode, error) {
	return parse(bitrateModeNames, "bitrate mode", b)
}

type SampleRate byte

const (
	SampleRate8KHz  SampleRate = 0x00
	SampleRate16KHz SampleRate = 0x01
	SampleRate24KHz SampleRate = 0x02
)

var sampleRateNames = map[SampleRate]string{
	SampleRate8KHz:  "KHZ_8",
	SampleRate16KHz: "KHZ_16",
	SampleRate24KHz: "KHZ_24",
}

func (r SampleRate) String() string { return name(sampleRateNames, r) }

// KHz maps the sample rate class to its rate: 8 * (1 + class).
func (r SampleRate) KHz() int { return 8 * (1 + int(r)) }

func ParseSampleRate(b byte) (SampleRate, error) {
	return parse(sampleRateNames, "sample rate", b)
}

// StreamingStatus is the per-stream state published through the
// StreamingStatus characteristic.
type StreamingStatus byte

const (
	StreamingAvailable StreamingStatus = 0x00
	StreamingActive    StreamingStatus = 0x01
	StreamingBusy      StreamingStatus = 0x02
)

// StreamingStatus characteristic record tag
const StreamingStatusTag = 0x01

var streamingStatusNames = map[StreamingStatus]string{
	StreamingAvailable: "AVAILABLE",
	StreamingActive:    "STREAMING",
	StreamingBusy:      "BUSY",
}

func (s StreamingStatus) String() string { return name(streamingStatusNames, s) }

func ParseStreamingStatus(b byte) (StreamingStatus, error) {
	return parse(streamingStatusNames, "streaming status", b)
}
