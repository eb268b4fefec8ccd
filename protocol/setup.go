package protocol

// SetupEndpoints record tags
const (
	SetupSessionID  = 0x01
	SetupStatus     = 0x02
	SetupAddress    = 0x03
	SetupVideoSRTP  = 0x04
	SetupAudioSRTP  = 0x05
	SetupVideoSSRC  = 0x06
	SetupAudioSSRC  = 0x07
	SessionIDLength = 16
)

// Address record tags
const (
	AddressVersion   = 0x01
	AddressIP        = 0x02
	AddressVideoPort = 0x03
	AddressAudioPort = 0x04
)

// SRTP parameter record tags
const (
	SRTPCryptoSuite = 0x01
	SRTPMasterKey   = 0x02
	SRTPMasterSalt  = 0x03
)

type Status byte

const (
	StatusSuccess Status = 0x00
	StatusBusy    Status = 0x01
	StatusError   Status = 0x02
)

var statusNames = map[Status]string{
	StatusSuccess: "SUCCESS",
	StatusBusy:    "BUSY",
	StatusError:   "ERROR",
}

func (s Status) String() string { return name(statusNames, s) }

func ParseStatus(b byte) (Status, error) { return parse(statusNames, "setup status", b) }

type IPVersion byte

const (
	IPv4 IPVersion = 0x00
	IPv6 IPVersion = 0x01
)

var ipVersionNames = map[IPVersion]string{
	IPv4: "IPV4",
	IPv6: "IPV6",
}

func (v IPVersion) String() string { return name(ipVersionNames, v) }

func ParseIPVersion(b byte) (IPVersion, error) { return parse(ipVersionNames, "address version", b) }

type CryptoSuite byte

const (
	CryptoAES128 CryptoSuite = 0x00 // AES_CM_128_HMAC_SHA1_80
	CryptoAES256 CryptoSuite = 0x01 // AES_256_CM_HMAC_SHA1_80
	CryptoNone   CryptoSuite = 0x02
)

var cryptoSuiteNames = map[CryptoSuite]string{
	CryptoAES128: "AES_CM_128_HMAC_SHA1_80",
	CryptoAES256: "AES_256_CM_HMAC_SHA1_80",
	CryptoNone:   "NONE",
}

func (c CryptoSuite) String() string { return name(cryptoSuiteNames, c) }

func ParseCryptoSuite(b byte) (CryptoSuite, error) {
	return parse(cryptoSuiteNames, "crypto suite", b)
}

// NoSRTP is the SRTP parameter record sent when the accessory does not encrypt
// media: suite NONE with an empty key and salt.
var NoSRTP = []byte{SRTPCryptoSuite, 1, byte(CryptoNone), SRTPMasterKey, 0, SRTPMasterSalt, 0}
