package session

import (
	"crypto/rand"
	"fmt"

	"github.com/duncanleo/hc-camera-session/protocol"
	"github.com/duncanleo/hc-camera-session/tlv"
	"github.com/google/uuid"
	"github.com/pion/srtp/v2"
)

// LocalEndpoint describes the accessory side of the SetupEndpoints answer.
type LocalEndpoint struct {
	Address string
	IPv6    bool
	SRTP    bool // false answers every offer with NONE
}

// Negotiate decodes a SetupEndpoints request and builds the answer. It has no
// side effects beyond reading the system random source; registering the
// session is up to the Manager.
func Negotiate(raw []byte, streamIndex int, local LocalEndpoint) ([]byte, *Session, error) {
	r, err := tlv.Decode(raw)
	if err != nil {
		return nil, nil, err
	}

	id, err := parseSessionID(r, protocol.SetupSessionID)
	if err != nil {
		return nil, nil, err
	}

	s := &Session{ID: id, StreamIndex: streamIndex}

	addr, err := r.Nested(protocol.SetupAddress)
	if err != nil {
		return nil, nil, fmt.Errorf("address: %w", err)
	}
	if err = parseAddress(addr, s); err != nil {
		return nil, nil, fmt.Errorf("address: %w", err)
	}

	if s.Video.Peer, err = parseSRTP(r, protocol.SetupVideoSRTP); err != nil {
		return nil, nil, fmt.Errorf("video srtp: %w", err)
	}
	if s.Audio.Peer, err = parseSRTP(r, protocol.SetupAudioSRTP); err != nil {
		return nil, nil, fmt.Errorf("audio srtp: %w", err)
	}

	if s.Video.Local, err = answerSRTP(s.Video.Peer, local.SRTP); err != nil {
		return nil, nil, fmt.Errorf("video srtp: %w", err)
	}
	if s.Audio.Local, err = answerSRTP(s.Audio.Peer, local.SRTP); err != nil {
		return nil, nil, fmt.Errorf("audio srtp: %w", err)
	}

	if s.Video.SSRC, err = randomSSRC(); err != nil {
		return nil, nil, err
	}
	if s.Audio.SSRC, err = randomSSRC(); err != nil {
		return nil, nil, err
	}

	reply := tlv.Encode(
		tlv.Pair{Tag: protocol.SetupSessionID, Value: id[:]},
		tlv.Uint8(protocol.SetupStatus, byte(protocol.StatusSuccess)),
		tlv.Pair{Tag: protocol.SetupAddress, Value: tlv.Encode(
			tlv.Uint8(protocol.AddressVersion, byte(ipVersion(local.IPv6))),
			tlv.String(protocol.AddressIP, local.Address),
			tlv.Uint16(protocol.AddressVideoPort, s.Video.Port),
			tlv.Uint16(protocol.AddressAudioPort, s.Audio.Port),
		)},
		tlv.Pair{Tag: protocol.SetupVideoSRTP, Value: encodeSRTP(s.Video.Local)},
		tlv.Pair{Tag: protocol.SetupAudioSRTP, Value: encodeSRTP(s.Audio.Local)},
		tlv.Uint32(protocol.SetupVideoSSRC, s.Video.SSRC),
		tlv.Uint32(protocol.SetupAudioSSRC, s.Audio.SSRC),
	)

	return reply, s, nil
}

func parseSessionID(r tlv.Records, tag byte) (uuid.UUID, error) {
	b, err := r.Bytes(tag)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidSessionID, err)
	}
	if len(b) != protocol.SessionIDLength {
		return uuid.Nil, fmt.Errorf("%w: %d bytes", ErrInvalidSessionID, len(b))
	}
	return uuid.FromBytes(b)
}

func parseAddress(r tlv.Records, s *Session) error {
	b, err := r.Uint8(protocol.AddressVersion)
	if err != nil {
		return err
	}
	version, err := protocol.ParseIPVersion(b)
	if err != nil {
		return err
	}
	s.IPv6 = version == protocol.IPv6

	if s.Address, err = r.Text(protocol.AddressIP); err != nil {
		return err
	}
	if s.Video.Port, err = r.Uint16(protocol.AddressVideoPort); err != nil {
		return err
	}
	if s.Audio.Port, err = r.Uint16(protocol.AddressAudioPort); err != nil {
		return err
	}
	return nil
}

func parseSRTP(r tlv.Records, tag byte) (SRTPParams, error) {
	var p SRTPParams

	params, err := r.Nested(tag)
	if err != nil {
		return p, err
	}

	b, err := params.Uint8(protocol.SRTPCryptoSuite)
	if err != nil {
		return p, err
	}
	if p.Suite, err = protocol.ParseCryptoSuite(b); err != nil {
		return p, err
	}
	if p.MasterKey, err = params.Bytes(protocol.SRTPMasterKey); err != nil {
		return p, err
	}
	if p.MasterSalt, err = params.Bytes(protocol.SRTPMasterSalt); err != nil {
		return p, err
	}
	return p, nil
}

// answerSRTP always picks AES_CM_128_HMAC_SHA1_80 and reuses the controller's
// key material for the accessory leg, whatever suite was offered. An AES-128
// offer must carry a key and salt the suite can use.
func answerSRTP(peer SRTPParams, enabled bool) (SRTPParams, error) {
	if !enabled {
		return SRTPParams{Suite: protocol.CryptoNone, MasterKey: []byte{}, MasterSalt: []byte{}}, nil
	}

	if peer.Suite == protocol.CryptoAES128 {
		if _, err := srtp.CreateContext(peer.MasterKey, peer.MasterSalt, srtp.ProtectionProfileAes128CmHmacSha1_80); err != nil {
			// pion quotes the key bytes in its message
			return SRTPParams{}, fmt.Errorf("%w: master key/salt length %d/%d", tlv.ErrMalformedField, len(peer.MasterKey), len(peer.MasterSalt))
		}
	}

	return SRTPParams{
		Suite:      protocol.CryptoAES128,
		MasterKey:  peer.MasterKey,
		MasterSalt: peer.MasterSalt,
	}, nil
}

func encodeSRTP(p SRTPParams) []byte {
	return tlv.Encode(
		tlv.Uint8(protocol.SRTPCryptoSuite, byte(p.Suite)),
		tlv.Pair{Tag: protocol.SRTPMasterKey, Value: p.MasterKey},
		tlv.Pair{Tag: protocol.SRTPMasterSalt, Value: p.MasterSalt},
	)
}

// randomSSRC returns a 24-bit synchronization source from crypto/rand.
func randomSSRC() (uint32, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return 0, fmt.Errorf("session: ssrc: %w", err)
	}
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]), nil
}

func ipVersion(v6 bool) protocol.IPVersion {
	if v6 {
		return protocol.IPv6
	}
	return protocol.IPv4
}

// ErrorReply is the SetupEndpoints answer for a request that could not be
// negotiated. The session id is echoed when the request carries one.
func ErrorReply(raw []byte, status protocol.Status) []byte {
	var pairs []tlv.Pair
	if r, err := tlv.Decode(raw); err == nil {
		if id, ok := r[protocol.SetupSessionID]; ok {
			pairs = append(pairs, tlv.Pair{Tag: protocol.SetupSessionID, Value: id})
		}
	}
	return tlv.Encode(append(pairs, tlv.Uint8(protocol.SetupStatus, byte(status)))...)
}
