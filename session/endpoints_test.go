package session

import (
	"bytes"
	"testing"

	"github.com/duncanleo/hc-camera-session/protocol"
	"github.com/duncanleo/hc-camera-session/tlv"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testLocal = LocalEndpoint{Address: "192.168.1.10", SRTP: true}

func TestNegotiate(t *testing.T) {
	id := uuid.New()

	reply, s, err := Negotiate(newSetupRequest(id), 1, testLocal)
	require.Nil(t, err)

	require.Equal(t, id, s.ID)
	require.Equal(t, 1, s.StreamIndex)
	require.Equal(t, "192.168.1.20", s.Address)
	require.False(t, s.IPv6)
	require.Equal(t, uint16(51000), s.Video.Port)
	require.Equal(t, uint16(51002), s.Audio.Port)
	require.Equal(t, protocol.CryptoAES128, s.Video.Peer.Suite)
	require.Equal(t, testKey, s.Video.Local.MasterKey)
	require.Less(t, s.Video.SSRC, uint32(1<<24))
	require.Less(t, s.Audio.SSRC, uint32(1<<24))

	r, err := tlv.Decode(reply)
	require.Nil(t, err)

	require.Equal(t, id[:], r[protocol.SetupSessionID])
	require.Equal(t, []byte{byte(protocol.StatusSuccess)}, r[protocol.SetupStatus])

	addr, err := r.Nested(protocol.SetupAddress)
	require.Nil(t, err)
	require.Equal(t, []byte{byte(protocol.IPv4)}, addr[protocol.AddressVersion])
	require.Equal(t, "192.168.1.10", string(addr[protocol.AddressIP]))
	port, err := addr.Uint16(protocol.AddressVideoPort)
	require.Nil(t, err)
	require.Equal(t, uint16(51000), port)

	require.Equal(t, srtpRecord(protocol.CryptoAES128, testKey, testSalt), r[protocol.SetupVideoSRTP])
	require.Equal(t, srtpRecord(protocol.CryptoAES128, testKey, testSalt), r[protocol.SetupAudioSRTP])

	ssrc, err := r.Uint32(protocol.SetupVideoSSRC)
	require.Nil(t, err)
	require.Equal(t, s.Video.SSRC, ssrc)
	require.Len(t, r[protocol.SetupAudioSSRC], 4)
}

func TestNegotiateWithoutSRTP(t *testing.T) {
	local := testLocal
	local.SRTP = false

	reply, s, err := Negotiate(newSetupRequest(uuid.New()), 0, local)
	require.Nil(t, err)
	require.Equal(t, "", s.Video.Local.Key())

	r, err := tlv.Decode(reply)
	require.Nil(t, err)
	require.Equal(t, protocol.NoSRTP, r[protocol.SetupVideoSRTP])
	require.Equal(t, protocol.NoSRTP, r[protocol.SetupAudioSRTP])
	require.True(t, bytes.Contains(reply, []byte{0x01, 0x01, 0x02, 0x02, 0x00, 0x03, 0x00}))
}

func TestNegotiateTwiceDiffersOnlyInSSRC(t *testing.T) {
	raw := newSetupRequest(uuid.New())

	a, _, err := Negotiate(raw, 0, testLocal)
	require.Nil(t, err)
	b, _, err := Negotiate(raw, 0, testLocal)
	require.Nil(t, err)

	ra, err := tlv.Decode(a)
	require.Nil(t, err)
	rb, err := tlv.Decode(b)
	require.Nil(t, err)

	for _, tag := range []byte{protocol.SetupVideoSSRC, protocol.SetupAudioSSRC} {
		delete(ra, tag)
		delete(rb, tag)
	}
	require.Equal(t, ra, rb)
}

func TestNegotiateIPv6(t *testing.T) {
	id := uuid.New()
	raw := tlv.Encode(
		tlv.Pair{Tag: protocol.SetupSessionID, Value: id[:]},
		tlv.Pair{Tag: protocol.SetupAddress, Value: tlv.Encode(
			tlv.Uint8(protocol.AddressVersion, byte(protocol.IPv6)),
			tlv.String(protocol.AddressIP, "fd00::20"),
			tlv.Uint16(protocol.AddressVideoPort, 52000),
			tlv.Uint16(protocol.AddressAudioPort, 52002),
		)},
		tlv.Pair{Tag: protocol.SetupVideoSRTP, Value: srtpRecord(protocol.CryptoAES128, testKey, testSalt)},
		tlv.Pair{Tag: protocol.SetupAudioSRTP, Value: srtpRecord(protocol.CryptoAES128, testKey, testSalt)},
	)

	reply, s, err := Negotiate(raw, 0, LocalEndpoint{Address: "fd00::10", IPv6: true, SRTP: true})
	require.Nil(t, err)
	require.True(t, s.IPv6)
	require.Equal(t, "fd00::20", s.Address)

	r, err := tlv.Decode(reply)
	require.Nil(t, err)
	addr, err := r.Nested(protocol.SetupAddress)
	require.Nil(t, err)
	require.Equal(t, []byte{byte(protocol.IPv6)}, addr[protocol.AddressVersion])
}

func TestNegotiateErrors(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name string
		raw  []byte
		err  error
	}{
		{"truncated", newSetupRequest(id)[:20], tlv.ErrMalformedTLV},
		{"short session id", setupRequest(id[:15], srtpRecord(protocol.CryptoAES128, testKey, testSalt)), ErrInvalidSessionID},
		{"missing session id", tlv.Encode(tlv.Uint8(protocol.SetupStatus, 0)), ErrInvalidSessionID},
		{"unknown crypto suite", setupRequest(id[:], srtpRecord(7, testKey, testSalt)), protocol.ErrUnknownTag},
		{"short master key", setupRequest(id[:], srtpRecord(protocol.CryptoAES128, testKey[:8], testSalt)), tlv.ErrMalformedField},
		{"missing address", tlv.Encode(tlv.Pair{Tag: protocol.SetupSessionID, Value: id[:]}), tlv.ErrMalformedField},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, _, err := Negotiate(test.raw, 0, testLocal)
			require.ErrorIs(t, err, test.err)
		})
	}
}

func TestNegotiateAnswersAES128(t *testing.T) {
	key256 := bytes.Repeat([]byte{0x33}, 32)

	tests := []struct {
		name      string
		offer     []byte
		key, salt []byte
	}{
		{"aes 256 offered", srtpRecord(protocol.CryptoAES256, key256, testSalt), key256, testSalt},
		{"none offered", srtpRecord(protocol.CryptoNone, nil, nil), []byte{}, []byte{}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			id := uuid.New()
			reply, s, err := Negotiate(setupRequest(id[:], test.offer), 0, testLocal)
			require.Nil(t, err)
			require.Equal(t, id, s.ID)
			require.Equal(t, protocol.CryptoAES128, s.Video.Local.Suite)

			r, err := tlv.Decode(reply)
			require.Nil(t, err)
			require.Equal(t, []byte{byte(protocol.StatusSuccess)}, r[protocol.SetupStatus])

			for _, tag := range []byte{protocol.SetupVideoSRTP, protocol.SetupAudioSRTP} {
				params, err := r.Nested(tag)
				require.Nil(t, err)
				require.Equal(t, []byte{byte(protocol.CryptoAES128)}, params[protocol.SRTPCryptoSuite])
				require.Equal(t, test.key, params[protocol.SRTPMasterKey])
				require.Equal(t, test.salt, params[protocol.SRTPMasterSalt])
			}
		})
	}
}

func TestNegotiateErrorHidesKey(t *testing.T) {
	id := uuid.New()
	key := bytes.Repeat([]byte{0x07}, 8)

	_, _, err := Negotiate(setupRequest(id[:], srtpRecord(protocol.CryptoAES128, key, testSalt)), 0, testLocal)
	require.ErrorIs(t, err, tlv.ErrMalformedField)
	require.Contains(t, err.Error(), "length 8/14")
	require.NotContains(t, err.Error(), "7 7 7")
}

func TestSRTPKey(t *testing.T) {
	p := SRTPParams{Suite: protocol.CryptoAES128, MasterKey: []byte{1, 2, 3}, MasterSalt: []byte{4, 5, 6}}
	require.Equal(t, "AQIDBAUG", p.Key())

	p.Suite = protocol.CryptoNone
	require.Equal(t, "", p.Key())
}

func TestErrorReply(t *testing.T) {
	id := uuid.New()

	r, err := tlv.Decode(ErrorReply(newSetupRequest(id), protocol.StatusBusy))
	require.Nil(t, err)
	require.Equal(t, id[:], r[protocol.SetupSessionID])
	require.Equal(t, []byte{byte(protocol.StatusBusy)}, r[protocol.SetupStatus])

	require.Equal(t, []byte{protocol.SetupStatus, 1, byte(protocol.StatusError)}, ErrorReply([]byte{0x01}, protocol.StatusError))
}
