package session

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/duncanleo/hc-camera-session/protocol"
	"github.com/duncanleo/hc-camera-session/tlv"
	"github.com/google/uuid"
)

var (
	testKey  = bytes.Repeat([]byte{0x11}, 16)
	testSalt = bytes.Repeat([]byte{0x22}, 14)
)

func srtpRecord(suite protocol.CryptoSuite, key, salt []byte) []byte {
	return tlv.Encode(
		tlv.Uint8(protocol.SRTPCryptoSuite, byte(suite)),
		tlv.Pair{Tag: protocol.SRTPMasterKey, Value: key},
		tlv.Pair{Tag: protocol.SRTPMasterSalt, Value: salt},
	)
}

func setupRequest(id []byte, srtp []byte) []byte {
	return tlv.Encode(
		tlv.Pair{Tag: protocol.SetupSessionID, Value: id},
		tlv.Pair{Tag: protocol.SetupAddress, Value: tlv.Encode(
			tlv.Uint8(protocol.AddressVersion, byte(protocol.IPv4)),
			tlv.String(protocol.AddressIP, "192.168.1.20"),
			tlv.Uint16(protocol.AddressVideoPort, 51000),
			tlv.Uint16(protocol.AddressAudioPort, 51002),
		)},
		tlv.Pair{Tag: protocol.SetupVideoSRTP, Value: srtp},
		tlv.Pair{Tag: protocol.SetupAudioSRTP, Value: srtp},
	)
}

func newSetupRequest(id uuid.UUID) []byte {
	return setupRequest(id[:], srtpRecord(protocol.CryptoAES128, testKey, testSalt))
}

func videoRecord() []byte {
	return tlv.Encode(
		tlv.Uint8(protocol.VideoCodecType, byte(protocol.VideoCodecH264)),
		tlv.Pair{Tag: protocol.VideoCodecParams, Value: tlv.Encode(
			tlv.Uint8(protocol.VideoParamProfileID, byte(protocol.ProfileHigh)),
			tlv.Uint8(protocol.VideoParamLevel, byte(protocol.Level40)),
		)},
		tlv.Pair{Tag: protocol.VideoAttributes, Value: tlv.Encode(
			tlv.Uint16(protocol.AttributeWidth, 1280),
			tlv.Uint16(protocol.AttributeHeight, 720),
			tlv.Uint8(protocol.AttributeFrameRate, 30),
		)},
		tlv.Pair{Tag: protocol.VideoRTPParams, Value: tlv.Encode(
			tlv.Uint8(protocol.RTPPayloadType, 99),
			tlv.Uint32(protocol.RTPSSRC, 0x0a0b0c),
			tlv.Uint16(protocol.RTPMaxBitrate, 299),
			tlv.Float32(protocol.RTPRTCPInterval, 0.5),
			tlv.Uint16(protocol.RTPMaxMTU, 1378),
		)},
	)
}

func audioRecord(skip ...byte) []byte {
	params := []tlv.Pair{
		tlv.Uint8(protocol.AudioParamChannels, 1),
		tlv.Uint8(protocol.AudioParamBitrate, byte(protocol.BitrateVariable)),
		tlv.Uint8(protocol.AudioParamSampleRate, byte(protocol.SampleRate24KHz)),
		tlv.Uint8(protocol.AudioParamPacketTime, 20),
	}
	rtp := []tlv.Pair{
		tlv.Uint8(protocol.RTPPayloadType, 110),
		tlv.Uint32(protocol.RTPSSRC, 0x0d0e0f),
		tlv.Uint16(protocol.RTPMaxBitrate, 24),
		tlv.Float32(protocol.RTPRTCPInterval, 5),
		tlv.Uint8(protocol.RTPComfortNoisePayloadType, 13),
	}
	pairs := []tlv.Pair{
		tlv.Uint8(protocol.AudioCodecType, byte(protocol.AudioCodecOpus)),
		{Tag: protocol.AudioCodecParams, Value: tlv.Encode(params...)},
		{Tag: protocol.AudioRTPParams, Value: tlv.Encode(rtp...)},
		tlv.Bool(protocol.AudioComfortNoise, false),
	}

	var kept []tlv.Pair
	for _, p := range pairs {
		if !bytes.Contains(skip, []byte{p.Tag}) {
			kept = append(kept, p)
		}
	}
	return tlv.Encode(kept...)
}

func selectedRequest(id uuid.UUID, cmd protocol.Command, video, audio []byte) []byte {
	pairs := []tlv.Pair{
		{Tag: protocol.SelectedSession, Value: tlv.Encode(
			tlv.Pair{Tag: protocol.ControlSessionID, Value: id[:]},
			tlv.Uint8(protocol.ControlCommand, byte(cmd)),
		)},
	}
	if video != nil {
		pairs = append(pairs, tlv.Pair{Tag: protocol.SelectedVideo, Value: video})
	}
	if audio != nil {
		pairs = append(pairs, tlv.Pair{Tag: protocol.SelectedAudio, Value: audio})
	}
	return tlv.Encode(pairs...)
}

type fakeProcess struct {
	mu         sync.Mutex
	terminates int
	kills      int
	suspends   int
	resumes    int

	ignoreTerminate bool // keep running after Terminate
	killErr         error

	done chan struct{}
	once sync.Once
}

func newFakeProcess() *fakeProcess {
	return &fakeProcess{done: make(chan struct{})}
}

func (p *fakeProcess) exit() {
	p.once.Do(func() { close(p.done) })
}

func (p *fakeProcess) Terminate() error {
	p.mu.Lock()
	p.terminates++
	ignore := p.ignoreTerminate
	p.mu.Unlock()

	if !ignore {
		p.exit()
	}
	return nil
}

func (p *fakeProcess) Kill() error {
	p.mu.Lock()
	p.kills++
	err := p.killErr
	p.mu.Unlock()

	if err != nil {
		return err
	}
	p.exit()
	return nil
}

func (p *fakeProcess) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *fakeProcess) Suspend() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.suspends++
	return nil
}

func (p *fakeProcess) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resumes++
	return nil
}

func (p *fakeProcess) counts() (terminates, kills int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.terminates, p.kills
}

type fakeTransport struct {
	mu           sync.Mutex
	starts       int
	reconfigures int
	last         Options
	processes    []*fakeProcess

	err     error
	newProc func() *fakeProcess

	entered chan struct{} // signalled on every call when set
	release chan struct{} // calls block until closed when set
}

func (t *fakeTransport) launch(ctx context.Context, opts Options) (Process, error) {
	if t.entered != nil {
		t.entered <- struct{}{}
	}
	if t.release != nil {
		select {
		case <-t.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.last = opts
	if t.err != nil {
		return nil, t.err
	}

	p := newFakeProcess()
	if t.newProc != nil {
		p = t.newProc()
	}
	t.processes = append(t.processes, p)
	return p, nil
}

func (t *fakeTransport) Start(ctx context.Context, _ *Session, opts Options) (Process, error) {
	t.mu.Lock()
	t.starts++
	t.mu.Unlock()
	return t.launch(ctx, opts)
}

func (t *fakeTransport) Reconfigure(ctx context.Context, _ *Session, opts Options) (Process, error) {
	t.mu.Lock()
	t.reconfigures++
	t.mu.Unlock()
	return t.launch(ctx, opts)
}

var errSpawn = errors.New("exec: ffmpeg: not found")
