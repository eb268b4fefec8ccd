package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/duncanleo/hc-camera-session/protocol"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg, err := Load("")
	require.Nil(t, err)
	require.Equal(t, 2*time.Second, cfg.Camera.StopTimeout)
	require.Equal(t, MaxStreams, cfg.Camera.Streams)
	require.True(t, cfg.Camera.SRTP)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camera.yaml")
	data := `
hap:
  name: Brown
  pin: "12344321"
camera:
  input: rtsp://127.0.0.1/live
  format: rtsp
  encoder_profile: OMX
  profile: main
  level: 3.1
  streams: 1
  srtp: false
  address: fd00::10
  stop_timeout: 500ms
mqtt:
  enabled: true
  status_topic: brown/camera
log:
  modules:
    ffmpeg: debug
`
	require.Nil(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.Nil(t, err)

	require.Equal(t, "Brown", cfg.HAP.Name)
	require.Equal(t, "Camera Module", cfg.HAP.Model) // default kept
	require.Equal(t, "OMX", cfg.Camera.EncoderProfile)
	require.Equal(t, protocol.ProfileMain, cfg.Camera.Profile)
	require.Equal(t, protocol.Level31, cfg.Camera.Level)
	require.Equal(t, 1, cfg.Camera.Streams)
	require.False(t, cfg.Camera.SRTP)
	require.True(t, cfg.Camera.AddressIsIPv6())
	require.Equal(t, 500*time.Millisecond, cfg.Camera.StopTimeout)
	require.Equal(t, "brown/camera", cfg.MQTT.StatusTopic)
	require.Equal(t, "debug", cfg.Log.Modules["ffmpeg"])
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"short pin", func(c *Config) { c.HAP.Pin = "123" }},
		{"letters in pin", func(c *Config) { c.HAP.Pin = "1234abcd" }},
		{"unknown encoder", func(c *Config) { c.Camera.EncoderProfile = "NVENC" }},
		{"too many streams", func(c *Config) { c.Camera.Streams = 3 }},
		{"bad address", func(c *Config) { c.Camera.Address = "camera.local" }},
		{"zero stop timeout", func(c *Config) { c.Camera.StopTimeout = 0 }},
		{"mqtt without broker", func(c *Config) { c.MQTT.Enabled = true; c.MQTT.Broker = "" }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.modify(cfg)
			require.NotNil(t, cfg.Validate())
		})
	}
}

func TestLoadUnknownProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camera.yaml")
	require.Nil(t, os.WriteFile(path, []byte("camera:\n  profile: extended\n"), 0644))

	_, err := Load(path)
	require.ErrorIs(t, err, protocol.ErrUnknownTag)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NotNil(t, err)
}
