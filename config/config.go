// Package config loads the camera configuration from YAML.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/duncanleo/hc-camera-session/protocol"
	"gopkg.in/yaml.v3"
)

// Config represents the complete accessory configuration
type Config struct {
	HAP     HAPConfig     `yaml:"hap"`
	Camera  CameraConfig  `yaml:"camera"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

type HAPConfig struct {
	Name         string `yaml:"name"`
	Manufacturer string `yaml:"manufacturer"`
	Model        string `yaml:"model"`
	Pin          string `yaml:"pin"`
	Port         string `yaml:"port"` // empty to randomise
	StoragePath  string `yaml:"storage_path"`
}

type CameraConfig struct {
	Input            string           `yaml:"input"`
	Format           string           `yaml:"format"`
	Audio            bool             `yaml:"audio"`
	AAC              bool             `yaml:"aac"`
	TimestampOverlay bool             `yaml:"timestamp_overlay"`
	EncoderProfile   string           `yaml:"encoder_profile"` // CPU, OMX, VAAPI
	Profile          protocol.Profile `yaml:"profile"`         // h264 profile when the controller sends none
	Level            protocol.Level   `yaml:"level"`
	Streams          int              `yaml:"streams"`
	SRTP             bool             `yaml:"srtp"`
	Address          string           `yaml:"address"` // empty to use the controller connection's local address
	StopTimeout      time.Duration    `yaml:"stop_timeout"`
}

type MQTTConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Broker        string `yaml:"broker"`
	ClientID      string `yaml:"client_id"`
	DoorbellTopic string `yaml:"doorbell_topic"`
	StatusTopic   string `yaml:"status_topic"`
}

type MetricsConfig struct {
	Listen string `yaml:"listen"` // empty disables the /metrics endpoint
}

type LogConfig struct {
	Level   string            `yaml:"level"`
	Output  string            `yaml:"output"`
	Format  string            `yaml:"format"`
	Modules map[string]string `yaml:"modules"`
}

// MaxStreams is the number of RTP stream management services on the camera accessory.
const MaxStreams = 2

func Default() *Config {
	return &Config{
		HAP: HAPConfig{
			Name:         "HomeKit Camera",
			Manufacturer: "Raspberry Pi Foundation",
			Model:        "Camera Module",
			Pin:          "00102003",
			StoragePath:  "hc-camera-session-storage",
		},
		Camera: CameraConfig{
			Input:          "/dev/video0",
			Format:         "v4l2",
			EncoderProfile: "CPU",
			Profile:        protocol.ProfileHigh,
			Level:          protocol.Level40,
			Streams:        MaxStreams,
			SRTP:           true,
			StopTimeout:    2 * time.Second,
		},
		MQTT: MQTTConfig{
			Broker:        "mqtt://127.0.0.1:1883",
			ClientID:      "hc-camera-session",
			DoorbellTopic: "rpi-mqtt-doorbell",
		},
		Log: LogConfig{
			Level:  "info",
			Output: "stderr",
		},
	}
}

// Load reads path on top of the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	config := Default()
	if path == "" {
		return config, config.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) Validate() error {
	if err := c.HAP.Validate(); err != nil {
		return fmt.Errorf("hap config: %w", err)
	}
	if err := c.Camera.Validate(); err != nil {
		return fmt.Errorf("camera config: %w", err)
	}
	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt config: %w", err)
	}
	return nil
}

func (h *HAPConfig) Validate() error {
	if len(h.Pin) != 8 {
		return fmt.Errorf("pin must be 8 digits, got %q", h.Pin)
	}
	for _, r := range h.Pin {
		if r < '0' || r > '9' {
			return fmt.Errorf("pin must be 8 digits, got %q", h.Pin)
		}
	}
	if h.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	return nil
}

func (c *CameraConfig) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("input cannot be empty")
	}

	switch c.EncoderProfile {
	case "CPU", "OMX", "VAAPI":
	default:
		return fmt.Errorf("encoder_profile must be one of CPU, OMX, VAAPI, got %q", c.EncoderProfile)
	}

	if c.Streams < 1 || c.Streams > MaxStreams {
		return fmt.Errorf("streams must be between 1 and %d, got %d", MaxStreams, c.Streams)
	}

	if c.Address != "" && net.ParseIP(c.Address) == nil {
		return fmt.Errorf("address must be an IP address, got %q", c.Address)
	}

	if c.StopTimeout <= 0 {
		return fmt.Errorf("stop_timeout must be positive, got %s", c.StopTimeout)
	}

	return nil
}

// AddressIsIPv6 reports whether the configured stream address is IPv6.
func (c *CameraConfig) AddressIsIPv6() bool {
	ip := net.ParseIP(c.Address)
	return ip != nil && ip.To4() == nil
}

func (m *MQTTConfig) Validate() error {
	if !m.Enabled {
		return nil
	}
	if m.Broker == "" {
		return fmt.Errorf("broker cannot be empty when mqtt is enabled")
	}
	if m.ClientID == "" {
		return fmt.Errorf("client_id cannot be empty when mqtt is enabled")
	}
	return nil
}
