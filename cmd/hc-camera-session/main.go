package main

import (
	"context"
	"flag"
	"time"

	"github.com/brutella/hc"
	"github.com/brutella/hc/accessory"
	"github.com/duncanleo/hc-camera-session/broker"
	"github.com/duncanleo/hc-camera-session/camera"
	"github.com/duncanleo/hc-camera-session/config"
	"github.com/duncanleo/hc-camera-session/ffmpeg"
	"github.com/duncanleo/hc-camera-session/logging"
	"github.com/duncanleo/hc-camera-session/metrics"
	"github.com/duncanleo/hc-camera-session/protocol"
	"github.com/duncanleo/hc-camera-session/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var configPath = flag.String("config", "", "path to a YAML config file")

	var port = flag.String("port", "", "port for the HC accessory, leave empty to randomise")
	var pin = flag.String("pin", "", "pairing PIN for the accessory")
	var storagePath = flag.String("storagePath", "", "storage path")
	var name = flag.String("name", "", "name for the HomeKit Camera")

	var cameraInput = flag.String("cameraInput", "", "input for the camera")
	var cameraFormat = flag.String("cameraFormat", "", "input format for the camera")
	var cameraAudio = flag.Bool("cameraAudio", false, "whether the camera has audio")
	var encoderProfile = flag.String("encoderProfile", "", "encoder profile for FFMPEG. Accepts: CPU, OMX, VAAPI")
	var audioAAC = flag.Bool("aac", false, "whether to enable the AAC-ELD codec")
	var timestampOverlay = flag.Bool("timestampOverlay", false, "whether to enable timestamp overlay in FFMPEG")
	var noSRTP = flag.Bool("noSRTP", false, "stream without SRTP")

	var doorbell = flag.Bool("doorbell", false, "whether to enable video doorbell support")
	var brokerURI = flag.String("brokerURI", "", "URI of the MQTT broker")
	var metricsListen = flag.String("metrics", "", "listen address for the Prometheus endpoint, e.g. :9100")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Logger.Fatal().Err(err).Msg("[main] config")
	}

	// flags set on the command line win over the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.HAP.Port = *port
		case "pin":
			cfg.HAP.Pin = *pin
		case "storagePath":
			cfg.HAP.StoragePath = *storagePath
		case "name":
			cfg.HAP.Name = *name
		case "cameraInput":
			cfg.Camera.Input = *cameraInput
		case "cameraFormat":
			cfg.Camera.Format = *cameraFormat
		case "cameraAudio":
			cfg.Camera.Audio = *cameraAudio
		case "encoderProfile":
			cfg.Camera.EncoderProfile = *encoderProfile
		case "aac":
			cfg.Camera.AAC = *audioAAC
		case "timestampOverlay":
			cfg.Camera.TimestampOverlay = *timestampOverlay
		case "noSRTP":
			cfg.Camera.SRTP = !*noSRTP
		case "doorbell":
			cfg.MQTT.Enabled = *doorbell
		case "brokerURI":
			cfg.MQTT.Broker = *brokerURI
		case "metrics":
			cfg.Metrics.Listen = *metricsListen
		}
	})

	if err = cfg.Validate(); err != nil {
		logging.Logger.Fatal().Err(err).Msg("[main] config")
	}

	logging.Init(cfg.Log.Level, cfg.Log.Output, cfg.Log.Format, cfg.Log.Modules)
	log := logging.GetLogger("main")

	if cfg.Metrics.Listen != "" {
		metrics.Serve(cfg.Metrics.Listen)
	}

	var mqttClient *broker.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = broker.Connect(cfg.MQTT.ClientID, cfg.MQTT.Broker)
		if err != nil {
			log.Fatal().Err(err).Msg("[main] mqtt")
		}
	}

	transport := ffmpeg.NewTransport(ffmpeg.Config{
		Source:           cfg.Camera.Input,
		Format:           cfg.Camera.Format,
		Audio:            cfg.Camera.Audio,
		AAC:              cfg.Camera.AAC,
		TimestampOverlay: cfg.Camera.TimestampOverlay,
		Encoder:          ffmpeg.EncoderProfile(cfg.Camera.EncoderProfile),
		Params:           &session.VideoParams{Profile: cfg.Camera.Profile, Level: cfg.Camera.Level},
	})

	opts := camera.NewOptions(cfg.Camera)
	if mqttClient != nil && cfg.MQTT.StatusTopic != "" {
		opts.OnStatusChange = func(stream int, status protocol.StreamingStatus) {
			mqttClient.PublishStatus(cfg.MQTT.StatusTopic, stream, status)
		}
	}

	cam, err := camera.CreateCamera(accessory.Info{
		Name:         cfg.HAP.Name,
		Manufacturer: cfg.HAP.Manufacturer,
		Model:        cfg.HAP.Model,
	}, transport, opts)
	if err != nil {
		log.Fatal().Err(err).Msg("[main] camera")
	}

	if mqttClient != nil {
		bell := cam.AddDoorbell()
		if err = mqttClient.SubscribeDoorbell(cfg.MQTT.DoorbellTopic, bell.Ring); err != nil {
			log.Fatal().Err(err).Msg("[main] mqtt")
		}
	}

	t, err := hc.NewIPTransport(hc.Config{
		Pin:         cfg.HAP.Pin,
		StoragePath: cfg.HAP.StoragePath,
		Port:        cfg.HAP.Port,
	}, cam.Accessory)
	if err != nil {
		log.Fatal().Err(err).Msg("[main] hap")
	}

	t.CameraSnapshotReq = cam.SnapshotFunc(transport)

	hc.OnTermination(func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := cam.Manager.StopAll(ctx); err != nil {
			log.Error().Err(err).Msg("[main] stop streams")
		}
		if mqttClient != nil {
			mqttClient.Disconnect(250)
		}
		<-t.Stop()
	})

	log.Info().Str("name", cfg.HAP.Name).Str("pin", cfg.HAP.Pin).Msg("[main] start")

	t.Start()
}
