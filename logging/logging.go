// Package logging configures the zerolog loggers used across the camera.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

var Logger = zerolog.New(os.Stderr).Level(zerolog.InfoLevel)

// modules holds per-module level overrides, e.g. "ffmpeg": "debug".
var modules = map[string]string{}

// Init supports:
//   - output: stderr (default), stdout
//   - format: empty (autodetect color support), color, json, text
//   - level:  disabled, trace, debug, info, warn, error
func Init(level, output, format string, mods map[string]string) {
	var writer io.Writer = os.Stderr
	if output == "stdout" {
		writer = os.Stdout
	}

	if format != "json" {
		console := zerolog.ConsoleWriter{Out: writer, TimeFormat: "15:04:05.000"}

		switch format {
		case "text":
			console.NoColor = true
		case "color":
			console.NoColor = false
		default:
			if f, ok := writer.(*os.File); ok {
				console.NoColor = !isatty.IsTerminal(f.Fd())
			}
		}

		writer = console
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	Logger = zerolog.New(writer).Level(lvl).With().Timestamp().Logger()

	modules = map[string]string{}
	for k, v := range mods {
		modules[k] = v
	}
}

// GetLogger returns the logger for module. DEBUG=* or DEBUG=<module> in the
// environment forces debug level, as with DEBUG=ffmpeg.
func GetLogger(module string) zerolog.Logger {
	if debugEnabled(os.Getenv("DEBUG"), module) {
		return Logger.Level(zerolog.DebugLevel)
	}

	if s, ok := modules[module]; ok {
		lvl, err := zerolog.ParseLevel(s)
		if err == nil {
			return Logger.Level(lvl)
		}
		Logger.Warn().Err(err).Str("module", module).Msg("[logging] bad level")
	}

	return Logger
}

func debugEnabled(env, module string) bool {
	for _, s := range strings.Split(env, ",") {
		if s = strings.TrimSpace(s); s == "*" || s == module {
			return true
		}
	}
	return false
}
