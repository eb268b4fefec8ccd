package logging

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestDebugEnabled(t *testing.T) {
	require.True(t, debugEnabled("*", "ffmpeg"))
	require.True(t, debugEnabled("session, ffmpeg", "ffmpeg"))
	require.False(t, debugEnabled("session", "ffmpeg"))
	require.False(t, debugEnabled("", "ffmpeg"))
}

func TestGetLoggerModuleLevel(t *testing.T) {
	t.Setenv("DEBUG", "")

	Init("info", "stderr", "text", map[string]string{"session": "trace", "camera": "nope"})

	require.Equal(t, zerolog.TraceLevel, GetLogger("session").GetLevel())
	require.Equal(t, zerolog.InfoLevel, GetLogger("camera").GetLevel())
	require.Equal(t, zerolog.InfoLevel, GetLogger("ffmpeg").GetLevel())

	t.Setenv("DEBUG", "ffmpeg")
	require.Equal(t, zerolog.DebugLevel, GetLogger("ffmpeg").GetLevel())
}
