package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestServe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.Nil(t, err)
	addr := ln.Addr().String()
	require.Nil(t, ln.Close())

	SessionsNegotiated.Inc()
	StreamingStatus.WithLabelValues("0").Set(1)

	srv := Serve(addr)
	defer srv.Shutdown(context.Background())

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	res, err := http.Get("http://" + addr + "/metrics")
	require.Nil(t, err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.Nil(t, err)
	require.True(t, strings.Contains(string(body), "hc_camera_sessions_negotiated_total"))
	require.True(t, strings.Contains(string(body), `hc_camera_streaming_status{stream="0"} 1`))
}
