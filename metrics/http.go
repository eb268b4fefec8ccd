package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/duncanleo/hc-camera-session/logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Serve exposes /metrics on addr in the background.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log := logging.GetLogger("metrics")

	go func() {
		log.Info().Str("addr", addr).Msg("[metrics] listen")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("[metrics] serve")
		}
	}()

	return srv
}
