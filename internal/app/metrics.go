package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.trai.ch/sift/internal/adapters/metrics"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/core/ports"
)

const shutdownTimeout = 2 * time.Second

// serveMetrics exposes the collector on addr under /metrics until stop is called.
func serveMetrics(addr string, c *metrics.Collector, log ports.Logger) (stop func(), err error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, domain.Fail(domain.Because(domain.ErrInvalidConfig, err), "metrics.addr", addr)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics server: " + err.Error())
		}
	}()
	log.Info("serving metrics on http://" + ln.Addr().String() + "/metrics")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
