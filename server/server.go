// Package server exposes taggraph's prometheus metrics over http while a
// crawl runs.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprintln(w, "taggraph; see /metrics")
	})
	return mux
}

// Run serves Handler on addr until ctx is done.
func Run(ctx context.Context, addr string, log zerolog.Logger) error {
	srv := http.Server{
		Addr:              addr,
		Handler:           Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error)
	go func() { errs <- srv.ListenAndServe() }()
	log.Info().Str("addr", addr).Msg("serving metrics")

	select {
	case err := <-errs:
		return fmt.Errorf("error serving metrics on '%s': %w", addr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
