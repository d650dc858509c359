// Command relayd runs a single-process development relay. It stores
// envelopes in memory and serves them to long-polling clients; nothing
// survives a restart.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mmilam360/relaysigner/internal/logging"
	"github.com/mmilam360/relaysigner/internal/relay"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	logLevel := flag.String("log-level", "info", "log level (trace..error)")
	flag.Parse()

	log := logging.New(*logLevel)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           relay.NewServer(log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Info().Str("addr", *addr).Msg("relay listening")

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("relay stopped")
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		log.Info().Msg("relay shut down")
	}
}
