// Command unhype-sim runs the simulated pipeline service. Point the unhype
// CLI at it (UNHYPE_SERVICE_URL) to exercise the client without the real
// upstream.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unhype/unhype/internal/simstream"
	"github.com/unhype/unhype/pkg/logger"
)

// HTTP server timeout constants. WriteTimeout stays generous because the
// rewrite endpoint streams for the length of a run.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Minute
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	lineDelay := flag.Duration("line-delay", 150*time.Millisecond, "pause between streamed lines")
	chunkWords := flag.Int("chunk-words", 6, "words per chunk event")
	failAt := flag.String("fail-at", "", "emit an error event at this step (clean, analyzed, humanizing, verifying)")
	noiseEvery := flag.Int("noise-every", 0, "inject a malformed line every N events (0 disables)")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	genOpts := []simstream.GenOption{
		simstream.WithChunkWords(*chunkWords),
	}
	if *failAt != "" {
		genOpts = append(genOpts, simstream.WithFailAtStep(*failAt))
	}
	if *noiseEvery > 0 {
		genOpts = append(genOpts, simstream.WithNoiseEvery(*noiseEvery))
	}

	sim := simstream.NewServer(
		simstream.WithGenerator(simstream.NewGenerator(genOpts...)),
		simstream.WithLineDelay(*lineDelay),
	)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           sim.Handler(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "simulator listening", logger.String("addr", *addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintln(os.Stderr, "simulator failed:", err)
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down simulator...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "simulator shutdown failed", logger.Error(err))
	}
}
