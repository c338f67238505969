// Command server runs the incident reporting API.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/yusufekamaulana/rsua-akreditasi/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fatal("config load failed", err)
	}

	srv, err := NewServer(cfg)
	if err != nil {
		fatal("server init failed", err)
	}

	if err := srv.Start(); err != nil {
		fatal("server start failed", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	if err := srv.Shutdown(cfg.ShutdownTimeoutDuration()); err != nil {
		fatal("shutdown failed", err)
	}
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
