package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		newLogger(LogConfig{Level: "info"}).Fatalf("load config failed: %v", err)
	}
	log := newLogger(cfg.Log)

	if err := run(cfg, log); err != nil {
		log.Fatal(err)
	}
}

// run owns every resource for the life of the process and releases them
// before returning.
func run(cfg *Config, log *logrus.Logger) error {
	db, err := openDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database failed: %w", err)
	}
	if err := migrate(db); err != nil {
		return fmt.Errorf("migrate database failed: %w", err)
	}
	store := NewStore(db)
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 && os.Args[1] == "tool" {
		if err := runTool(ctx, os.Args[2:], store, os.Stdout, os.Stderr); err != nil {
			return fmt.Errorf("tool failed: %w", err)
		}
		return nil
	}

	app, err := NewApp(ctx, cfg, log, store)
	if err != nil {
		return fmt.Errorf("init app failed: %w", err)
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           app.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.WithField("addr", srv.Addr).Info("Starting server")
	return serve(ctx, srv, log)
}

// serve runs srv until ctx is cancelled or the listener fails. A cancelled
// ctx triggers a graceful shutdown.
func serve(ctx context.Context, srv *http.Server, log *logrus.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
