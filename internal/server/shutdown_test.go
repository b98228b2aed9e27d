package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"ltv-dashboard/internal/config"
)

func testGracefulServer() *GracefulServer {
	cfg := &config.Config{Server: config.ServerConfig{ShutdownTimeout: 5 * time.Second}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewGracefulServer(&http.Server{Addr: "127.0.0.1:0"}, logger, cfg)
}

func TestGracefulServer_ShutdownRunsEveryHook(t *testing.T) {
	gs := testGracefulServer()

	var ran atomic.Int32
	errFlush := errors.New("flush failed")

	gs.RegisterShutdownHook("ok", func(ctx context.Context) error {
		ran.Add(1)
		return nil
	})
	gs.RegisterShutdownHook("flush", func(ctx context.Context) error {
		ran.Add(1)
		return errFlush
	})

	errClose := errors.New("close failed")
	gs.RegisterShutdownHook("close", func(ctx context.Context) error {
		ran.Add(1)
		return errClose
	})

	err := gs.Shutdown(context.Background())
	if !errors.Is(err, errFlush) || !errors.Is(err, errClose) {
		t.Errorf("Shutdown() error = %v, want it to wrap %v and %v", err, errFlush, errClose)
	}
	if ran.Load() != 3 {
		t.Errorf("%d hooks ran, want 3", ran.Load())
	}
}

func TestGracefulServer_ShutdownWithoutFailures(t *testing.T) {
	gs := testGracefulServer()
	gs.RegisterShutdownHook("ok", func(ctx context.Context) error { return nil })

	if err := gs.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v, want nil", err)
	}
}

func TestGracefulServer_ListenAndServeStopsOnCancel(t *testing.T) {
	gs := testGracefulServer()

	var closed atomic.Bool
	gs.RegisterShutdownHook("marker", func(ctx context.Context) error {
		closed.Store(true)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gs.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancellation")
	}
	if !closed.Load() {
		t.Error("shutdown hook did not run")
	}
}
