package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServer_RunServesAndShutsDownInReverseOrder(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
	srv := New(handler, 0, time.Second, time.Second, time.Second, discardLogger())

	var mu sync.Mutex
	var order []string
	record := func(name string) ShutdownFunc {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}
	}
	srv.OnShutdown("cache", record("cache"))
	srv.OnShutdown("scheduler", record("scheduler"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	var addr string
	select {
	case a := <-srv.Ready():
		addr = a.String()
	case <-time.After(2 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/", addr))
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}

	if strings.Join(order, ",") != "scheduler,cache" {
		t.Errorf("shutdown order = %v, want [scheduler cache]", order)
	}
}

func TestServer_ShutdownErrorsAreJoined(t *testing.T) {
	srv := New(http.NotFoundHandler(), 0, time.Second, time.Second, time.Second, discardLogger())

	errCache := errors.New("close failed")
	errJobs := errors.New("jobs still running")
	srv.OnShutdown("cache", func(context.Context) error { return errCache })
	srv.OnShutdown("scheduler", func(context.Context) error { return errJobs })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	<-srv.Ready()
	cancel()

	err := <-done
	if !errors.Is(err, errCache) || !errors.Is(err, errJobs) {
		t.Fatalf("Run() error = %v, want both component errors", err)
	}
	if !strings.Contains(err.Error(), "scheduler:") {
		t.Errorf("error %q does not name the component", err)
	}
}

func TestServer_ListenFailure(t *testing.T) {
	srv := New(http.NotFoundHandler(), -1, time.Second, time.Second, time.Second, discardLogger())
	if err := srv.Run(context.Background()); err == nil {
		t.Fatal("expected listen error for invalid port")
	}
}
