package lifecycle_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JaimeStill/ineed/pkg/lifecycle"
)

func TestReadiness(t *testing.T) {
	lc := lifecycle.New()
	if lc.Ready() {
		t.Fatal("ready before startup")
	}

	var ran atomic.Int32
	for range 3 {
		lc.OnStartup(func() { ran.Add(1) })
	}

	lc.WaitForStartup()

	if !lc.Ready() {
		t.Error("not ready after startup")
	}
	if ran.Load() != 3 {
		t.Errorf("startup hooks ran %d times, want 3", ran.Load())
	}

	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if lc.Ready() {
		t.Error("still ready after shutdown")
	}
}

func TestShutdownRunsHooksAndWorkers(t *testing.T) {
	lc := lifecycle.New()

	var hook, worker atomic.Bool
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		hook.Store(true)
	})
	lc.Go(func(ctx context.Context) {
		<-ctx.Done()
		worker.Store(true)
	})

	if err := lc.Shutdown(time.Second); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !hook.Load() || !worker.Load() {
		t.Errorf("hook=%v worker=%v, want both", hook.Load(), worker.Load())
	}
	if lc.Context().Err() == nil {
		t.Error("context not cancelled")
	}
}

func TestShutdownTimeout(t *testing.T) {
	lc := lifecycle.New()
	release := make(chan struct{})
	defer close(release)

	lc.Go(func(ctx context.Context) { <-release })

	if err := lc.Shutdown(20 * time.Millisecond); err == nil {
		t.Error("expected timeout error")
	}
}
