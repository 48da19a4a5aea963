// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

package supervisor

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestTreeRunsAndStopsServices(t *testing.T) {
	tree := NewTree(discardLogger(), DefaultTreeConfig())

	var started, stopped atomic.Int32
	tree.AddAPIService(NewService("probe", RunFunc(func(ctx context.Context) error {
		started.Add(1)
		<-ctx.Done()
		stopped.Add(1)
		return ctx.Err()
	})))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.Now().Add(5 * time.Second)
	for started.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if started.Load() == 0 {
		t.Fatal("service never started")
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(5 * time.Second):
		t.Fatal("tree did not stop")
	}
	if stopped.Load() == 0 {
		t.Error("service was not stopped")
	}
}

func TestTreeRestartsFailedService(t *testing.T) {
	cfg := DefaultTreeConfig()
	cfg.FailureBackoff = 10 * time.Millisecond
	tree := NewTree(discardLogger(), cfg)

	var runs atomic.Int32
	tree.AddIngestService(NewService("flaky", RunFunc(func(ctx context.Context) error {
		if runs.Add(1) < 3 {
			return context.DeadlineExceeded
		}
		<-ctx.Done()
		return ctx.Err()
	})))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	deadline := time.Now().Add(4 * time.Second)
	for runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if runs.Load() < 3 {
		t.Fatalf("service restarted %d times, want at least 3 runs", runs.Load())
	}

	cancel()
	<-errCh
}

func TestServiceReportsContextErrorOnStop(t *testing.T) {
	svc := NewService("quiet", RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Serve(ctx); err != context.Canceled {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if svc.String() != "quiet" {
		t.Errorf("name = %q", svc.String())
	}
}
