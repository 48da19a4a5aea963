// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

package supervisor

import (
	"context"
)

// Runner is the context-aware run loop both the HTTP server and the ingest
// pipeline expose.
type Runner interface {
	Serve(ctx context.Context) error
}

// RunFunc adapts a plain run function to Runner.
type RunFunc func(ctx context.Context) error

func (f RunFunc) Serve(ctx context.Context) error {
	return f(ctx)
}

// Service names a Runner so suture logs identify it.
type Service struct {
	name   string
	runner Runner
}

// NewService wraps a runner as a supervised service.
func NewService(name string, runner Runner) *Service {
	return &Service{name: name, runner: runner}
}

// Serve implements suture.Service. A nil return from the runner after
// context cancellation reports the context error so suture treats the stop
// as intentional rather than a crash to restart.
func (s *Service) Serve(ctx context.Context) error {
	err := s.runner.Serve(ctx)
	if err == nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *Service) String() string {
	return s.name
}
