// Package breaker decorates a generation backend with a circuit breaker.
//
// After enough failures in the rolling window the breaker opens and calls
// fail fast with domain.ErrCircuitOpen until the open timeout elapses;
// a limited number of probe calls then decide whether it closes again.
package breaker

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Backend implements the interfaces.
var (
	_ driven.GenerationBackend = (*Backend)(nil)
	_ driven.PromptStoreAware  = (*Backend)(nil)
)

// Backend guards another backend with a circuit breaker.
type Backend struct {
	next driven.GenerationBackend
	cb   *gobreaker.CircuitBreaker
}

// Wrap returns next guarded by a breaker configured from cfg.
// Zero fields fall back to domain.DefaultAppSettings().Breaker.
func Wrap(next driven.GenerationBackend, cfg domain.BreakerSettings) *Backend {
	cfg = withDefaults(cfg)
	window := uint32(cfg.Window)
	ratio := cfg.FailureRatio

	b := &Backend{next: next}
	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "generation:" + next.ModelName(),
		MaxRequests: uint32(cfg.HalfOpenCalls),
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < window {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
		},
		IsSuccessful: b.isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("breaker %s: %s -> %s", name, from, to)
		},
	})
	return b
}

func withDefaults(cfg domain.BreakerSettings) domain.BreakerSettings {
	def := domain.DefaultAppSettings().Breaker
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.FailureRatio <= 0 || cfg.FailureRatio > 1 {
		cfg.FailureRatio = def.FailureRatio
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	if cfg.HalfOpenCalls <= 0 {
		cfg.HalfOpenCalls = def.HalfOpenCalls
	}
	if cfg.Interval < 0 {
		cfg.Interval = def.Interval
	}
	return cfg
}

// isSuccessful does not hold caller cancellation against a closed breaker.
// While half-open a cancelled trial proves nothing about the backend, so
// it counts as a failure and cannot close the breaker.
func (b *Backend) isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return b.cb.State() != gobreaker.StateHalfOpen
	}
	return false
}

// Generate answers a conversational prompt through the breaker.
func (b *Backend) Generate(ctx context.Context, prompt string) (string, error) {
	return b.call(ctx, func() (string, error) {
		return b.next.Generate(ctx, prompt)
	})
}

// GenerateWithContext answers a grounded question through the breaker.
func (b *Backend) GenerateWithContext(ctx context.Context, question, contextText string) (string, error) {
	return b.call(ctx, func() (string, error) {
		return b.next.GenerateWithContext(ctx, question, contextText)
	})
}

// call skips the breaker for callers that have already gone away.
func (b *Backend) call(ctx context.Context, fn func() (string, error)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	out, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %w", domain.ErrCircuitOpen, err)
	}
	if err != nil {
		return "", err
	}
	answer, _ := out.(string)
	return answer, nil
}

// State reports the breaker state: "closed", "half-open" or "open".
func (b *Backend) State() string {
	return b.cb.State().String()
}

// ModelName returns the wrapped backend's model.
func (b *Backend) ModelName() string {
	return b.next.ModelName()
}

// SetPromptStore forwards to the wrapped backend when it supports prompts.
func (b *Backend) SetPromptStore(store driven.PromptStore) {
	if aware, ok := b.next.(driven.PromptStoreAware); ok {
		aware.SetPromptStore(store)
	}
}

// Ping bypasses the breaker so a health check can succeed while open.
func (b *Backend) Ping(ctx context.Context) error {
	return b.next.Ping(ctx)
}

// Close closes the wrapped backend.
func (b *Backend) Close() error {
	return b.next.Close()
}
