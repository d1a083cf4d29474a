package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/NunoFAntunes/realtor-buddy/internal/apperrors"
	"github.com/NunoFAntunes/realtor-buddy/internal/logger"
	"github.com/NunoFAntunes/realtor-buddy/internal/metrics"
	"github.com/NunoFAntunes/realtor-buddy/internal/model"
)

// GenerationRequest carries everything a backend may use to produce SQL.
type GenerationRequest struct {
	Prompt  string
	Query   string
	Intent  *model.QueryIntent
	Attempt int
}

// Generator turns a search into raw SQL text. Output is untrusted and goes
// through the validator before execution.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	Name() string
}

// HealthChecker is implemented by backends that can probe their upstream.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// AdmissionGate bounds the number of concurrent generations to the number
// of model slots. Callers either queue for a slot or are turned away.
type AdmissionGate struct {
	next    Generator
	sem     *semaphore.Weighted
	slots   int64
	inUse   atomic.Int64
	timeout time.Duration
	reject  bool
	log     *zap.Logger
}

func NewAdmissionGate(next Generator, slots int64, timeout time.Duration, rejectWhenBusy bool, log *zap.Logger) *AdmissionGate {
	if slots < 1 {
		slots = 1
	}
	return &AdmissionGate{
		next:    next,
		sem:     semaphore.NewWeighted(slots),
		slots:   slots,
		timeout: timeout,
		reject:  rejectWhenBusy,
		log:     logger.OrNop(log),
	}
}

func (g *AdmissionGate) Name() string { return g.next.Name() }

// Slots is the configured concurrency.
func (g *AdmissionGate) Slots() int64 { return g.slots }

// InUse is the number of generations currently holding a slot.
func (g *AdmissionGate) InUse() int64 { return g.inUse.Load() }

// Generate runs the wrapped backend once a slot is free, under the per-call
// timeout. The slot is released on every path.
func (g *AdmissionGate) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	if err := g.acquire(ctx); err != nil {
		return "", err
	}
	g.inUse.Add(1)
	metrics.GenerationInFlight.Inc()
	defer func() {
		g.inUse.Add(-1)
		metrics.GenerationInFlight.Dec()
		g.sem.Release(1)
	}()

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	sql, err := g.next.Generate(callCtx, req)
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, apperrors.ErrGenerationTimeout) {
		err = fmt.Errorf("%w: %w", apperrors.ErrGenerationTimeout, err)
	}

	outcome := "ok"
	switch {
	case errors.Is(err, apperrors.ErrGenerationTimeout):
		outcome = "timeout"
	case err != nil:
		outcome = "error"
	}
	elapsed := time.Since(start)
	metrics.GenerationDuration.WithLabelValues(g.next.Name(), outcome).Observe(elapsed.Seconds())

	g.log.Debug("generation finished",
		zap.String("backend", g.next.Name()),
		zap.Int("attempt", req.Attempt),
		zap.Duration("elapsed", elapsed),
		zap.String("outcome", outcome))
	return sql, err
}

func (g *AdmissionGate) acquire(ctx context.Context) error {
	if g.reject {
		if !g.sem.TryAcquire(1) {
			return fmt.Errorf("%w: all %d slots in use", apperrors.ErrGeneratorBusy, g.slots)
		}
		return nil
	}
	if err := g.sem.Acquire(ctx, 1); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: waiting for a free slot", apperrors.ErrGenerationTimeout)
		}
		return fmt.Errorf("%w: %w", apperrors.ErrGeneratorBusy, err)
	}
	return nil
}

// Health reports the wrapped backend's upstream health when it has one.
func (g *AdmissionGate) Health(ctx context.Context) error {
	if hc, ok := g.next.(HealthChecker); ok {
		return hc.Health(ctx)
	}
	return nil
}

// FallbackGenerator answers from fallback when primary fails with a
// generation error. Timeouts, busy errors and cancellations are returned
// unchanged.
//
// The fallback is a different backend, normally the deterministic rule
// generator, and makes no model call. It is not a retry of the primary: a
// request costs at most one primary call and one fallback call.
type FallbackGenerator struct {
	primary  Generator
	fallback Generator
	log      *zap.Logger
}

func NewFallbackGenerator(primary, fallback Generator, log *zap.Logger) *FallbackGenerator {
	return &FallbackGenerator{primary: primary, fallback: fallback, log: logger.OrNop(log)}
}

func (f *FallbackGenerator) Name() string { return f.primary.Name() + "+" + f.fallback.Name() }

func (f *FallbackGenerator) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	sql, err := f.primary.Generate(ctx, req)
	if err == nil || !errors.Is(err, apperrors.ErrGeneration) || errors.Is(err, apperrors.ErrGenerationTimeout) || ctx.Err() != nil {
		return sql, err
	}
	f.log.Warn("falling back to "+f.fallback.Name()+" generator",
		zap.String("primary", f.primary.Name()),
		zap.String("fallback", f.fallback.Name()),
		zap.Error(err))
	return f.fallback.Generate(ctx, req)
}

// Health reports the primary's health; the fallback has no upstream.
func (f *FallbackGenerator) Health(ctx context.Context) error {
	if hc, ok := f.primary.(HealthChecker); ok {
		return hc.Health(ctx)
	}
	return nil
}
