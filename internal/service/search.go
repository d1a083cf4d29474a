package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/NunoFAntunes/realtor-buddy/internal/apperrors"
	"github.com/NunoFAntunes/realtor-buddy/internal/logger"
	"github.com/NunoFAntunes/realtor-buddy/internal/metrics"
	"github.com/NunoFAntunes/realtor-buddy/internal/model"
	"github.com/NunoFAntunes/realtor-buddy/internal/sqlguard"
)

// maxAttempts is the first generation plus one corrective retry.
const maxAttempts = 2

// Executor runs validated SQL.
type Executor interface {
	Execute(ctx context.Context, sql string, rowLimit int) ([]map[string]any, error)
}

// SQLCache remembers validated SQL per query text.
type SQLCache interface {
	Get(ctx context.Context, query string) (string, bool, error)
	Set(ctx context.Context, query, sql string) error
}

// SearchDeps are the collaborators of a SearchService.
type SearchDeps struct {
	Analyzer  *Analyzer
	Selector  *Selector
	Prompts   *PromptBuilder
	Docs      SchemaDocs
	Generator Generator
	Validator *sqlguard.Validator
	Executor  Executor
	Formatter *Formatter
	Cache     SQLCache // optional
}

// SearchOptions tune the pipeline.
type SearchOptions struct {
	DefaultLimit   int
	ExamplesK      int
	RequestTimeout time.Duration
}

// SearchService runs one search through analysis, generation, validation,
// execution and formatting. It keeps no per-request state.
type SearchService struct {
	deps SearchDeps
	opts SearchOptions
	log  *zap.Logger
}

func NewSearchService(deps SearchDeps, opts SearchOptions, log *zap.Logger) *SearchService {
	if deps.Cache == nil {
		deps.Cache = noCache{}
	}
	if opts.ExamplesK <= 0 {
		opts.ExamplesK = 4
	}
	return &SearchService{deps: deps, opts: opts, log: logger.OrNop(log)}
}

// Search returns a result even on failure when the intent was analyzed, so
// callers can echo it back.
func (s *SearchService) Search(ctx context.Context, req model.SearchRequest) (*model.SearchResult, error) {
	start := time.Now()
	res, err := s.search(ctx, req)
	elapsed := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = string(apperrors.Code(err))
	}
	metrics.SearchRequests.WithLabelValues(outcome).Inc()
	metrics.SearchDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())

	fields := []zap.Field{
		zap.String("query", req.Query),
		zap.String("outcome", outcome),
		zap.Duration("elapsed", elapsed),
	}
	if res != nil {
		fields = append(fields, zap.Int("results", len(res.Records)), zap.Bool("cached", res.Cached), zap.Int("attempts", res.Attempts))
	}
	if err != nil {
		s.log.Warn("search failed", append(fields, zap.Error(err))...)
	} else {
		s.log.Info("search completed", fields...)
	}
	return res, err
}

func (s *SearchService) search(ctx context.Context, req model.SearchRequest) (*model.SearchResult, error) {
	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
	}

	intent, err := s.deps.Analyzer.Analyze(req.Query)
	if err != nil {
		return nil, err
	}
	res := &model.SearchResult{Intent: intent}
	limit := s.limit(req.Limit)

	sql, cached := s.cachedSQL(ctx, req.Query)
	if !cached {
		sql, res.Attempts, err = s.generate(ctx, req.Query, intent)
		if err != nil {
			return res, err
		}
	}
	res.Cached = cached

	execSQL, err := s.deps.Validator.ValidateWithLimit(sql, limit)
	if err != nil {
		return res, fmt.Errorf("%w: %w", apperrors.ErrNotUnderstood, err)
	}
	res.SQL = execSQL

	rows, err := s.deps.Executor.Execute(ctx, execSQL, limit)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, apperrors.ErrResultTooLarge) {
			return res, fmt.Errorf("%w: %w", apperrors.ErrGenerationTimeout, err)
		}
		return res, err
	}
	res.Records = s.deps.Formatter.Format(rows)

	if !cached {
		if err := s.deps.Cache.Set(ctx, req.Query, sql); err != nil {
			s.log.Warn("sql cache store failed", zap.Error(err))
		}
	}
	return res, nil
}

// generate asks the backend for SQL and retries once with the validator's
// reason as feedback. Backend errors are returned as they are.
func (s *SearchService) generate(ctx context.Context, query string, intent *model.QueryIntent) (string, int, error) {
	examples := s.deps.Selector.Select(intent, query, s.opts.ExamplesK)

	var (
		feedback string
		lastErr  error
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		prompt := s.deps.Prompts.Build(intent, examples, s.deps.Docs, query, feedback)
		raw, err := s.deps.Generator.Generate(ctx, GenerationRequest{
			Prompt:  prompt,
			Query:   query,
			Intent:  intent,
			Attempt: attempt,
		})
		if err != nil {
			return "", attempt, err
		}

		sql, err := s.deps.Validator.Validate(raw)
		if err == nil {
			return sql, attempt, nil
		}

		code := "unknown"
		var ve *sqlguard.ValidationError
		if errors.As(err, &ve) {
			code = string(ve.Code)
			feedback = ve.Error()
		} else {
			feedback = err.Error()
		}
		metrics.ValidationFailures.WithLabelValues(code).Inc()
		s.log.Warn("generated sql rejected",
			zap.Int("attempt", attempt),
			zap.String("code", code),
			zap.Error(err))
		lastErr = err
	}
	return "", maxAttempts, fmt.Errorf("%w: %w", apperrors.ErrNotUnderstood, lastErr)
}

// cachedSQL returns a cache hit only if it still passes validation.
func (s *SearchService) cachedSQL(ctx context.Context, query string) (string, bool) {
	sql, ok, err := s.deps.Cache.Get(ctx, query)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		s.log.Warn("sql cache lookup failed", zap.Error(err))
		return "", false
	case !ok:
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return "", false
	}

	valid, err := s.deps.Validator.Validate(sql)
	if err != nil {
		metrics.CacheLookups.WithLabelValues("invalid").Inc()
		s.log.Warn("discarding cached sql", zap.Error(err))
		return "", false
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return valid, true
}

func (s *SearchService) limit(requested int) int {
	maxRows := s.deps.Validator.MaxRows()
	switch {
	case requested <= 0 && s.opts.DefaultLimit > 0 && s.opts.DefaultLimit < maxRows:
		return s.opts.DefaultLimit
	case requested <= 0 || requested > maxRows:
		return maxRows
	default:
		return requested
	}
}

type noCache struct{}

func (noCache) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (noCache) Set(context.Context, string, string) error         { return nil }
