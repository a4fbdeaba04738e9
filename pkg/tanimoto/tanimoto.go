// Package tanimoto computes the dense pairwise Jaccard/Tanimoto similarity
// table of a batch of compound encodings on a fixed pool of workers.
package tanimoto

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/baditaflorin/go_tanimoto_similarity/internal/adapters/cache"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/adapters/logger"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/config"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/aggregate"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/domain"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/executor"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/partition"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/signature"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/similarity"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/ports"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/warmup"
	"github.com/baditaflorin/l"
)

type (
	// Entity is one compound: identifier and structure encoding.
	Entity = domain.Entity
	// ResultRow is the coefficient of one unordered pair.
	ResultRow = domain.ResultRow
	// ResultSet is the merged table.
	ResultSet = domain.ResultSet
	// Report describes one completed run.
	Report = domain.Report
	// RoundingMode selects tie handling when rounding coefficients.
	RoundingMode = similarity.RoundingMode
	// Logger is the structured logger the engine writes to.
	Logger = ports.Logger
)

const (
	HalfUp   = similarity.HalfUp
	HalfEven = similarity.HalfEven
)

// Errors callers may test for with errors.Is.
var (
	ErrInvalidWorkers = domain.ErrInvalidWorkers
	ErrTooManyWorkers = domain.ErrTooManyWorkers
	ErrDegenerate     = domain.ErrDegenerate
	ErrTimeout        = domain.ErrTimeout
)

// Option defines a functional option for configuring the Engine.
type Option func(*engineConfig)

type engineConfig struct {
	Workers   int
	Precision int
	Rounding  RoundingMode
	Sorted    bool
	Strict    bool
	Timeout   time.Duration
	CacheSize int
	Logger    ports.Logger
	WarmUp    bool
}

// WithWorkers sets the number of concurrent comparison workers.
func WithWorkers(n int) Option {
	return func(cfg *engineConfig) {
		cfg.Workers = n
	}
}

// WithPrecision sets the number of decimal digits kept in coefficients.
func WithPrecision(p int) Option {
	return func(cfg *engineConfig) {
		cfg.Precision = p
	}
}

// WithRounding sets how ties are rounded.
func WithRounding(mode RoundingMode) Option {
	return func(cfg *engineConfig) {
		cfg.Rounding = mode
	}
}

// WithSorted controls the final stable sort by (IDA, IDB). Enabled by default.
func WithSorted(sorted bool) Option {
	return func(cfg *engineConfig) {
		cfg.Sorted = sorted
	}
}

// WithStrict makes a pair of empty encodings fail the run with ErrDegenerate
// instead of scoring 0.
func WithStrict(strict bool) Option {
	return func(cfg *engineConfig) {
		cfg.Strict = strict
	}
}

// WithTimeout bounds the parallel phase of each run.
func WithTimeout(d time.Duration) Option {
	return func(cfg *engineConfig) {
		cfg.Timeout = d
	}
}

// WithSignatureCache shares signatures across runs through an LRU of the given size.
func WithSignatureCache(size int) Option {
	return func(cfg *engineConfig) {
		cfg.CacheSize = size
	}
}

// WithLogger sets a custom logger.
func WithLogger(lg l.Logger) Option {
	return func(cfg *engineConfig) {
		cfg.Logger = logger.FromExisting(lg)
	}
}

// WithEngineLogger sets an already adapted logger. The engine does not close it.
func WithEngineLogger(lg Logger) Option {
	return func(cfg *engineConfig) {
		cfg.Logger = lg
	}
}

// WithoutLogging discards all engine log output.
func WithoutLogging() Option {
	return func(cfg *engineConfig) {
		cfg.Logger = ports.NopLogger{}
	}
}

// WithWarmUp runs a warm-up pass when the engine is created.
func WithWarmUp(enable bool) Option {
	return func(cfg *engineConfig) {
		cfg.WarmUp = enable
	}
}

// Engine runs batch comparisons.
type Engine struct {
	config     engineConfig
	calc       *similarity.Calculator
	executor   *executor.Executor
	cache      *cache.SignatureCache
	logger     ports.Logger
	ownsLogger bool
	warmed     bool
}

// New creates an Engine. Workers default to the host's logical CPU count.
func New(opts ...Option) (*Engine, error) {
	cfg := engineConfig{
		Workers:   config.DefaultWorkers(),
		Precision: similarity.DefaultPrecision,
		Rounding:  HalfUp,
		Sorted:    true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.Workers <= 0 {
		return nil, fmt.Errorf("%w (got %d)", domain.ErrInvalidWorkers, cfg.Workers)
	}
	calc, err := similarity.NewCalculator(similarity.Config{
		Precision: cfg.Precision,
		Rounding:  cfg.Rounding,
		Strict:    cfg.Strict,
	})
	if err != nil {
		return nil, err
	}

	e := &Engine{config: cfg, calc: calc}

	if cfg.Logger == nil {
		lg, err := logger.NewStdLogger()
		if err != nil {
			return nil, err
		}
		cfg.Logger = lg
		e.ownsLogger = true
	}
	e.logger = cfg.Logger
	e.config.Logger = cfg.Logger

	if cfg.CacheSize > 0 {
		e.cache, err = cache.NewSignatureCache(cfg.CacheSize)
		if err != nil {
			return nil, err
		}
	}

	e.executor = executor.New(executor.Config{Timeout: cfg.Timeout}, e.logger)

	if cfg.WarmUp {
		if err := e.WarmUp(context.Background()); err != nil {
			e.Close()
			return nil, err
		}
	}
	return e, nil
}

// Workers returns the configured worker count.
func (e *Engine) Workers() int {
	return e.config.Workers
}

// Precision returns the number of decimal digits in coefficients.
func (e *Engine) Precision() int {
	return e.config.Precision
}

// Run computes the coefficient of every unordered pair of entities with the
// configured worker count.
func (e *Engine) Run(ctx context.Context, entities []Entity) (*Report, error) {
	return e.RunWithWorkers(ctx, entities, e.config.Workers)
}

// RunWithWorkers is Run with an explicit worker count. Configuration errors
// are reported before any worker starts.
func (e *Engine) RunWithWorkers(ctx context.Context, entities []Entity, workers int) (*Report, error) {
	runID := uuid.NewString()
	start := time.Now()
	n := len(entities)

	if workers <= 0 {
		return nil, fmt.Errorf("%w (got %d)", domain.ErrInvalidWorkers, workers)
	}
	if n == 0 {
		e.logger.Warn("No entities to compare", "run_id", runID)
		return &Report{RunID: runID, Results: ResultSet{}, Pivots: domain.Pivots{0}}, nil
	}
	if workers > n {
		return nil, fmt.Errorf("%w: %d workers for %d entities", domain.ErrTooManyWorkers, workers, n)
	}

	pivots, err := partition.Partition(n, workers)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Starting pairwise comparison",
		"run_id", runID,
		"entities", n,
		"pairs", partition.TotalWork(n),
		"workers", workers,
		"pivots", pivots,
	)

	sigs := e.signatures(runID, entities)

	outputs, err := e.executor.Run(ctx, entities, pivots, sigs, e.calc)
	if err != nil {
		e.logger.Error("Pairwise comparison failed", "run_id", runID, "error", err)
		return nil, err
	}

	report := &Report{
		RunID:    runID,
		Results:  aggregate.Merge(outputs, e.config.Sorted),
		Entities: n,
		Workers:  workers,
		Pivots:   pivots,
	}
	for _, out := range outputs {
		report.Pairs += out.Pairs
		report.Degenerate += out.Degenerate
	}
	report.Elapsed = time.Since(start)

	if report.Degenerate > 0 {
		e.logger.Warn("Empty encodings scored as 0", "run_id", runID, "pairs", report.Degenerate)
	}
	e.logger.Info("Pairwise comparison completed",
		"run_id", runID,
		"pairs", report.Pairs,
		"imbalance", partition.Imbalance(pivots),
		"duration", report.Elapsed,
	)
	return report, nil
}

// Compare returns the coefficient of two encodings.
func (e *Engine) Compare(a, b string) (float64, error) {
	return e.calc.Compute(e.signature(a), e.signature(b))
}

// Format renders a coefficient with the configured precision.
func (e *Engine) Format(coef float64) string {
	return e.calc.Format(coef)
}

// WarmUp exercises the engine once on synthetic data.
func (e *Engine) WarmUp(ctx context.Context) error {
	if e.warmed {
		e.logger.Debug("System already warmed up, skipping")
		return nil
	}

	cfg := warmup.DefaultWarmupConfig()
	cfg.BatchSize = max(cfg.BatchSize, e.config.Workers)
	mgr := warmup.NewManager(e.logger, cfg)
	mgr.RegisterCalculator(e)
	mgr.RegisterMatrix(e)
	if _, err := mgr.WarmUp(ctx); err != nil {
		return err
	}
	e.warmed = true
	return nil
}

// Close releases the logger if the engine created it.
func (e *Engine) Close() error {
	if e.ownsLogger {
		return e.logger.Close()
	}
	return nil
}

func (e *Engine) signatures(runID string, entities []Entity) []signature.Signature {
	if e.cache == nil {
		return signature.BuildAll(entities)
	}
	sigs, hits := e.cache.BuildAll(entities)
	e.logger.Debug("Signatures prepared", "run_id", runID, "cache_hits", hits, "entities", len(entities))
	return sigs
}

func (e *Engine) signature(encoding string) signature.Signature {
	if e.cache == nil {
		return signature.Build(encoding)
	}
	if sig, ok := e.cache.Get(encoding); ok {
		return sig
	}
	sig := signature.Build(encoding)
	e.cache.Add(encoding, sig)
	return sig
}
