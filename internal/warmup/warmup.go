package warmup

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/domain"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/ports"
)

// WarmupConfig defines configuration for warming up the system
type WarmupConfig struct {
	// Number of concurrent warmup routines to run
	Concurrency int
	// Number of pair comparisons per routine
	Iterations int
	// Number of synthetic entities in each warmup batch
	BatchSize int
	// Number of batch runs per matrix calculator
	Batches int
	// Warmup duration (0 means no time limit)
	Duration time.Duration
	// Whether to perform GC after warmup
	ForceGC bool
}

// DefaultWarmupConfig returns the default warmup configuration
func DefaultWarmupConfig() WarmupConfig {
	return WarmupConfig{
		Concurrency: runtime.NumCPU(),
		Iterations:  1000,
		BatchSize:   200,
		Batches:     2,
		Duration:    5 * time.Second,
		ForceGC:     true,
	}
}

// Stats summarises what the warmup exercised.
type Stats struct {
	Comparisons int64
	// Failures counts pair comparisons that returned an error.
	Failures    int64
	Batches     int
	Duration    time.Duration
}

// Manager handles system warmup operations
type Manager struct {
	logger      ports.Logger
	calculators []ports.SimilarityCalculator
	matrices    []ports.MatrixCalculator
	config      WarmupConfig
}

// NewManager creates a new warmup manager
func NewManager(logger ports.Logger, config WarmupConfig) *Manager {
	if logger == nil {
		logger = ports.NopLogger{}
	}
	return &Manager{
		logger: logger,
		config: config,
	}
}

// RegisterCalculator adds a pair calculator to be warmed up
func (wm *Manager) RegisterCalculator(calc ports.SimilarityCalculator) {
	wm.calculators = append(wm.calculators, calc)
}

// RegisterMatrix adds a batch calculator to be warmed up
func (wm *Manager) RegisterMatrix(m ports.MatrixCalculator) {
	wm.matrices = append(wm.matrices, m)
}

// WarmUp runs the warmup process for all registered components
func (wm *Manager) WarmUp(ctx context.Context) (Stats, error) {
	startTime := time.Now()
	wm.logger.Info("Starting system warmup",
		"components", len(wm.calculators)+len(wm.matrices),
		"concurrency", wm.config.Concurrency,
		"iterations", wm.config.Iterations,
	)

	warmupCtx := ctx
	if wm.config.Duration > 0 {
		var cancel context.CancelFunc
		warmupCtx, cancel = context.WithTimeout(ctx, wm.config.Duration)
		defer cancel()
	}

	var stats Stats
	stats.Comparisons, stats.Failures = wm.warmUpCalculators(warmupCtx)

	batches, err := wm.warmUpMatrices(warmupCtx)
	stats.Batches = batches
	if err != nil {
		return stats, err
	}

	if wm.config.ForceGC {
		wm.logger.Debug("Forcing garbage collection after warmup")
		runtime.GC()
	}

	stats.Duration = time.Since(startTime)
	wm.logger.Info("System warmup completed",
		"comparisons", stats.Comparisons,
		"failures", stats.Failures,
		"batches", stats.Batches,
		"duration", stats.Duration,
	)
	return stats, nil
}

// warmUpCalculators runs pair comparisons concurrently and returns how many
// ran and how many failed
func (wm *Manager) warmUpCalculators(ctx context.Context) (int64, int64) {
	if len(wm.calculators) == 0 {
		return 0, 0
	}

	wm.logger.Debug("Warming up calculators", "count", len(wm.calculators))

	samples := GenerateEncodings(64)
	counts := make([]int64, max(wm.config.Concurrency, 1))
	failures := make([]int64, len(counts))

	var wg sync.WaitGroup
	for i := range counts {
		wg.Add(1)
		go func(routineID int) {
			defer wg.Done()

			for j := 0; j < wm.config.Iterations; j++ {
				select {
				case <-ctx.Done():
					return
				default:
				}

				a := samples[(routineID+j)%len(samples)]
				b := samples[(routineID*7+j*3)%len(samples)]
				for _, calculator := range wm.calculators {
					if _, err := calculator.Compare(a, b); err != nil {
						if failures[routineID] == 0 {
							wm.logger.Debug("Warmup comparison failed", "routine", routineID, "error", err)
						}
						failures[routineID]++
					}
					counts[routineID]++
				}
			}
		}(i)
	}

	wg.Wait()

	var total, failed int64
	for i := range counts {
		total += counts[i]
		failed += failures[i]
	}
	return total, failed
}

// warmUpMatrices runs small synthetic batches through every matrix calculator
// and checks that each produced the expected number of pairs.
func (wm *Manager) warmUpMatrices(ctx context.Context) (int, error) {
	if len(wm.matrices) == 0 || wm.config.BatchSize < 2 {
		return 0, nil
	}

	wm.logger.Debug("Warming up matrix calculators", "count", len(wm.matrices))

	entities := GenerateEntities(wm.config.BatchSize)
	expected := len(entities) * (len(entities) - 1) / 2
	batches := 0
	for _, m := range wm.matrices {
		for b := 0; b < wm.config.Batches; b++ {
			if ctx.Err() != nil {
				return batches, nil
			}
			report, err := m.Run(ctx, entities)
			if err != nil {
				if ctx.Err() != nil {
					return batches, nil
				}
				return batches, fmt.Errorf("warmup batch: %w", err)
			}
			if len(report.Results) != expected {
				return batches, fmt.Errorf("warmup batch produced %d pairs, expected %d", len(report.Results), expected)
			}
			batches++
		}
	}
	return batches, nil
}

// Helper functions for generating test data

// GenerateEncodings creates n SMILES-like strings of varying composition
func GenerateEncodings(n int) []string {
	fragments := []string{
		"C", "CC", "O", "N", "C(=O)O", "c1ccccc1", "[C@@H]", "[C@H]",
		"Cl", "Br", "S(=O)(=O)", "C#N", "OC", "N(C)C", "F", "c1ccncc1",
	}

	encodings := make([]string, n)
	var sb strings.Builder
	for i := range encodings {
		sb.Reset()
		parts := 1 + i%6
		for k := 0; k < parts; k++ {
			sb.WriteString(fragments[(i*5+k*3)%len(fragments)])
		}
		encodings[i] = sb.String()
	}
	return encodings
}

// GenerateEntities wraps GenerateEncodings with synthetic identifiers
func GenerateEntities(n int) []domain.Entity {
	encodings := GenerateEncodings(n)
	entities := make([]domain.Entity, n)
	for i, enc := range encodings {
		entities[i] = domain.Entity{ID: fmt.Sprintf("WARMUP%06d", i), Encoding: enc}
	}
	return entities
}
