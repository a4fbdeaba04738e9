// Command tanimoto computes the pairwise Tanimoto similarity table of a
// compound list.
//
// Usage:
//
//	tanimoto [flags] [workers]
//
// The input is a tab-separated file whose second column is the compound
// identifier and whose fourth column is its SMILES encoding. The output table
// has the header "Chem_ID_1\tChem_ID_2\tTanimoto_similarity" and one row per
// unordered pair.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/baditaflorin/go_tanimoto_similarity/internal/adapters/logger"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/adapters/loader"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/adapters/normalizer"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/adapters/writer"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/config"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/similarity"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/ports"
	"github.com/baditaflorin/go_tanimoto_similarity/pkg/tanimoto"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// run executes one batch. stdout receives the table when the output is "-".
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}

	lg, err := logger.New(logger.Options{Path: cfg.LogFile, Output: stderr, JSON: cfg.LogJSON})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer lg.Close()

	return execute(ctx, cfg, lg, stdout)
}

// parseArgs resolves the configuration: defaults, then the -config file and
// environment, then explicitly set flags and the positional worker count.
func parseArgs(args []string, stderr io.Writer) (config.Config, error) {
	fs := flag.NewFlagSet("tanimoto", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: tanimoto [flags] [workers]")
		fs.PrintDefaults()
	}

	defaults := config.Default()
	configPath := fs.String("config", "", "YAML configuration file")
	input := fs.String("input", defaults.Input, "Input table (.gz, .zst and .lz4 are decompressed)")
	output := fs.String("output", defaults.Output, "Output table, - for stdout")
	logFile := fs.String("log-file", "", "Log file path (empty = stderr)")
	logJSON := fs.Bool("log-json", false, "Write log lines as JSON")
	skipHeader := fs.Bool("skip-header", false, "Skip the first input row")
	noSort := fs.Bool("no-sort", false, "Keep rows in worker order instead of sorting by identifier")
	timeout := fs.Duration("timeout", 0, "Abort the comparison after this long (0 = no limit)")
	summary := fs.Bool("summary", false, "Append the elapsed time to the table")
	precision := fs.Int("precision", defaults.Precision, "Decimal digits kept in coefficients")
	rounding := fs.String("rounding", defaults.Rounding, "Tie rounding: half-up or half-even")
	strict := fs.Bool("strict", false, "Fail when two encodings are both empty")
	norm := fs.String("normalizer", defaults.Normalizer, "Encoding cleanup: trim, raw or compact")

	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}
	if fs.NArg() > 1 {
		return config.Config{}, fmt.Errorf("expected at most one positional argument, got %d", fs.NArg())
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return cfg, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "input":
			cfg.Input = *input
		case "output":
			cfg.Output = *output
		case "log-file":
			cfg.LogFile = *logFile
		case "log-json":
			cfg.LogJSON = *logJSON
		case "skip-header":
			cfg.SkipHeader = *skipHeader
		case "no-sort":
			cfg.Sorted = !*noSort
		case "timeout":
			cfg.Timeout = *timeout
		case "summary":
			cfg.Summary = *summary
		case "precision":
			cfg.Precision = *precision
		case "rounding":
			cfg.Rounding = *rounding
		case "strict":
			cfg.Strict = *strict
		case "normalizer":
			cfg.Normalizer = *norm
		}
	})

	if fs.NArg() == 1 {
		n, err := strconv.Atoi(fs.Arg(0))
		if err != nil {
			return cfg, fmt.Errorf("invalid worker count %q: %w", fs.Arg(0), err)
		}
		cfg.Workers = n
	}

	return cfg, cfg.Validate()
}

// execute loads, compares and writes one table.
func execute(ctx context.Context, cfg config.Config, lg ports.Logger, stdout io.Writer) error {
	start := time.Now()

	rounding, err := similarity.ParseRoundingMode(cfg.Rounding)
	if err != nil {
		return err
	}
	normType, err := normalizer.ParseType(cfg.Normalizer)
	if err != nil {
		return err
	}

	var ld ports.EntityLoader = loader.NewTSVLoader(loader.Config{SkipHeader: cfg.SkipHeader}, lg, normalizer.New(normType))
	entities, err := ld.LoadFile(ctx, cfg.Input)
	if err != nil {
		return err
	}

	engine, err := tanimoto.New(
		tanimoto.WithWorkers(cfg.Workers),
		tanimoto.WithPrecision(cfg.Precision),
		tanimoto.WithRounding(rounding),
		tanimoto.WithSorted(cfg.Sorted),
		tanimoto.WithStrict(cfg.Strict),
		tanimoto.WithTimeout(cfg.Timeout),
		tanimoto.WithEngineLogger(lg),
	)
	if err != nil {
		return err
	}
	defer engine.Close()

	report, err := engine.Run(ctx, entities)
	if err != nil {
		if errors.Is(err, tanimoto.ErrTooManyWorkers) {
			return fmt.Errorf("%w; use at most %d workers", err, len(entities))
		}
		return err
	}

	if err := writeTable(ctx, cfg, lg, report, stdout); err != nil {
		return err
	}

	lg.Info("Done",
		"run_id", report.RunID,
		"entities", report.Entities,
		"rows", len(report.Results),
		"workers", report.Workers,
		"comparison", report.Elapsed,
		"duration", time.Since(start),
	)
	return nil
}

// writeTable writes the report to cfg.Output. The summary trailer carries the
// comparison time only, without loading and writing.
func writeTable(ctx context.Context, cfg config.Config, lg ports.Logger, report *tanimoto.Report, stdout io.Writer) error {
	var w ports.ResultWriter = writer.NewTSVWriter(writer.Config{Precision: cfg.Precision, Summary: cfg.Summary}, lg, nil)

	var err error
	if cfg.Output == "-" {
		err = w.Write(ctx, stdout, report.Results, report.Elapsed)
	} else {
		err = w.WriteFile(ctx, cfg.Output, report.Results, report.Elapsed)
	}
	if err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}
