package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/baditaflorin/go_tanimoto_similarity/internal/adapters/cache"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/adapters/loader"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/adapters/logger"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/adapters/normalizer"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/adapters/writer"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/config"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/domain"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/similarity"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/pool"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/ports"
	"github.com/baditaflorin/go_tanimoto_similarity/pkg/tanimoto"
	"github.com/valyala/fasthttp"
)

// Default configuration
const (
	DefaultPort           = 8080
	DefaultReadTimeout    = 30 * time.Second
	DefaultWriteTimeout   = 60 * time.Second
	DefaultRequestTimeout = 60 * time.Second
	DefaultMaxRequestSize = 10 * 1024 * 1024 // 10MB
	DefaultConcurrency    = 0                // 0 means use GOMAXPROCS
)

// CompareRequest is the body of POST /compare.
type CompareRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

// CompareResponse is returned by POST /compare.
type CompareResponse struct {
	Coefficient float64 `json:"coefficient"`
	Formatted   string  `json:"formatted"`
}

// MatrixResponse is returned by POST /matrix?format=json.
type MatrixResponse struct {
	RunID          string             `json:"run_id"`
	Entities       int                `json:"entities"`
	Workers        int                `json:"workers"`
	Pairs          int                `json:"pairs"`
	ProcessingTime string             `json:"processing_time"`
	Rows           []domain.ResultRow `json:"rows"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// server holds the components shared by every request.
type server struct {
	engine         *tanimoto.Engine
	loader         ports.EntityLoader
	writer         ports.ResultWriter
	logger         ports.Logger
	limits         *admission
	requestTimeout time.Duration
}

func main() {
	// Parse command-line flags
	port := flag.Int("port", DefaultPort, "HTTP server port")
	readTimeout := flag.Duration("read-timeout", DefaultReadTimeout, "HTTP read timeout")
	writeTimeout := flag.Duration("write-timeout", DefaultWriteTimeout, "HTTP write timeout")
	requestTimeout := flag.Duration("request-timeout", DefaultRequestTimeout, "Maximum duration of one comparison")
	maxRequestSize := flag.Int("max-request-size", DefaultMaxRequestSize, "Maximum request size in bytes")
	concurrency := flag.Int("concurrency", DefaultConcurrency, "Maximum number of concurrent requests (0 = GOMAXPROCS)")
	maxWorkers := flag.Int64("max-workers", 0, "Maximum workers across concurrent /matrix runs (0 = unlimited)")
	rateLimit := flag.Float64("rate-limit", 0, "Maximum requests per second (0 = unlimited)")
	warmUp := flag.Bool("warm-up", true, "Perform system warm-up on startup")
	configPath := flag.String("config", "", "YAML configuration file")
	logFile := flag.String("log-file", "", "Log file path (empty = stdout)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err == nil {
		if *logFile != "" {
			cfg.LogFile = *logFile
		}
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	lg, err := logger.New(logger.Options{Path: cfg.LogFile, Output: os.Stdout, JSON: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Close()

	lg.Info("Starting similarity HTTP server",
		"port", *port,
		"read_timeout", *readTimeout,
		"write_timeout", *writeTimeout,
		"max_request_size", *maxRequestSize,
		"concurrency", *concurrency,
		"workers", cfg.Workers,
	)

	srv, err := newServer(cfg, lg, *warmUp)
	if err != nil {
		lg.Error("Failed to initialize similarity engine", "error", err)
		os.Exit(1)
	}
	srv.requestTimeout = *requestTimeout
	srv.limits = newAdmission(*maxWorkers, *rateLimit)
	defer srv.engine.Close()

	// Create HTTP server with fasthttp
	httpServer := &fasthttp.Server{
		Handler:               srv.requestHandler,
		ReadTimeout:           *readTimeout,
		WriteTimeout:          *writeTimeout,
		MaxRequestBodySize:    *maxRequestSize,
		Concurrency:           *concurrency,
		TCPKeepalive:          true,
		TCPKeepalivePeriod:    3 * time.Minute,
		MaxIdleWorkerDuration: 10 * time.Second,
	}

	// Set up graceful shutdown
	idleConnsClosed := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		lg.Info("Shutting down server...")
		if err := httpServer.Shutdown(); err != nil {
			lg.Error("Error during server shutdown", "error", err)
		}
		close(idleConnsClosed)
	}()

	// Start server
	lg.Info("Server listening", "address", fmt.Sprintf(":%d", *port))
	if err := httpServer.ListenAndServe(fmt.Sprintf(":%d", *port)); err != nil {
		lg.Error("Server error", "error", err)
		return
	}

	<-idleConnsClosed
	lg.Info("Server stopped")
}

// newServer builds the shared engine. Signatures are cached across requests.
func newServer(cfg config.Config, lg ports.Logger, warmUp bool) (*server, error) {
	rounding, err := similarity.ParseRoundingMode(cfg.Rounding)
	if err != nil {
		return nil, err
	}
	normType, err := normalizer.ParseType(cfg.Normalizer)
	if err != nil {
		return nil, err
	}
	cacheSize := cfg.CacheSize
	if cacheSize == 0 {
		cacheSize = cache.DefaultSize
	}

	engine, err := tanimoto.New(
		tanimoto.WithWorkers(cfg.Workers),
		tanimoto.WithPrecision(cfg.Precision),
		tanimoto.WithRounding(rounding),
		tanimoto.WithSorted(cfg.Sorted),
		tanimoto.WithStrict(cfg.Strict),
		tanimoto.WithTimeout(cfg.Timeout),
		tanimoto.WithSignatureCache(cacheSize),
		tanimoto.WithEngineLogger(lg),
		tanimoto.WithWarmUp(warmUp),
	)
	if err != nil {
		return nil, err
	}

	lg.Info("Similarity engine initialized successfully",
		"warm_up", warmUp,
		"workers", engine.Workers(),
		"cache_size", cacheSize,
	)

	return &server{
		engine:         engine,
		loader:         loader.NewTSVLoader(loader.Config{SkipHeader: cfg.SkipHeader}, lg, normalizer.New(normType)),
		writer:         writer.NewTSVWriter(writer.Config{Precision: cfg.Precision}, lg, pool.NewBufferPool(pool.DefaultBufferSize)),
		logger:         lg,
		requestTimeout: DefaultRequestTimeout,
	}, nil
}

// requestHandler is the main fasthttp request handler
func (s *server) requestHandler(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	// Set common headers
	ctx.Response.Header.Set("Content-Type", "application/json")
	ctx.Response.Header.Set("Server", "TanimotoServer")

	// Health checks bypass the rate limit
	path := string(ctx.Path())
	if path != "/health" && !s.limits.allow() {
		ctx.SetStatusCode(fasthttp.StatusTooManyRequests)
		s.writeJSONError(ctx, "Rate limit exceeded")
	} else {
		s.route(ctx, path)
	}

	s.logger.Info("Request processed",
		"method", string(ctx.Method()),
		"path", string(ctx.Path()),
		"status", ctx.Response.StatusCode(),
		"ip", ctx.RemoteIP().String(),
		"duration", time.Since(startTime),
	)
}

func (s *server) route(ctx *fasthttp.RequestCtx, path string) {
	switch path {
	case "/health":
		s.handleHealthCheck(ctx)
	case "/compare":
		s.handleCompare(ctx)
	case "/matrix":
		s.handleMatrix(ctx)
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
		s.writeJSONError(ctx, "Not found")
	}
}

// handleHealthCheck responds to health check requests
func (s *server) handleHealthCheck(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(fasthttp.StatusOK)
	s.writeJSONResponse(ctx, map[string]interface{}{
		"status":  "ok",
		"workers": s.engine.Workers(),
		"time":    time.Now().Format(time.RFC3339),
	})
}

// handleCompare scores a single pair of encodings.
func (s *server) handleCompare(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		s.writeJSONError(ctx, "Method not allowed")
		return
	}

	var req CompareRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
		s.writeJSONError(ctx, "Invalid request: "+err.Error())
		return
	}

	coef, err := s.engine.Compare(req.A, req.B)
	if err != nil {
		s.writeFailure(ctx, err)
		return
	}

	ctx.SetStatusCode(fasthttp.StatusOK)
	s.writeJSONResponse(ctx, CompareResponse{
		Coefficient: coef,
		Formatted:   s.engine.Format(coef),
	})
}

// handleMatrix computes the full table of a TSV body.
func (s *server) handleMatrix(ctx *fasthttp.RequestCtx) {
	if !ctx.IsPost() {
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		s.writeJSONError(ctx, "Method not allowed")
		return
	}

	workers := s.engine.Workers()
	if raw := ctx.QueryArgs().Peek("workers"); len(raw) > 0 {
		n, err := strconv.Atoi(string(raw))
		if err != nil {
			ctx.SetStatusCode(fasthttp.StatusBadRequest)
			s.writeJSONError(ctx, "Invalid workers: "+err.Error())
			return
		}
		workers = n
	}
	if workers <= 0 {
		s.writeFailure(ctx, fmt.Errorf("%w (got %d)", domain.ErrInvalidWorkers, workers))
		return
	}

	release, ok := s.limits.acquire(workers)
	if !ok {
		ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
		s.writeJSONError(ctx, "Too many concurrent comparisons")
		return
	}
	defer release()

	c, cancel := context.WithTimeout(context.Background(), s.requestTimeout)
	defer cancel()

	entities, err := s.loader.Load(c, bytes.NewReader(ctx.PostBody()))
	if err != nil {
		s.writeFailure(ctx, err)
		return
	}

	report, err := s.engine.RunWithWorkers(c, entities, workers)
	if err != nil {
		s.writeFailure(ctx, err)
		return
	}

	if string(ctx.QueryArgs().Peek("format")) == "json" {
		ctx.SetStatusCode(fasthttp.StatusOK)
		s.writeJSONResponse(ctx, MatrixResponse{
			RunID:          report.RunID,
			Entities:       report.Entities,
			Workers:        report.Workers,
			Pairs:          report.Pairs,
			ProcessingTime: report.Elapsed.String(),
			Rows:           report.Results,
		})
		return
	}

	ctx.Response.Header.Set("Content-Type", "text/tab-separated-values")
	ctx.Response.Header.Set("X-Run-Id", report.RunID)
	ctx.SetStatusCode(fasthttp.StatusOK)
	if err := s.writer.Write(c, ctx, report.Results, report.Elapsed); err != nil {
		ctx.ResetBody()
		ctx.Response.Header.Set("Content-Type", "application/json")
		s.writeFailure(ctx, err)
	}
}

// writeFailure maps an engine error to a status code.
func (s *server) writeFailure(ctx *fasthttp.RequestCtx, err error) {
	var parseErr *domain.ParseError
	switch {
	case errors.As(err, &parseErr),
		errors.Is(err, domain.ErrInvalidWorkers),
		errors.Is(err, domain.ErrTooManyWorkers):
		ctx.SetStatusCode(fasthttp.StatusBadRequest)
	case errors.Is(err, domain.ErrDegenerate):
		ctx.SetStatusCode(fasthttp.StatusUnprocessableEntity)
	case errors.Is(err, domain.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		ctx.SetStatusCode(fasthttp.StatusGatewayTimeout)
	default:
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		s.logger.Error("Request failed", "path", string(ctx.Path()), "error", err)
	}
	s.writeJSONError(ctx, err.Error())
}

// writeJSONResponse writes a JSON response to the context
func (s *server) writeJSONResponse(ctx *fasthttp.RequestCtx, data interface{}) {
	response, err := json.Marshal(data)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		s.logger.Error("Error marshaling JSON response", "error", err)
		s.writeJSONError(ctx, "Internal server error")
		return
	}

	ctx.SetBody(response)
}

// writeJSONError writes a JSON error response to the context
func (s *server) writeJSONError(ctx *fasthttp.RequestCtx, message string) {
	response, err := json.Marshal(ErrorResponse{Error: message})
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		s.logger.Error("Error marshaling JSON error response", "error", err)
		ctx.SetBodyString(`{"error":"Internal server error"}`)
		return
	}

	ctx.SetBody(response)
}
