package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/baditaflorin/go_tanimoto_similarity/internal/ports"
	"github.com/baditaflorin/l"
)

// Options selects where and how log lines are written.
type Options struct {
	// Path of a log file. Empty means Output (or stderr).
	Path string
	// Output is used when Path is empty.
	Output io.Writer
	JSON   bool
}

// StdLogger adapts l.Logger to ports.Logger.
type StdLogger struct {
	logger l.Logger
	file   *os.File
}

// NewStdLogger creates a logger writing text lines to stderr, leaving stdout
// free for result tables.
func NewStdLogger() (ports.Logger, error) {
	return New(Options{Output: os.Stderr})
}

// New creates a logger from the given options.
func New(opts Options) (ports.Logger, error) {
	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	var file *os.File
	if opts.Path != "" {
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		file = f
		output = f
	}

	logger, err := l.NewStandardFactory().CreateLogger(l.Config{
		Output:      output,
		JsonFormat:  opts.JSON,
		AsyncWrite:  true,
		BufferSize:  1024 * 1024,      // 1MB buffer
		MaxFileSize: 10 * 1024 * 1024, // 10MB max file size
		MaxBackups:  5,
		AddSource:   true,
		Metrics:     true,
	})
	if err != nil {
		if file != nil {
			file.Close()
		}
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &StdLogger{logger: logger, file: file}, nil
}

// FromExisting wraps an already configured l.Logger.
func FromExisting(logger l.Logger) ports.Logger {
	return &StdLogger{logger: logger}
}

func (s *StdLogger) Debug(msg string, keysAndValues ...interface{}) {
	s.logger.Debug(msg, keysAndValues...)
}

func (s *StdLogger) Info(msg string, keysAndValues ...interface{}) {
	s.logger.Info(msg, keysAndValues...)
}

func (s *StdLogger) Warn(msg string, keysAndValues ...interface{}) {
	s.logger.Warn(msg, keysAndValues...)
}

func (s *StdLogger) Error(msg string, keysAndValues ...interface{}) {
	s.logger.Error(msg, keysAndValues...)
}

// Close flushes the logger and closes the log file if one was opened.
func (s *StdLogger) Close() error {
	err := s.logger.Close()
	if s.file != nil {
		if cerr := s.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
