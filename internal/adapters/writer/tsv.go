// Package writer renders the similarity table as tab-separated text.
package writer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/baditaflorin/go_tanimoto_similarity/internal/adapters/compression"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/domain"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/core/similarity"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/pool"
	"github.com/baditaflorin/go_tanimoto_similarity/internal/ports"
)

// Header is the first line of every table.
const Header = "Chem_ID_1\tChem_ID_2\tTanimoto_similarity\n"

// flushEvery bounds how many bytes are formatted before handing them to the writer.
const flushEvery = 32 * 1024

// Config holds writer settings.
type Config struct {
	Precision int
	// Summary appends "Total time = <seconds> [s]".
	Summary bool
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{Precision: similarity.DefaultPrecision}
}

// TSVWriter writes result sets.
type TSVWriter struct {
	config Config
	logger ports.Logger
	pool   *pool.BufferPool
}

// NewTSVWriter creates a writer. A nil pool gets a private one.
func NewTSVWriter(config Config, logger ports.Logger, bufPool *pool.BufferPool) *TSVWriter {
	if logger == nil {
		logger = ports.NopLogger{}
	}
	if bufPool == nil {
		bufPool = pool.NewBufferPool(flushEvery)
	}
	return &TSVWriter{config: config, logger: logger, pool: bufPool}
}

// Write renders rs to w.
func (t *TSVWriter) Write(ctx context.Context, w io.Writer, rs domain.ResultSet, elapsed time.Duration) error {
	bw := bufio.NewWriterSize(w, 64*1024)
	if _, err := bw.WriteString(Header); err != nil {
		return err
	}

	buf := t.pool.Get()
	defer t.pool.Put(buf)

	for i, row := range rs {
		*buf = AppendRow(*buf, row, t.config.Precision)
		if len(*buf) >= flushEvery {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := bw.Write(*buf); err != nil {
				return fmt.Errorf("write row %d: %w", i, err)
			}
			*buf = (*buf)[:0]
		}
	}
	if _, err := bw.Write(*buf); err != nil {
		return err
	}

	if t.config.Summary {
		if _, err := bw.WriteString(Summary(elapsed)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DefaultFileMode is applied to new tables. An existing table keeps its mode.
const DefaultFileMode os.FileMode = 0o644

// WriteFile writes rs to path through a temporary file that is renamed on
// success, so a failed write never leaves a partial table behind.
func (t *TSVWriter) WriteFile(ctx context.Context, path string, rs domain.ResultSet, elapsed time.Duration) (err error) {
	mode := DefaultFileMode
	if st, statErr := os.Stat(path); statErr == nil && st.Mode().IsRegular() {
		mode = st.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	codec := compression.FromPath(path)
	cw, err := compression.NewWriter(tmp, codec)
	if err != nil {
		return fmt.Errorf("open %s stream: %w", codec, err)
	}
	if err = t.Write(ctx, cw, rs, elapsed); err != nil {
		cw.Close()
		return err
	}
	if err = cw.Close(); err != nil {
		return err
	}
	if err = tmp.Chmod(mode); err != nil {
		return fmt.Errorf("chmod output: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename output: %w", err)
	}

	t.logger.Info("Wrote similarity table", "path", path, "codec", codec.String(), "rows", len(rs))
	return nil
}

// AppendRow appends "idA\tidB\tcoef\n" to dst.
func AppendRow(dst []byte, row domain.ResultRow, precision int) []byte {
	dst = append(dst, row.IDA...)
	dst = append(dst, '\t')
	dst = append(dst, row.IDB...)
	dst = append(dst, '\t')
	dst = similarity.AppendFormat(dst, row.Coefficient, precision)
	return append(dst, '\n')
}

// Summary renders the trailing timing line.
func Summary(elapsed time.Duration) string {
	return "Total time = " + strconv.FormatFloat(elapsed.Seconds(), 'f', 6, 64) + " [s]\n"
}
