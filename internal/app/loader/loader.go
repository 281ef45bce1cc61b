// Package loader ingests course records into the search index. It reads a
// JSON or YAML course list (the embedded sample catalog by default),
// validates it and upserts it in batches inside one transaction.
package loader

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/heartmarshall/course-search/internal/config"
	"github.com/heartmarshall/course-search/internal/domain"
)

//go:embed data/sample-courses.json
var sampleCourses []byte

// SampleSource names the embedded catalog in logs and results.
const SampleSource = "embedded:sample-courses.json"

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type courseWriter interface {
	Upsert(ctx context.Context, courses []domain.Course) (int64, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Loader
// ---------------------------------------------------------------------------

// Result describes a completed load.
type Result struct {
	Source     string
	Read       int
	Duplicates int
	Written    int64
	Batches    int
	Duration   time.Duration
}

// Loader bulk-loads courses.
type Loader struct {
	log     *slog.Logger
	courses courseWriter
	tx      txManager
	cfg     config.LoaderConfig
}

// New creates a new Loader.
func New(logger *slog.Logger, courses courseWriter, tx txManager, cfg config.LoaderConfig) *Loader {
	return &Loader{
		log:     logger.With("component", "loader"),
		courses: courses,
		tx:      tx,
		cfg:     cfg,
	}
}

// Load ingests the configured seed file, or the embedded sample catalog
// when none is configured.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	if l.cfg.SeedFile == "" {
		return l.LoadReader(ctx, SampleSource, bytes.NewReader(sampleCourses), FormatJSON)
	}
	return l.LoadFile(ctx, l.cfg.SeedFile)
}

// LoadFile ingests a JSON or YAML file, picking the format by extension.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open %s: %w", path, err)
	}
	defer f.Close()

	return l.LoadReader(ctx, path, f, FormatFromPath(path))
}

// LoadReader ingests courses decoded from r. Nothing is written unless every
// record is valid, and all batches commit or roll back together.
func (l *Loader) LoadReader(ctx context.Context, source string, r io.Reader, format Format) (*Result, error) {
	start := time.Now()

	courses, err := Decode(r, format)
	if err != nil {
		return nil, fmt.Errorf("loader: %s: %w", source, err)
	}

	res := &Result{Source: source, Read: len(courses)}
	courses, res.Duplicates = dedupe(courses)
	if res.Duplicates > 0 {
		l.log.WarnContext(ctx, "duplicate course ids, last record wins",
			slog.String("source", source),
			slog.Int("duplicates", res.Duplicates),
		)
	}

	batchSize := l.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = len(courses)
	}

	err = l.tx.RunInTx(ctx, func(ctx context.Context) error {
		res.Written, res.Batches = 0, 0
		for from := 0; from < len(courses); from += batchSize {
			to := min(from+batchSize, len(courses))

			n, err := l.courses.Upsert(ctx, courses[from:to])
			if err != nil {
				return fmt.Errorf("upsert batch %d: %w", res.Batches+1, err)
			}
			res.Written += n
			res.Batches++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loader: %s: %w", source, err)
	}

	res.Duration = time.Since(start)
	l.log.InfoContext(ctx, "indexed courses",
		slog.String("source", source),
		slog.Int64("count", res.Written),
		slog.Int("batches", res.Batches),
		slog.Duration("took", res.Duration),
	)

	return res, nil
}
