// Package batch parses many C-scan files concurrently.
//
// A file that fails to parse is reported and skipped; it never aborts the
// rest of the batch. Results keep the order of the input files.
package batch

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"cscanfuse/internal/models"
	"cscanfuse/pkg/composite"
	"cscanfuse/pkg/parser"
)

// RawFile is the content of one scan file and its display name
type RawFile struct {
	Name    string
	Content string
}

// ProgressFunc is invoked after each file completes, successfully or not.
// Calls are serialized and completed increases by one on each call.
type ProgressFunc func(completed, total int)

// Failure records a file that could not be parsed
type Failure struct {
	Name string
	Err  error
}

// Result holds the outcome of a batch
type Result struct {
	// Records are the successfully parsed scans, in input order
	Records []*models.ScanRecord

	// Failures lists the files that were skipped, in input order
	Failures []Failure
}

// ParseFunc parses one file; parser.Parse is the default
type ParseFunc func(filename, content string) (*models.ScanRecord, error)

// Processor runs batches of file parses
type Processor struct {
	workers  int
	progress ProgressFunc
	logger   *slog.Logger
	parse    ParseFunc
}

// Option configures a Processor
type Option func(*Processor)

// WithWorkers limits how many files are parsed at once
func WithWorkers(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithProgress sets the progress callback
func WithProgress(fn ProgressFunc) Option {
	return func(p *Processor) {
		p.progress = fn
	}
}

// WithLogger sets the logger used to report failed files
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithParser replaces the parse function, e.g. with a custom parser.Parser
func WithParser(fn ParseFunc) Option {
	return func(p *Processor) {
		if fn != nil {
			p.parse = fn
		}
	}
}

// NewProcessor creates a processor using all available cores by default
func NewProcessor(opts ...Option) *Processor {
	p := &Processor{
		workers: runtime.NumCPU(),
		logger:  slog.Default(),
		parse:   parser.Parse,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process parses every file. Parse failures are logged and collected in
// Result.Failures; the returned error is non-nil only when ctx is
// cancelled, in which case the partial result is still returned.
func (p *Processor) Process(ctx context.Context, files []RawFile) (Result, error) {
	total := len(files)
	records := make([]*models.ScanRecord, total)
	errs := make([]error, total)

	var mu sync.Mutex
	completed := 0
	done := func() {
		mu.Lock()
		defer mu.Unlock()
		completed++
		if p.progress != nil {
			p.progress(completed, total)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, file := range files {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			defer done()

			rec, err := p.parse(file.Name, file.Content)
			if err != nil {
				p.logger.Warn("Skipping scan file",
					slog.String("file", file.Name),
					slog.Any("error", err))
				errs[i] = err
				return nil
			}

			p.logger.Debug("Parsed scan file",
				slog.String("file", file.Name),
				slog.Int("width", rec.Width),
				slog.Int("height", rec.Height),
				slog.Int("valid_points", rec.ValidPoints))
			records[i] = rec
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	var result Result
	for i, rec := range records {
		switch {
		case rec != nil:
			result.Records = append(result.Records, rec)
		case errs[i] != nil:
			result.Failures = append(result.Failures, Failure{Name: files[i].Name, Err: errs[i]})
		}
	}

	return result, err
}

// ParseAll parses files with a default processor and returns the records
// that parsed successfully. progress may be nil.
func ParseAll(files []RawFile, progress ProgressFunc) []*models.ScanRecord {
	result, _ := NewProcessor(WithProgress(progress)).Process(context.Background(), files)
	return result.Records
}

// Composite merges the parsed records; ok is false with fewer than two
func (r Result) Composite() (*models.ScanRecord, bool) {
	return composite.Compose(r.Records)
}
