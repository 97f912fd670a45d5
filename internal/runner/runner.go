// Package runner converts a batch of sources concurrently, one isolated
// pipeline per source.
package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/xxxbrian/ruleset-converter/internal/converter"
	"github.com/xxxbrian/ruleset-converter/internal/output"
)

// Fetcher supplies the raw text of a source.
type Fetcher interface {
	Fetch(ctx context.Context, source string) (string, error)
}

// Writer persists a rendered document and returns its path.
type Writer interface {
	Write(source string, data []byte) (string, error)
}

// Compiler turns a persisted document into a compiled artifact.
type Compiler interface {
	Compile(ctx context.Context, jsonPath string) (string, error)
}

// Result is the outcome for one source.
type Result struct {
	Source   string
	JSONPath string
	SRSPath  string
	Err      error
}

// Runner wires fetch, convert, persist and compile for each source.
type Runner struct {
	fetcher  Fetcher
	writer   Writer
	compiler Compiler // nil skips compilation
	opts     converter.Options
	workers  int
}

// New creates a Runner. workers <= 0 runs one worker per source.
func New(f Fetcher, w Writer, c Compiler, opts converter.Options, workers int) *Runner {
	return &Runner{
		fetcher:  f,
		writer:   w,
		compiler: c,
		opts:     opts,
		workers:  workers,
	}
}

// Run processes every source and returns one result per source, in order.
// A failing source never stops the others. When several sources map to the
// same output file, the first one keeps it and the rest fail with an
// *output.CollisionError without being fetched.
func (r *Runner) Run(ctx context.Context, sources []string) []Result {
	results := make([]Result, len(sources))
	if len(sources) == 0 {
		return results
	}

	logger := slog.With("run_id", uuid.NewString())
	logger.Info("run started", "sources", len(sources))

	limit := r.workers
	if limit <= 0 || limit > len(sources) {
		limit = len(sources)
	}

	skip := make([]bool, len(sources))
	owners := make(map[string]string, len(sources))
	for i, source := range sources {
		name := output.FileName(source)
		owner, taken := owners[name]
		if !taken {
			owners[name] = source
			continue
		}
		skip[i] = true
		results[i] = Result{Source: source, Err: &output.CollisionError{Name: name, Source: source, Owner: owner}}
		logger.Error("output name collision", "source", source, "name", name, "owner", owner)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, source := range sources {
		if skip[i] {
			continue
		}
		g.Go(func() error {
			results[i] = r.process(ctx, logger.With("source", source), source)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	logger.Info("run finished", "sources", len(sources), "failed", failed)
	return results
}

func (r *Runner) process(ctx context.Context, logger *slog.Logger, source string) Result {
	res := Result{Source: source}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	raw, err := r.fetcher.Fetch(ctx, source)
	if err != nil {
		res.Err = err
		logger.Error("fetch failed", "err", err)
		return res
	}

	opts := r.opts
	if opts.Warn == nil {
		opts.Warn = func(err error) { logger.Warn("recovered conversion problem", "err", err) }
	}
	doc := converter.NewConverter(opts).Document(source, raw)
	data, err := converter.Render(doc)
	if err != nil {
		res.Err = fmt.Errorf("render %s: %w", source, err)
		logger.Error("render failed", "err", err)
		return res
	}

	res.JSONPath, err = r.writer.Write(source, data)
	if err != nil {
		res.Err = err
		logger.Error("write failed", "err", err)
		return res
	}

	if r.compiler != nil {
		res.SRSPath, err = r.compiler.Compile(ctx, res.JSONPath)
		if err != nil {
			res.Err = err
			logger.Error("compile failed", "path", res.JSONPath, "err", err)
			return res
		}
	}

	logger.Info("source converted", "rules", len(doc.Rules), "path", res.JSONPath)
	return res
}
