// Package docugraph turns documents into knowledge graphs. A document is
// chunked, each chunk is sent to an extraction service, the per-chunk
// entities and relations are merged into one deduplicated graph, and the
// result is ingested into an isolated graph store namespace named after the
// document title.
package docugraph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/docugraph/docugraph/pkg/chunker"
	"github.com/docugraph/docugraph/pkg/driver"
	"github.com/docugraph/docugraph/pkg/extraction"
	"github.com/docugraph/docugraph/pkg/merge"
	"github.com/docugraph/docugraph/pkg/naming"
	"github.com/docugraph/docugraph/pkg/types"
)

// Options configures a Pipeline.
type Options struct {
	// ChunkSize is the maximum chunk length in characters before budget
	// fitting. Defaults to 3000.
	ChunkSize int
	// TokenLimit and SafetyMargin parameterize the budget fitter.
	// TokenLimit defaults to 4096, SafetyMargin to 256.
	TokenLimit   int
	SafetyMargin int
	// Workers is the number of chunks extracted concurrently. Defaults
	// to 1 (sequential).
	Workers int
	// MaxFailedChunkRatio tolerates up to this fraction of chunks failing
	// extraction before the whole run fails. 0 means any chunk failure
	// fails the run.
	MaxFailedChunkRatio float64
	Logger              *slog.Logger
}

// Pipeline wires the chunker, budget fitter, extractor, merge engine,
// naming service and graph driver into the document processing flow.
type Pipeline struct {
	driver    driver.GraphDriver
	extractor *extraction.Extractor
	fitter    *chunker.Fitter
	namer     *naming.Service
	logger    *slog.Logger

	chunkSize      int
	workers        int
	maxFailedRatio float64
}

// New creates a Pipeline on top of the given graph driver and extractor.
func New(drv driver.GraphDriver, ex *extraction.Extractor, opts Options) *Pipeline {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 3000
	}
	if opts.TokenLimit <= 0 {
		opts.TokenLimit = 4096
	}
	if opts.SafetyMargin <= 0 {
		opts.SafetyMargin = 256
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Pipeline{
		driver:         drv,
		extractor:      ex,
		fitter:         chunker.NewFitter(opts.TokenLimit, opts.SafetyMargin, extraction.EmptyTemplate()),
		namer:          naming.NewService(drv),
		logger:         opts.Logger,
		chunkSize:      opts.ChunkSize,
		workers:        opts.Workers,
		maxFailedRatio: opts.MaxFailedChunkRatio,
	}
}

// ProcessResult summarizes one completed document run.
type ProcessResult struct {
	RunID         string `json:"run_id"`
	Title         string `json:"title"`
	Namespace     string `json:"namespace"`
	EntityCount   int    `json:"entity_count"`
	RelationCount int    `json:"relation_count"`
	ChunksTotal   int    `json:"chunks_total"`
	ChunksFailed  int    `json:"chunks_failed"`
}

// ProcessDocument runs the full pipeline over a document's raw text and
// returns a summary of what was ingested. An empty document still produces a
// namespace holding an empty graph.
func (p *Pipeline) ProcessDocument(ctx context.Context, text string) (*ProcessResult, error) {
	runID := uuid.New().String()
	logger := p.logger.With("run_id", runID)

	chunks := make([]string, 0, len(text)/p.chunkSize+1)
	for chunk := range chunker.Chunk(text, p.chunkSize) {
		chunks = append(chunks, p.fitter.Fit(chunk))
	}
	logger.Info("ingest: document chunked", "chunks", len(chunks))

	results, failed, err := p.extractAll(ctx, logger, chunks)
	if err != nil {
		return nil, err
	}

	merged := merge.Merge(results)
	logger.Info("ingest: chunks merged",
		"title", merged.Title,
		"entities", len(merged.Entities),
		"relations", len(merged.Relations))

	namespace := p.provisionNamespace(ctx, logger, merged.Title)

	if err := p.driver.UpsertEntities(ctx, namespace, merged.Entities); err != nil {
		return nil, &StageError{Stage: "ingest", ChunksOK: len(chunks) - failed, Err: err}
	}
	if err := p.driver.UpsertRelations(ctx, namespace, merged.Relations); err != nil {
		return nil, &StageError{Stage: "ingest", ChunksOK: len(chunks) - failed, Err: err}
	}
	logger.Info("ingest: graph stored", "namespace", namespace)

	return &ProcessResult{
		RunID:         runID,
		Title:         merged.Title,
		Namespace:     namespace,
		EntityCount:   len(merged.Entities),
		RelationCount: len(merged.Relations),
		ChunksTotal:   len(chunks),
		ChunksFailed:  failed,
	}, nil
}

// extractAll runs extraction over all chunks, sequentially or with a worker
// pool, and applies the failed-chunk policy. Failed chunks contribute empty
// results so that merge output stays deterministic in chunk order.
func (p *Pipeline) extractAll(ctx context.Context, logger *slog.Logger, chunks []string) ([]types.ChunkResult, int, error) {
	results := make([]types.ChunkResult, len(chunks))
	errs := make([]error, len(chunks))

	if p.workers <= 1 || len(chunks) <= 1 {
		for i, chunk := range chunks {
			result, err := p.extractor.Extract(ctx, chunk)
			if err != nil {
				errs[i] = err
				continue
			}
			results[i] = *result
		}
	} else {
		var wg sync.WaitGroup
		sem := make(chan struct{}, p.workers)
		for i, chunk := range chunks {
			wg.Add(1)
			sem <- struct{}{}
			go func(i int, chunk string) {
				defer wg.Done()
				defer func() { <-sem }()
				result, err := p.extractor.Extract(ctx, chunk)
				if err != nil {
					errs[i] = err
					return
				}
				results[i] = *result
			}(i, chunk)
		}
		wg.Wait()
	}

	failed := 0
	var firstErr error
	for i, err := range errs {
		if err == nil {
			continue
		}
		failed++
		if firstErr == nil {
			firstErr = err
		}
		logger.Warn("ingest: chunk extraction failed", "chunk", i, "error", err)
	}

	if failed > 0 && float64(failed) > p.maxFailedRatio*float64(len(chunks)) {
		return nil, failed, &StageError{Stage: "extract", ChunksOK: len(chunks) - failed, Err: firstErr}
	}
	return results, failed, nil
}

// provisionNamespace derives and uniquifies the namespace name from the
// document title and provisions it. A provisioning failure falls back to the
// driver's shared default namespace instead of failing the run.
func (p *Pipeline) provisionNamespace(ctx context.Context, logger *slog.Logger, title string) string {
	namespace := p.namer.Uniquify(ctx, naming.DeriveName(title))
	if err := p.driver.Provision(ctx, namespace); err != nil {
		fallback := p.driver.DefaultNamespace()
		logger.Warn("ingest: namespace provisioning failed, using default",
			"namespace", namespace, "default", fallback, "error", err)
		return fallback
	}
	return namespace
}

// GetGraph returns the node/link view of a namespace. An empty namespace
// argument reads the driver's default namespace.
func (p *Pipeline) GetGraph(ctx context.Context, namespace string) (*types.GraphView, error) {
	if strings.TrimSpace(namespace) == "" {
		namespace = p.driver.DefaultNamespace()
	}
	return p.driver.RetrieveGraph(ctx, namespace)
}

// ListGraphs returns all document namespaces in the store.
func (p *Pipeline) ListGraphs(ctx context.Context) ([]string, error) {
	return p.driver.ListNamespaces(ctx)
}

// Reset clears the default namespace. Document namespaces are untouched.
func (p *Pipeline) Reset(ctx context.Context) error {
	ns := p.driver.DefaultNamespace()
	if err := p.driver.ClearNamespace(ctx, ns); err != nil {
		return fmt.Errorf("failed to clear namespace %s: %w", ns, err)
	}
	return nil
}

// Close releases the underlying driver connections.
func (p *Pipeline) Close(ctx context.Context) error {
	return p.driver.Close(ctx)
}
