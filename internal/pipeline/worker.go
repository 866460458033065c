package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/regindex/internal/doctree"
	"github.com/dgallion1/regindex/internal/metrics"
	"github.com/dgallion1/regindex/internal/parser"
	"github.com/dgallion1/regindex/internal/store"
)

// Publisher receives every successfully built index.
type Publisher interface {
	Replace(idx doctree.Index)
}

// Exporter mirrors a built index into secondary storage.
type Exporter interface {
	Export(ctx context.Context, idx doctree.Index) error
}

// Worker processes a single build job.
type Worker struct {
	builder    *Builder
	publisher  Publisher
	exporter   Exporter
	indexPath  string
	parserOpts parser.Options
	log        *slog.Logger
	metrics    *metrics.Metrics

	// commitMu is shared by all workers of an orchestrator.
	commitMu *sync.Mutex
}

func NewWorker(builder *Builder, pub Publisher, exp Exporter, indexPath string, opts parser.Options, commitMu *sync.Mutex, log *slog.Logger) *Worker {
	if commitMu == nil {
		commitMu = &sync.Mutex{}
	}
	return &Worker{
		builder:    builder,
		publisher:  pub,
		exporter:   exp,
		indexPath:  indexPath,
		parserOpts: opts,
		log:        log,
		commitMu:   commitMu,
	}
}

// Process runs the full build pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "celex", job.Celex, "filename", job.Filename)
	start := time.Now()
	defer func() {
		w.metrics.ObserveBuild(string(job.Snapshot().Status), time.Since(start))
	}()

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, w.parserOpts)
	if err != nil {
		w.fail(log, job, StatusParsing, err)
		return
	}
	pages, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	job.releaseFileData()
	if err != nil {
		w.fail(log, job, StatusParsing, fmt.Errorf("parse: %w", err))
		return
	}
	job.SetPages(len(pages))
	log.Info("parsed document", "pages", len(pages))

	// Phase 2: Segment and chunk
	src := doctree.Source{Celex: job.Celex, Lang: job.Lang, PDFPath: job.Filename}
	idx, err := w.builder.build(ctx, src, pages, func(s JobStatus) {
		job.SetStatus(s, string(s))
	})
	if err != nil {
		w.fail(log, job, StatusChunking, err)
		return
	}
	job.SetCounts(idx.Stats.ArticlesFound, idx.Stats.Chunks)

	if idx.Stats.Chunks == 0 {
		w.fail(log, job, StatusChunking, fmt.Errorf("no articles found"))
		return
	}

	// Phase 3: Store and publish
	job.SetStatus(StatusStoring, "storing")
	if err := w.commit(ctx, log, job, idx); err != nil {
		w.fail(log, job, StatusStoring, err)
		return
	}

	job.SetStatus(StatusCompleted, "done")
	log.Info("build complete", "chunks", idx.Stats.Chunks)
}

// commit writes idx to disk, mirrors it and hands it to the publisher.
// Export failures are recorded on the job without failing it.
func (w *Worker) commit(ctx context.Context, log *slog.Logger, job *Job, idx doctree.Index) error {
	w.commitMu.Lock()
	defer w.commitMu.Unlock()

	if w.indexPath != "" {
		if err := store.SaveJSON(w.indexPath, idx); err != nil {
			return fmt.Errorf("save index: %w", err)
		}
		log.Info("wrote index", "path", w.indexPath)
	}

	if w.exporter != nil {
		if err := w.exporter.Export(ctx, idx); err != nil {
			log.Error("export failed", "error", err)
			job.AddError(fmt.Sprintf("export: %s", err))
		}
	}

	if w.publisher != nil {
		w.publisher.Replace(idx)
	}
	return nil
}

func (w *Worker) fail(log *slog.Logger, job *Job, phase JobStatus, err error) {
	log.Error("build failed", "phase", string(phase), "error", err)
	job.AddError(err.Error())
	job.SetStatus(StatusFailed, string(phase))
}
