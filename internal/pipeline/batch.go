package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/HendryAvila/specgap/internal/model"
)

// Job is one named document of a batch.
type Job struct {
	Name     string
	Document model.Document
}

// JobResult is the outcome of one job. Err is set when the job failed;
// Result then holds whatever stages completed.
type JobResult struct {
	Name   string  `json:"name"`
	Result *Result `json:"result,omitempty"`
	Err    error   `json:"-"`
	Error  string  `json:"error,omitempty"`
}

// Batch is the outcome of RunBatch, with results in job order.
type Batch struct {
	RunID      string      `json:"run_id"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Results    []JobResult `json:"results"`
	Failed     int         `json:"failed"`
}

// RunBatch analyses jobs on at most workers goroutines. A failing job
// does not stop the others; its error is kept in its JobResult. The
// returned error is non-nil only when ctx ends before every job ran.
func (a *Analyzer) RunBatch(ctx context.Context, jobs []Job, opts Options, workers int) (*Batch, error) {
	if workers < 1 {
		workers = 1
	}
	b := &Batch{
		RunID:     uuid.NewString(),
		StartedAt: timeNow().UTC(),
		Results:   make([]JobResult, len(jobs)),
	}
	logger := a.logger.With("run_id", b.RunID)
	logger.Info("batch started", "jobs", len(jobs), "workers", workers)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, job := range jobs {
		g.Go(func() error {
			res, err := a.Run(gCtx, job.Document, opts)
			jr := JobResult{Name: job.Name, Result: res, Err: err}
			if err != nil {
				jr.Error = err.Error()
				logger.Warn("job failed", "job", job.Name, "error", err)
			}
			b.Results[i] = jr
			return nil
		})
	}
	_ = g.Wait() // errors captured in JobResult.Err

	for _, r := range b.Results {
		if r.Err != nil {
			b.Failed++
		}
	}
	b.FinishedAt = timeNow().UTC()
	logger.Info("batch finished", "failed", b.Failed)
	return b, ctx.Err()
}
