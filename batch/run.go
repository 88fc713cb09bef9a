package batch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/katalvlaran/combspec/searcher"
)

// Run searches every job and returns one Result per job, in input order.
// The error aggregates every failed job; jobs left unstarted because ctx
// ended carry its cause.
func Run(ctx context.Context, jobs []Job, opts ...Option) ([]Result, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return nil, o.err
	}
	if len(jobs) == 0 {
		return nil, nil
	}

	id := uuid.New()
	log := o.Logger.With("batch_id", id.String())
	log.Info("batch started", "jobs", len(jobs), "parallelism", o.Parallelism)

	results := make([]Result, len(jobs))
	for i, j := range jobs {
		results[i].Name = jobName(i, j)
	}

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(o.Parallelism))

	var started int
	for i, j := range jobs {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		started++
		g.Go(func() error {
			defer sem.Release(1)
			res := &results[i]
			res.Outcome, res.Err = runOne(gctx, res.Name, j, log.With("job", res.Name))
			if res.Err != nil && o.FailFast {
				return res.Err
			}

			return nil
		})
	}
	werr := g.Wait()

	var merr *multierror.Error
	failed := 0
	for i := range results {
		if i >= started {
			results[i].Err = errors.Wrapf(context.Cause(gctx), "job %q not started", results[i].Name)
		}
		if results[i].Err != nil {
			failed++
			merr = multierror.Append(merr, results[i].Err)
		}
	}
	if werr != nil && merr == nil {
		merr = multierror.Append(merr, werr)
	}

	log.Info("batch finished", "started", started, "failed", failed)

	return results, merr.ErrorOrNil()
}

func runOne(ctx context.Context, name string, j Job, log *slog.Logger) (*searcher.Outcome, error) {
	opts := append([]searcher.Option{searcher.WithLogger(log)}, j.Options...)
	s, err := searcher.New(j.Root, j.Pack, opts...)
	if err != nil {
		log.Warn("job rejected", "err", err)

		return nil, errors.Wrapf(err, "job %q", name)
	}
	out, err := s.Search(ctx)
	if err != nil {
		log.Warn("search failed", "search_id", s.ID().String(), "err", err)

		return out, errors.Wrapf(err, "job %q", name)
	}
	log.Info("job done", "search_id", out.ID.String(), "status", out.Status.String(),
		"levels", out.Levels, "elapsed", out.Elapsed)

	return out, nil
}

func jobName(i int, j Job) string {
	if j.Name != "" {
		return j.Name
	}
	if j.Root != nil {
		return j.Root.Key()
	}

	return fmt.Sprintf("job-%d", i)
}
