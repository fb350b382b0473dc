package lookup

import (
	"context"
	"fmt"
	"time"

	"github.com/angelospk/gamecrawl/pkg/core/catalog"
	coreerrors "github.com/angelospk/gamecrawl/pkg/core/errors"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// BatchReport summarizes one batch run.
type BatchReport struct {
	RunID     string
	Field     catalog.Field
	DryRun    bool
	Processed int
	Updated   int
	Failed    int
	Skipped   int
	Results   []Result
	Started   time.Time
	Finished  time.Time
}

// ResolveBatch resolves, one after the other, every entry that lacks the site's
// field. Entries on cooldown are counted as skipped and do not use up the limit;
// limit <= 0 means no limit. A single fetcher is acquired for the whole batch and
// only once there is something to look up. A failed entry never stops the batch;
// cancelling ctx stops it between entries.
func (r *Resolver) ResolveBatch(ctx context.Context, entries []catalog.Entry, limit int, dryRun bool) (BatchReport, error) {
	report := BatchReport{
		RunID:   uuid.NewString(),
		Field:   r.site.Field,
		DryRun:  dryRun,
		Started: r.opts.Now(),
	}
	if !r.busy.TryLock() {
		return report, coreerrors.ErrLookupBusy
	}
	defer r.busy.Unlock()

	logger := r.logger.WithFields(log.Fields{"run": report.RunID, "site": r.site.Name})
	logger.Infof("Batch started for %d entries (limit %d, dry run %t)", len(entries), limit, dryRun)

	var (
		fetcher Fetcher
		release = func() {}
	)
	defer func() { release() }()

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			logger.Info("Batch cancelled")
			report.Finished = r.opts.Now()
			return report, err
		}
		if entry.Has(r.site.Field) {
			continue
		}
		if !r.tracker.IsEligible(entry.Retry(r.site.Field)) {
			report.Skipped++
			continue
		}
		if limit > 0 && report.Processed >= limit {
			break
		}

		if fetcher == nil {
			f, rel, err := r.site.Source.Acquire(ctx)
			if err != nil {
				report.Finished = r.opts.Now()
				return report, fmt.Errorf("%w: %v", coreerrors.ErrNoSession, err)
			}
			fetcher, release = f, rel
		}

		res := r.Resolve(ctx, entry, fetcher)
		if res.Err != nil && ctx.Err() != nil {
			report.Results = append(report.Results, res)
			report.Finished = r.opts.Now()
			return report, ctx.Err()
		}
		report.Processed++
		if err := r.persist(ctx, &res, dryRun); err != nil {
			report.Failed++
		} else if res.Updated {
			report.Updated++
		} else {
			report.Failed++
		}
		report.Results = append(report.Results, res)
	}

	report.Finished = r.opts.Now()
	logger.WithFields(log.Fields{
		"processed": report.Processed,
		"updated":   report.Updated,
		"failed":    report.Failed,
		"skipped":   report.Skipped,
	}).Info("Batch finished")
	return report, nil
}

// Run loads every entry from the store and resolves them as a batch.
func (r *Resolver) Run(ctx context.Context, limit int, dryRun bool) (BatchReport, error) {
	entries, err := r.store.GetAll(ctx)
	if err != nil {
		return BatchReport{Field: r.site.Field, DryRun: dryRun}, fmt.Errorf("load catalog: %w", err)
	}
	return r.ResolveBatch(ctx, entries, limit, dryRun)
}
