// Package lookup resolves catalog entries against a site: it searches title
// variations, confirms candidate identity, extracts the target field and records
// the attempt for cooldown purposes.
package lookup

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/angelospk/gamecrawl/pkg/core/catalog"
	"github.com/angelospk/gamecrawl/pkg/core/cooldown"
	coreerrors "github.com/angelospk/gamecrawl/pkg/core/errors"
	"github.com/angelospk/gamecrawl/pkg/core/extract"
	"github.com/angelospk/gamecrawl/pkg/core/matcher"
	"github.com/angelospk/gamecrawl/pkg/core/titles"
	log "github.com/sirupsen/logrus"
)

// Defaults for Options.
const (
	DefaultDelay         = 3 * time.Second
	DefaultMaxCandidates = 5
)

// Options tunes a Resolver. Zero values take the defaults.
type Options struct {
	// Delay is the minimum gap between two fetch calls; zero disables pacing.
	Delay         time.Duration
	MaxCandidates int
	MaxVariations int
	Matcher       matcher.Config
	Cooldown      cooldown.Policy
	Now           func() time.Time
	// Sleep waits for d or until ctx is done. Tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Result describes how one entry was resolved.
type Result struct {
	EntryID    string
	Name       string
	Outcome    extract.Outcome
	Skipped    bool // on cooldown, nothing was fetched
	Query      string
	Candidate  string
	Similarity float64
	Retry      cooldown.State
	Updated    bool
	Err        error
}

// Found reports whether a value was extracted.
func (r Result) Found() bool {
	return r.Outcome.Status == extract.Found
}

// Resolver runs lookups for a single site. Lookups never overlap: a second call
// made while one is in flight fails with ErrLookupBusy.
type Resolver struct {
	site      Site
	store     catalog.Store
	matcher   *matcher.Matcher
	tracker   *cooldown.Tracker
	generator titles.Generator
	opts      Options
	logger    *log.Logger

	busy      sync.Mutex
	paceMu    sync.Mutex
	lastFetch time.Time
}

// New creates a Resolver for site, persisting through store.
func New(site Site, store catalog.Store, opts Options, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New()
		logger.SetFormatter(&log.TextFormatter{})
		logger.SetOutput(os.Stderr)
		logger.SetLevel(log.InfoLevel)
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	if opts.MaxCandidates <= 0 {
		opts.MaxCandidates = DefaultMaxCandidates
	}
	if opts.MaxVariations <= 0 {
		opts.MaxVariations = titles.DefaultMaxVariations
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if opts.Matcher == (matcher.Config{}) {
		opts.Matcher = matcher.DefaultConfig()
	}
	return &Resolver{
		site:      site,
		store:     store,
		matcher:   matcher.New(opts.Matcher),
		tracker:   cooldown.NewTracker(opts.Cooldown, opts.Now),
		generator: titles.Generator{MaxVariations: opts.MaxVariations, MinQueryLength: titles.DefaultMinQueryLength},
		opts:      opts,
		logger:    logger,
	}
}

// Site returns the site this resolver serves.
func (r *Resolver) Site() Site {
	return r.site
}

// Tracker returns the cooldown tracker in use.
func (r *Resolver) Tracker() *cooldown.Tracker {
	return r.tracker
}

type accepted struct {
	candidate Candidate
	year      int
	outcome   extract.Outcome
	decision  matcher.Decision
}

// Resolve looks up entry with fetcher and returns the outcome together with the
// entry's next retry state. It does not touch the store. Fetch errors are logged
// and treated as a variation without candidates.
func (r *Resolver) Resolve(ctx context.Context, entry catalog.Entry, fetcher Fetcher) Result {
	field := r.site.Field
	res := Result{EntryID: entry.ID, Name: entry.Name, Retry: entry.Retry(field)}
	logger := r.logger.WithFields(log.Fields{"site": r.site.Name, "entry": entry.Name})

	if !r.tracker.IsEligible(res.Retry) {
		res.Skipped = true
		res.Outcome = extract.Outcome{Status: extract.NotFound, Reason: "on cooldown"}
		logger.Debugf("Skipping, on cooldown for another %s", r.tracker.Remaining(res.Retry).Round(time.Minute))
		return res
	}

	yearHint := titles.YearHint(entry.Name)
	variations := r.generator.Generate(entry.Name, yearHint)
	lastReason := "no confirmed candidates"

	for _, query := range variations {
		if err := ctx.Err(); err != nil {
			res.Err = err
			res.Outcome = extract.Outcome{Status: extract.NotFound, Reason: "cancelled"}
			return res
		}
		qlog := logger.WithField("query", query)

		if err := r.pace(ctx); err != nil {
			res.Err = err
			res.Outcome = extract.Outcome{Status: extract.NotFound, Reason: "cancelled"}
			return res
		}
		candidates, err := fetcher.FetchCandidates(ctx, query, yearHint)
		if err != nil {
			qlog.Warnf("Fetch failed: %v", err)
			lastReason = "fetch failed"
			continue
		}
		if len(candidates) > r.opts.MaxCandidates {
			candidates = candidates[:r.opts.MaxCandidates]
		}
		qlog.Debugf("%d candidate(s)", len(candidates))

		var confirmed []accepted
		for _, c := range candidates {
			a, ok := r.evaluate(qlog, entry.Name, yearHint, c)
			if !ok {
				if a.decision.Match {
					lastReason = a.outcome.Status.String()
				}
				continue
			}
			if yearHint != 0 && a.year == yearHint {
				qlog.WithField("candidate", c.Title).Debug("Release year matches, taking candidate")
				return r.finish(logger, res, query, a, entry)
			}
			confirmed = append(confirmed, a)
		}
		if len(confirmed) > 0 {
			return r.finish(logger, res, query, confirmed[0], entry)
		}
	}

	res.Outcome = extract.Outcome{Status: extract.NotFound, Reason: lastReason}
	res.Retry = r.tracker.RecordAttempt(res.Retry, false)
	logger.WithField("status", res.Outcome.Status).Infof("Not found after %d variation(s)", len(variations))
	return res
}

// evaluate confirms identity and extracts the field from one candidate.
func (r *Resolver) evaluate(logger *log.Entry, searched string, yearHint int, c Candidate) (accepted, bool) {
	a := accepted{candidate: c, year: c.Year}
	if a.year == 0 {
		a.year = titles.CandidateYear(c.Title)
	}
	if a.year == 0 && yearHint != 0 {
		a.year = r.site.Extractor.Year(c.Content)
	}

	a.decision = r.matcher.Compare(searched, c.Title, yearHint != 0 && a.year == yearHint)
	clog := logger.WithFields(log.Fields{
		"candidate":  c.Title,
		"similarity": fmt.Sprintf("%.1f", a.decision.Similarity),
		"jw":         fmt.Sprintf("%.3f", a.decision.JaroWinkler),
	})
	if !a.decision.Match {
		clog.Debugf("Rejected, below %.0f%% threshold", a.decision.Threshold)
		return a, false
	}

	a.outcome = r.site.Extractor.Extract(c.Content)
	if a.outcome.Status != extract.Found {
		clog.WithField("status", a.outcome.Status).Debugf("No usable value: %s", a.outcome.Reason)
		return a, false
	}
	if a.year == 0 {
		a.year = a.outcome.Year
	}
	return a, true
}

func (r *Resolver) finish(logger *log.Entry, res Result, query string, a accepted, entry catalog.Entry) Result {
	res.Outcome = a.outcome
	if res.Outcome.Year == 0 {
		res.Outcome.Year = a.year
	}
	res.Query = query
	res.Candidate = a.candidate.Title
	res.Similarity = a.decision.Similarity
	res.Retry = r.tracker.RecordAttempt(entry.Retry(r.site.Field), true)
	logger.WithFields(log.Fields{
		"query":      query,
		"candidate":  a.candidate.Title,
		"similarity": fmt.Sprintf("%.1f", a.decision.Similarity),
		"rule":       a.outcome.Rule,
		"status":     a.outcome.Status,
	}).Infof("Found %s %g", r.site.Field, a.outcome.Value)
	return res
}

// ResolveOne acquires a fetcher, resolves entry and persists the outcome unless
// dryRun is set. Only a store failure or a failure to acquire a fetcher is
// returned as an error.
func (r *Resolver) ResolveOne(ctx context.Context, entry catalog.Entry, dryRun bool) (Result, error) {
	if !r.busy.TryLock() {
		return Result{EntryID: entry.ID, Name: entry.Name}, coreerrors.ErrLookupBusy
	}
	defer r.busy.Unlock()

	fetcher, release, err := r.site.Source.Acquire(ctx)
	if err != nil {
		return Result{EntryID: entry.ID, Name: entry.Name}, fmt.Errorf("%w: %v", coreerrors.ErrNoSession, err)
	}
	defer release()

	res := r.Resolve(ctx, entry, fetcher)
	if err := r.persist(ctx, &res, dryRun); err != nil {
		return res, err
	}
	return res, res.Err
}

// ResolveID loads the entry with id from the store and resolves it.
func (r *Resolver) ResolveID(ctx context.Context, id string, dryRun bool) (Result, error) {
	entry, err := r.store.GetByID(ctx, id)
	if err != nil {
		return Result{EntryID: id}, err
	}
	return r.ResolveOne(ctx, *entry, dryRun)
}

// persist writes the field value and retry state. In dry-run mode nothing is
// written but Updated still reflects whether a value would have been stored.
func (r *Resolver) persist(ctx context.Context, res *Result, dryRun bool) error {
	if res.Skipped || res.Err != nil {
		return nil
	}
	var value *float64
	if res.Found() {
		v := res.Outcome.Value
		value = &v
	}
	if dryRun {
		res.Updated = value != nil
		return nil
	}

	retry := res.Retry
	patch := catalog.FieldPatch(r.site.Field, value, &retry)
	if _, err := r.store.Update(ctx, res.EntryID, patch); err != nil {
		r.logger.WithFields(log.Fields{"site": r.site.Name, "entry": res.Name}).Errorf("Failed to store result: %v", err)
		res.Err = err
		return fmt.Errorf("store update for %s: %w", res.EntryID, err)
	}
	res.Updated = value != nil
	return nil
}

// pace blocks until at least Delay has passed since the previous fetch.
func (r *Resolver) pace(ctx context.Context) error {
	r.paceMu.Lock()
	defer r.paceMu.Unlock()

	if !r.lastFetch.IsZero() && r.opts.Delay > 0 {
		if wait := r.opts.Delay - r.opts.Now().Sub(r.lastFetch); wait > 0 {
			if err := r.opts.Sleep(ctx, wait); err != nil {
				return err
			}
		}
	}
	r.lastFetch = r.opts.Now()
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
