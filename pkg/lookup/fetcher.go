package lookup

import (
	"context"

	"github.com/angelospk/gamecrawl/pkg/core/catalog"
	"github.com/angelospk/gamecrawl/pkg/core/extract"
)

// Candidate is one search result together with the page content it links to.
type Candidate struct {
	Title   string
	Year    int // 0 when the result listing carries no year
	URL     string
	Content string
}

// Fetcher returns candidates for a free-text query. preferredYear is 0 when the
// catalog title carries no year.
type Fetcher interface {
	FetchCandidates(ctx context.Context, query string, preferredYear int) ([]Candidate, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, query string, preferredYear int) ([]Candidate, error)

// FetchCandidates calls f.
func (f FetcherFunc) FetchCandidates(ctx context.Context, query string, preferredYear int) ([]Candidate, error) {
	return f(ctx, query, preferredYear)
}

// Source hands out a Fetcher for the duration of one lookup or one batch. The
// returned release func must be called exactly once, on every exit path.
type Source interface {
	Acquire(ctx context.Context) (Fetcher, func(), error)
}

// StaticSource shares one caller-owned Fetcher; release is a no-op.
type StaticSource struct {
	Fetcher Fetcher
}

// Acquire returns the wrapped Fetcher.
func (s StaticSource) Acquire(context.Context) (Fetcher, func(), error) {
	return s.Fetcher, func() {}, nil
}

// Site binds a target field to where its values come from and how they are read.
type Site struct {
	Name      string
	Field     catalog.Field
	Source    Source
	Extractor *extract.Extractor
}
