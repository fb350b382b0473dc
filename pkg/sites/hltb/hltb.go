// Package hltb looks up completion times. The site renders its search results
// client-side, so listings are fetched through a browser session.
package hltb

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/angelospk/gamecrawl/internal/browser"
	"github.com/angelospk/gamecrawl/internal/constants"
	"github.com/angelospk/gamecrawl/pkg/core/catalog"
	"github.com/angelospk/gamecrawl/pkg/core/extract"
	"github.com/angelospk/gamecrawl/pkg/lookup"
	"github.com/google/go-querystring/query"
	log "github.com/sirupsen/logrus"
)

// Name identifies the site in logs and configuration.
const Name = "howlongtobeat"

// ResultSelector matches the result links of a rendered listing.
const ResultSelector = `a[href^="/game/"]`

const defaultMaxResults = 5

// baseURL is a variable to allow modification during tests.
var baseURL = constants.HLTBBaseURL

// SetBaseURLForTesting allows tests to temporarily override the site base URL.
// It returns the original URL so it can be restored.
func SetBaseURLForTesting(newURL string) string {
	oldURL := baseURL
	baseURL = newURL
	return oldURL
}

type searchParams struct {
	Query string `url:"q"`
}

// SearchURL returns the absolute listing URL for query.
func SearchURL(q string) string {
	v, _ := query.Values(searchParams{Query: strings.TrimSpace(q)})
	return strings.TrimRight(baseURL, "/") + "/?" + v.Encode()
}

var compMainRegex = regexp.MustCompile(`"comp_main"\s*:\s*(\d+)`)

// compMainRule reads the main-story time, stored in seconds, from embedded page data.
func compMainRule() extract.Rule {
	return extract.Rule{
		Name: "comp-main-json",
		Apply: func(content string) []string {
			var out []string
			for _, m := range compMainRegex.FindAllStringSubmatch(content, -1) {
				secs, err := strconv.Atoi(m[1])
				if err != nil || secs <= 0 {
					continue
				}
				out = append(out, strconv.FormatFloat(float64(secs)/3600, 'f', 2, 64))
			}
			return out
		},
	}
}

// Rules prefer the main-story time and fall back to the solo time.
func Rules() []extract.Rule {
	return []extract.Rule{
		compMainRule(),
		extract.LabeledRule("main-story", "Main Story", "Single-Player"),
		extract.TextPatternRule("main-story-text", `(?i)main\s+story\s*[:\-]?\s*([0-9½.]+\s*(?:hours?|hrs?|h)\b(?:\s*\d+\s*(?:mins?|m)\b)?)`),
		extract.LabeledRule("solo", "Solo"),
		extract.TextPatternRule("solo-text", `(?i)\bsolo\s*[:\-]?\s*([0-9½.]+\s*(?:hours?|hrs?|h)\b)`),
	}
}

// YearRules recover a release year from a game card or page.
func YearRules() []extract.Rule {
	return []extract.Rule{
		extract.PatternRule("release-json", `"release_world"\s*:\s*"?(\d{4})`),
		extract.TextPatternRule("release-text", `(?i)\b(?:released|release\s+date|NA|EU|JP)\s*:\s*([^\n]{0,30}?\d{4})`),
	}
}

// NewExtractor returns the completion-time extractor.
func NewExtractor(minContentBytes int) *extract.Extractor {
	ex := extract.NewExtractor(extract.KindDuration, Rules(), YearRules())
	if minContentBytes > 0 {
		ex.MinContentBytes = minContentBytes
	}
	return ex
}

var titleYearRegex = regexp.MustCompile(`\((\d{4})\)\s*$`)

// ParseListing turns a rendered listing into candidates. Each candidate's
// content is the HTML of its result card.
func ParseListing(body string) ([]lookup.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var candidates []lookup.Candidate
	doc.Find(ResultSelector).Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		title := strings.TrimSpace(link.AttrOr("title", ""))
		if title == "" {
			title = strings.TrimSpace(link.Text())
		}
		if title == "" || seen[href] {
			return
		}
		seen[href] = true

		card := link.Closest("li")
		if card.Length() == 0 {
			card = link.Parent().Parent()
		}
		content, err := goquery.OuterHtml(card)
		if err != nil {
			return
		}

		c := lookup.Candidate{
			Title:   title,
			URL:     strings.TrimRight(baseURL, "/") + href,
			Content: content,
		}
		if m := titleYearRegex.FindStringSubmatch(title); m != nil {
			c.Year, _ = strconv.Atoi(m[1])
		}
		candidates = append(candidates, c)
	})
	return candidates, nil
}

// PageRenderer returns the rendered HTML of a page.
type PageRenderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Client searches the site through a PageRenderer.
type Client struct {
	renderer   PageRenderer
	logger     *log.Logger
	maxResults int
}

// NewClient creates a Client rendering pages with r.
func NewClient(r PageRenderer, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New()
	}
	return &Client{renderer: r, logger: logger, maxResults: defaultMaxResults}
}

// FetchCandidates renders the listing for q and returns its top results,
// those released in preferredYear first.
func (c *Client) FetchCandidates(ctx context.Context, q string, preferredYear int) ([]lookup.Candidate, error) {
	body, err := c.renderer.Render(ctx, SearchURL(q))
	if err != nil {
		return nil, err
	}
	candidates, err := ParseListing(body)
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}
	c.logger.WithFields(log.Fields{"site": Name, "query": q}).Debugf("%d result(s) in listing", len(candidates))

	if preferredYear != 0 {
		ordered := make([]lookup.Candidate, 0, len(candidates))
		for _, cand := range candidates {
			if cand.Year == preferredYear {
				ordered = append(ordered, cand)
			}
		}
		for _, cand := range candidates {
			if cand.Year != preferredYear {
				ordered = append(ordered, cand)
			}
		}
		candidates = ordered
	}
	if len(candidates) > c.maxResults {
		candidates = candidates[:c.maxResults]
	}
	return candidates, nil
}

// Session is a PageRenderer that must be closed.
type Session interface {
	PageRenderer
	Close() error
}

// OpenFunc starts a new Session.
type OpenFunc func(ctx context.Context) (Session, error)

// BrowserSessions opens Rod browser sessions with opts.
func BrowserSessions(opts browser.Options) OpenFunc {
	if opts.WaitSelector == "" {
		opts.WaitSelector = ResultSelector
	}
	return func(ctx context.Context) (Session, error) {
		sess, err := browser.Open(ctx, opts)
		if err != nil {
			return nil, err
		}
		return sess, nil
	}
}

// SessionSource opens one Session per acquisition and closes it on release.
type SessionSource struct {
	Open   OpenFunc
	Logger *log.Logger
}

// Acquire opens a session and returns a Client bound to it.
func (s SessionSource) Acquire(ctx context.Context) (lookup.Fetcher, func(), error) {
	logger := s.Logger
	if logger == nil {
		logger = log.New()
	}
	sess, err := s.Open(ctx)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if err := sess.Close(); err != nil {
			logger.WithField("site", Name).Warnf("Failed to close browser session: %v", err)
		}
	}
	return NewClient(sess, logger), release, nil
}

// NewSite binds a session source and extractor to the duration field.
func NewSite(src lookup.Source, ex *extract.Extractor) lookup.Site {
	return lookup.Site{
		Name:      Name,
		Field:     catalog.FieldDuration,
		Source:    src,
		Extractor: ex,
	}
}
