// Package metacritic looks up review scores.
package metacritic

import (
	"context"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/angelospk/gamecrawl/internal/constants"
	"github.com/angelospk/gamecrawl/internal/httpclient"
	"github.com/angelospk/gamecrawl/pkg/core/catalog"
	"github.com/angelospk/gamecrawl/pkg/core/extract"
	"github.com/angelospk/gamecrawl/pkg/lookup"
	log "github.com/sirupsen/logrus"
)

// Name identifies the site in logs and configuration.
const Name = "metacritic"

const (
	gamesCategory     = 13
	defaultMaxResults = 5
)

// baseURL is a variable to allow modification during tests.
var baseURL = constants.MetacriticBaseURL

// SetBaseURLForTesting allows tests to temporarily override the site base URL.
// It returns the original URL so it can be restored.
func SetBaseURLForTesting(newURL string) string {
	oldURL := baseURL
	baseURL = newURL
	return oldURL
}

// SearchParams is the query string of a search request.
type SearchParams struct {
	Category int `url:"category"`
	Page     int `url:"page,omitempty"`
}

// SearchPath returns the search path for query, relative to the base URL.
func SearchPath(query string) string {
	return "/search/" + url.PathEscape(strings.TrimSpace(query)) + "/"
}

// Rules are ordered from structured data to loose page text.
func Rules() []extract.Rule {
	return []extract.Rule{
		extract.JSONLDRule("jsonld-rating", "aggregateRating", "ratingValue"),
		extract.PatternRule("metascore-json", `"metascore"\s*:\s*\{[^{}]*?"score"\s*:\s*(\d{1,3})\b`),
		extract.PatternRule("metascore-title", `(?i)title="Metascore (\d{1,3}) out of 100"`),
		extract.PatternRule("critic-score-block", `(?is)data-testid="critic-score-info".{0,600}?<span[^>]*>\s*(\d{1,3})\s*</span>`),
		extract.TextPatternRule("metascore-text", `(?i)metascore\s*:?\s*(\d{1,3})\b`),
	}
}

// YearRules recover the release year from a game page.
func YearRules() []extract.Rule {
	return []extract.Rule{
		extract.JSONLDRule("jsonld-date", "datePublished"),
		extract.TextPatternRule("release-date", `(?i)released?\s*(?:date|on)?\s*:?\s*([A-Za-z]{3,9}\.?\s+\d{1,2},\s*\d{4})`),
	}
}

// NewExtractor returns the score extractor for game pages.
func NewExtractor(minContentBytes int) *extract.Extractor {
	ex := extract.NewExtractor(extract.KindScore, Rules(), YearRules())
	if minContentBytes > 0 {
		ex.MinContentBytes = minContentBytes
	}
	return ex
}

// SearchResult is one row of the search listing.
type SearchResult struct {
	Title string
	Year  int
	URL   string
}

var resultYearRegex = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

// ParseSearchResults reads game results from a search page in listing order.
func ParseSearchResults(body string) ([]SearchResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	doc.Find(`[data-testid="search-result-item"], .c-pageSiteSearch-results-item`).Each(func(_ int, item *goquery.Selection) {
		link := item
		if !item.Is("a") {
			link = item.Find("a[href]").First()
		}
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}
		title := strings.TrimSpace(item.Find(`[data-testid="product-title"], .g-text-medium-fluid, h3`).First().Text())
		if title == "" {
			title = strings.TrimSpace(link.Text())
		}
		if title == "" {
			return
		}

		r := SearchResult{Title: title, URL: href}
		dateText := item.Find(`[data-testid="product-release-date"], time, .u-text-uppercase`).Text()
		if m := resultYearRegex.FindStringSubmatch(dateText); m != nil {
			r.Year, _ = strconv.Atoi(m[1])
		}
		results = append(results, r)
	})
	return results, nil
}

// Client searches the site over HTTP and downloads the matching game pages.
type Client struct {
	http       *httpclient.Client
	logger     *log.Logger
	maxResults int
}

// NewClient creates a Client. An empty opts.BaseURL uses the site's base URL.
func NewClient(opts httpclient.Options, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = baseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = constants.DefaultUserAgent
	}
	return &Client{http: httpclient.New(opts), logger: logger, maxResults: defaultMaxResults}
}

// FetchCandidates searches for query and returns the game pages of the top
// results, results released in preferredYear first. A page that fails to load
// is left out.
func (c *Client) FetchCandidates(ctx context.Context, query string, preferredYear int) ([]lookup.Candidate, error) {
	body, err := c.http.GetText(ctx, SearchPath(query), SearchParams{Category: gamesCategory})
	if err != nil {
		return nil, err
	}
	results, err := ParseSearchResults(body)
	if err != nil {
		return nil, err
	}
	if preferredYear != 0 {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Year == preferredYear && results[j].Year != preferredYear
		})
	}
	if len(results) > c.maxResults {
		results = results[:c.maxResults]
	}

	candidates := make([]lookup.Candidate, 0, len(results))
	for _, r := range results {
		page, err := c.http.GetText(ctx, r.URL, nil)
		if err != nil {
			if ctx.Err() != nil {
				return candidates, ctx.Err()
			}
			c.logger.WithFields(log.Fields{"site": Name, "candidate": r.Title}).Warnf("Failed to load game page: %v", err)
			continue
		}
		candidates = append(candidates, lookup.Candidate{Title: r.Title, Year: r.Year, URL: c.http.Resolve(r.URL), Content: page})
	}
	return candidates, nil
}

// NewSite binds the client and extractor to the score field.
func NewSite(c *Client, ex *extract.Extractor) lookup.Site {
	return lookup.Site{
		Name:      Name,
		Field:     catalog.FieldScore,
		Source:    lookup.StaticSource{Fetcher: c},
		Extractor: ex,
	}
}
