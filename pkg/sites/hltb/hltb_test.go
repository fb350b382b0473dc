package hltb_test

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelospk/gamecrawl/pkg/core/catalog"
	"github.com/angelospk/gamecrawl/pkg/core/extract"
	"github.com/angelospk/gamecrawl/pkg/lookup"
	"github.com/angelospk/gamecrawl/pkg/sites/hltb"
	log "github.com/sirupsen/logrus"
)

const listing = `<html><body><ul>
<li class="GameCard_search_list__1">
  <div><a href="/game/42818"><img src="celeste.jpg"></a></div>
  <div>
    <h2><a title="Celeste" href="/game/42818">Celeste</a></h2>
    <div>
      <div>Main Story</div><div>8½ Hours</div>
      <div>Main + Extra</div><div>19 Hours</div>
      <div>Completionist</div><div>39 Hours</div>
    </div>
  </div>
</li>
<li class="GameCard_search_list__1">
  <div>
    <h2><a title="Celestian Tales: Old North (2015)" href="/game/1001">Celestian Tales: Old North (2015)</a></h2>
    <div><div>Main Story</div><div>12 Hours</div></div>
  </div>
</li>
<li class="GameCard_search_list__1">
  <div>
    <h2><a href="/game/2002">Deep Rock Galactic</a></h2>
    <div><div>Co-Op</div><div>120 Hours</div><div>Solo</div><div>40 Hours</div></div>
  </div>
</li>
</ul></body></html>`

type fakeSession struct {
	RenderFunc func(ctx context.Context, url string) (string, error)
	urls       []string
	closed     int
}

func (f *fakeSession) Render(ctx context.Context, url string) (string, error) {
	f.urls = append(f.urls, url)
	if f.RenderFunc != nil {
		return f.RenderFunc(ctx, url)
	}
	return listing, nil
}

func (f *fakeSession) Close() error {
	f.closed++
	return nil
}

func quietLogger() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

func TestSearchURL(t *testing.T) {
	orig := hltb.SetBaseURLForTesting("https://hltb.test/")
	defer hltb.SetBaseURLForTesting(orig)

	assert.Equal(t, "https://hltb.test/?q=Hollow+Knight", hltb.SearchURL(" Hollow Knight "))
	assert.Equal(t, "https://hltb.test/?q=Ori+%26+the+Blind+Forest", hltb.SearchURL("Ori & the Blind Forest"))
}

func TestParseListing(t *testing.T) {
	orig := hltb.SetBaseURLForTesting("https://hltb.test")
	defer hltb.SetBaseURLForTesting(orig)

	candidates, err := hltb.ParseListing(listing)
	require.NoError(t, err)
	require.Len(t, candidates, 3, "image links without a title are ignored")

	assert.Equal(t, "Celeste", candidates[0].Title)
	assert.Equal(t, "https://hltb.test/game/42818", candidates[0].URL)
	assert.Zero(t, candidates[0].Year)
	assert.Contains(t, candidates[0].Content, "8½ Hours")
	assert.NotContains(t, candidates[0].Content, "12 Hours", "content is limited to the card")

	assert.Equal(t, 2015, candidates[1].Year)
	assert.Equal(t, "Deep Rock Galactic", candidates[2].Title)
}

func TestNewExtractor(t *testing.T) {
	candidates, err := hltb.ParseListing(listing)
	require.NoError(t, err)
	ex := hltb.NewExtractor(0)

	tests := []struct {
		name     string
		content  string
		expected float64
		rule     string
	}{
		{"main story card", candidates[0].Content, 8.5, "main-story"},
		{"solo fallback", candidates[2].Content, 40, "solo"},
		{"embedded seconds", `{"game":[{"comp_main":25200,"comp_plus":0}]}`, 7, "comp-main-json"},
		{"plain text", `<p>Main Story: 22 Hours 30 Mins</p>`, 22.5, "main-story-text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ex.Extract(tt.content)
			require.Equal(t, extract.Found, out.Status, out.Reason)
			assert.Equal(t, tt.expected, out.Value)
			assert.Equal(t, tt.rule, out.Rule)
		})
	}

	t.Run("short card without times", func(t *testing.T) {
		out := ex.Extract(`<li><a href="/game/1">Unreleased</a></li>`)
		assert.Equal(t, extract.Unavailable, out.Status)
	})

	t.Run("release year", func(t *testing.T) {
		assert.Equal(t, 2018, ex.Year(`<div>NA: January 25th, 2018</div>`))
	})
}

func TestClient_FetchCandidates(t *testing.T) {
	sess := &fakeSession{}
	client := hltb.NewClient(sess, quietLogger())

	candidates, err := client.FetchCandidates(context.Background(), "Celeste", 2015)
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	assert.Equal(t, "Celestian Tales: Old North (2015)", candidates[0].Title, "preferred year first")
	assert.Equal(t, "Celeste", candidates[1].Title)
	require.Len(t, sess.urls, 1)
	assert.Contains(t, sess.urls[0], "?q=Celeste")
}

func TestClient_RenderError(t *testing.T) {
	sess := &fakeSession{RenderFunc: func(context.Context, string) (string, error) {
		return "", errors.New("navigation timeout")
	}}
	_, err := hltb.NewClient(sess, quietLogger()).FetchCandidates(context.Background(), "Celeste", 0)
	assert.EqualError(t, err, "navigation timeout")
}

func TestSessionSource(t *testing.T) {
	t.Run("release closes the session", func(t *testing.T) {
		sess := &fakeSession{}
		src := hltb.SessionSource{
			Open:   func(context.Context) (hltb.Session, error) { return sess, nil },
			Logger: quietLogger(),
		}

		f, release, err := src.Acquire(context.Background())
		require.NoError(t, err)
		_, err = f.FetchCandidates(context.Background(), "Celeste", 0)
		require.NoError(t, err)
		assert.Zero(t, sess.closed)

		release()
		assert.Equal(t, 1, sess.closed)
	})

	t.Run("open failure", func(t *testing.T) {
		src := hltb.SessionSource{Open: func(context.Context) (hltb.Session, error) {
			return nil, errors.New("chrome not found")
		}}
		f, release, err := src.Acquire(context.Background())
		require.Error(t, err)
		assert.Nil(t, f)
		assert.Nil(t, release)
	})
}

func TestResolveThroughSession(t *testing.T) {
	ctx := context.Background()
	store, err := catalog.NewFileStore(filepath.Join(t.TempDir(), "games.json"), quietLogger())
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Put(ctx, catalog.Entry{ID: "7", Name: "Celeste™"}))

	sess := &fakeSession{}
	src := hltb.SessionSource{
		Open:   func(context.Context) (hltb.Session, error) { return sess, nil },
		Logger: quietLogger(),
	}
	site := hltb.NewSite(src, hltb.NewExtractor(0))
	r := lookup.New(site, store, lookup.Options{
		Sleep: func(context.Context, time.Duration) error { return nil },
	}, quietLogger())

	res, err := r.ResolveID(ctx, "7", false)
	require.NoError(t, err)
	require.True(t, res.Found(), res.Outcome.Reason)
	assert.Equal(t, 8.5, res.Outcome.Value)
	assert.Equal(t, "Celeste", res.Candidate)
	assert.Equal(t, 1, sess.closed)

	got, err := store.GetByID(ctx, "7")
	require.NoError(t, err)
	require.NotNil(t, got.HoursToBeat)
	assert.Equal(t, 8.5, *got.HoursToBeat)
	assert.Zero(t, got.DurationRetry.Attempts)
}
