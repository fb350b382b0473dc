// Package browser renders JavaScript-driven pages in a headless Chrome driven by Rod.
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	log "github.com/sirupsen/logrus"
)

// DefaultTimeout bounds one page render.
const DefaultTimeout = 30 * time.Second

// Options configures a Session.
type Options struct {
	// RemoteURL is the DevTools WebSocket URL of an external Chrome instance.
	// Empty launches a local Chrome.
	RemoteURL string
	Headless  bool
	Timeout   time.Duration
	UserAgent string
	// WaitSelector, when set, is awaited after load so client-rendered content is present.
	WaitSelector string
	Logger       *log.Logger
}

// Session is one running browser. Pages are rendered one at a time.
type Session struct {
	opts    Options
	logger  *log.Logger
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// Open launches Chrome (or connects to RemoteURL) and returns a ready Session.
// The caller must Close it.
func Open(ctx context.Context, opts Options) (*Session, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &Session{opts: opts, logger: logger}

	wsURL := opts.RemoteURL
	if wsURL != "" {
		logger.WithField("url", wsURL).Debug("Connecting to remote browser")
	} else {
		l := launcher.New().
			Headless(opts.Headless).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		s.lnch = l
		logger.WithField("headless", opts.Headless).Debug("Launched local browser")
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	s.browser = b
	return s, nil
}

// Render loads pageURL in a fresh stealth tab and returns the rendered HTML.
func (s *Session) Render(ctx context.Context, pageURL string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.browser == nil {
		return "", fmt.Errorf("browser: session is closed")
	}

	page, err := stealth.Page(s.browser)
	if err != nil {
		return "", fmt.Errorf("browser: create tab: %w", err)
	}
	defer page.Close()

	if s.opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: s.opts.UserAgent}); err != nil {
			s.logger.Warnf("browser: set user agent: %v", err)
		}
	}

	navCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		return "", fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		s.logger.WithField("url", pageURL).Warnf("browser: wait load: %v", err)
	}
	if s.opts.WaitSelector != "" {
		if _, err := page.Context(navCtx).Element(s.opts.WaitSelector); err != nil {
			s.logger.WithField("url", pageURL).Debugf("browser: %q never appeared: %v", s.opts.WaitSelector, err)
		}
	}

	html, err := page.Context(navCtx).HTML()
	if err != nil {
		return "", fmt.Errorf("browser: read DOM of %s: %w", pageURL, err)
	}
	return html, nil
}

// Close shuts the browser down. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.cleanup()
}

func (s *Session) cleanup() error {
	var err error
	if s.browser != nil {
		err = s.browser.Close()
		s.browser = nil
	}
	if s.lnch != nil {
		s.lnch.Cleanup()
		s.lnch = nil
	}
	return err
}
