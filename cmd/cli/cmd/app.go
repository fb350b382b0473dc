package cmd

import (
	"fmt"

	"github.com/angelospk/gamecrawl/internal/browser"
	"github.com/angelospk/gamecrawl/internal/httpclient"
	"github.com/angelospk/gamecrawl/pkg/core/catalog"
	"github.com/angelospk/gamecrawl/pkg/core/cooldown"
	coreerrors "github.com/angelospk/gamecrawl/pkg/core/errors"
	"github.com/angelospk/gamecrawl/pkg/core/matcher"
	"github.com/angelospk/gamecrawl/pkg/lookup"
	"github.com/angelospk/gamecrawl/pkg/sites/hltb"
	"github.com/angelospk/gamecrawl/pkg/sites/metacritic"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// --- Dependency Injection Functions for Testing ---

// OpenStoreFunc opens the configured catalog.
var OpenStoreFunc = func(driver, path string, logger *logrus.Logger) (catalog.Store, error) {
	return catalog.Open(driver, path, logger)
}

// NewSiteFunc builds the site that fills field.
var NewSiteFunc = func(field catalog.Field, logger *logrus.Logger) (lookup.Site, error) {
	minBytes := viper.GetInt(CfgKeyMinContentBytes)
	userAgent := viper.GetString(CfgKeyHTTPUserAgent)

	switch field {
	case catalog.FieldScore:
		client := metacritic.NewClient(httpclient.Options{
			UserAgent:   userAgent,
			Timeout:     viper.GetDuration(CfgKeyHTTPTimeout),
			MinInterval: viper.GetDuration(CfgKeyHTTPMinInterval),
		}, logger)
		return metacritic.NewSite(client, metacritic.NewExtractor(minBytes)), nil
	case catalog.FieldDuration:
		src := hltb.SessionSource{
			Open: hltb.BrowserSessions(browser.Options{
				RemoteURL: viper.GetString(CfgKeyBrowserRemoteURL),
				Headless:  viper.GetBool(CfgKeyBrowserHeadless),
				Timeout:   viper.GetDuration(CfgKeyBrowserTimeout),
				UserAgent: userAgent,
				Logger:    logger,
			}),
			Logger: logger,
		}
		return hltb.NewSite(src, hltb.NewExtractor(minBytes)), nil
	}
	return lookup.Site{}, fmt.Errorf("%w for field %q", coreerrors.ErrUnknownSite, field)
}

// --- End Dependency Injection ---

func openStore() (catalog.Store, error) {
	path := viper.GetString(CfgKeyCatalogPath)
	store, err := OpenStoreFunc(viper.GetString(CfgKeyCatalogDriver), path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	return store, nil
}

func lookupOptions() lookup.Options {
	return lookup.Options{
		Delay:         viper.GetDuration(CfgKeyLookupDelay),
		MaxCandidates: viper.GetInt(CfgKeyMaxCandidates),
		MaxVariations: viper.GetInt(CfgKeyMaxVariations),
		Matcher: matcher.Config{
			StrictThreshold:       viper.GetFloat64(CfgKeyMatcherStrict),
			LooseThreshold:        viper.GetFloat64(CfgKeyMatcherLoose),
			RelaxedThreshold:      viper.GetFloat64(CfgKeyMatcherRelaxed),
			RelaxedMinJaroWinkler: viper.GetFloat64(CfgKeyMatcherRelaxedMinJW),
			NumeralsMustAgree:     true,
		},
		Cooldown: cooldown.Policy{
			Window:      viper.GetDuration(CfgKeyCooldownWindow),
			MaxAttempts: viper.GetInt(CfgKeyCooldownMaxAttempts),
		},
	}
}

func newResolver(field catalog.Field, store catalog.Store) (*lookup.Resolver, error) {
	site, err := NewSiteFunc(field, logger)
	if err != nil {
		return nil, err
	}
	return lookup.New(site, store, lookupOptions(), logger), nil
}

func closeStore(store catalog.Store) {
	if err := store.Close(); err != nil {
		logger.Warnf("Failed to close catalog: %v", err)
	}
}
