package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/angelospk/gamecrawl/internal/constants"
	"github.com/angelospk/gamecrawl/internal/logging"
	"github.com/angelospk/gamecrawl/pkg/core/catalog"
	"github.com/angelospk/gamecrawl/pkg/core/cooldown"
	"github.com/angelospk/gamecrawl/pkg/core/extract"
	"github.com/angelospk/gamecrawl/pkg/core/matcher"
	"github.com/angelospk/gamecrawl/pkg/core/titles"
	"github.com/angelospk/gamecrawl/pkg/lookup"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Define configuration keys
const (
	CfgKeyCatalogPath         = "catalog.path"
	CfgKeyCatalogDriver       = "catalog.driver" // json or sqlite; empty guesses from the extension
	CfgKeyLookupDelay         = "lookup.delay"
	CfgKeyMaxCandidates       = "lookup.maxcandidates"
	CfgKeyMaxVariations       = "lookup.maxvariations"
	CfgKeyMatcherStrict       = "matcher.strict"
	CfgKeyMatcherLoose        = "matcher.loose"
	CfgKeyMatcherRelaxed      = "matcher.relaxed"
	CfgKeyMatcherRelaxedMinJW = "matcher.relaxedminjw"
	CfgKeyCooldownWindow      = "cooldown.window"
	CfgKeyCooldownMaxAttempts = "cooldown.maxattempts"
	CfgKeyMinContentBytes     = "extract.mincontentbytes"
	CfgKeyBrowserRemoteURL    = "browser.remoteurl"
	CfgKeyBrowserHeadless     = "browser.headless"
	CfgKeyBrowserTimeout      = "browser.timeout"
	CfgKeyHTTPTimeout         = "http.timeout"
	CfgKeyHTTPUserAgent       = "http.useragent"
	CfgKeyHTTPMinInterval     = "http.mininterval"
	CfgKeyLogLevel            = "log.level"
	CfgKeyServeAddr           = "serve.addr"
)

var (
	// Used for flags.
	cfgFile string

	// logger is built once flags and config are loaded.
	logger = logrus.New()

	// RootCmd represents the base command when called without any subcommands
	// Exported for use in tests
	RootCmd = &cobra.Command{
		Use:   "gamecrawl",
		Short: "Fill in review scores and completion times for a game catalog.",
		Long: `gamecrawl looks up the games of a catalog on review and completion-time sites,
confirms each search result is the same game, and stores the extracted score or
hours-to-beat back in the catalog. Failed lookups are retried only after a cooldown.`,
		SilenceUsage: true,
		// PersistentPreRunE runs after initConfig, so the logger sees the final level.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := logging.New(viper.GetString(CfgKeyLogLevel), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	setDefaults(viper.GetViper())

	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gamecrawl/config.yaml or ./config.yaml)")
	RootCmd.PersistentFlags().String("catalog", "", "catalog file (.json or .db)")
	RootCmd.PersistentFlags().String("driver", "", "catalog driver: json or sqlite")
	RootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	cobra.CheckErr(viper.BindPFlag(CfgKeyCatalogPath, RootCmd.PersistentFlags().Lookup("catalog")))
	cobra.CheckErr(viper.BindPFlag(CfgKeyCatalogDriver, RootCmd.PersistentFlags().Lookup("driver")))
	cobra.CheckErr(viper.BindPFlag(CfgKeyLogLevel, RootCmd.PersistentFlags().Lookup("log-level")))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(CfgKeyCatalogPath, "games.json")
	v.SetDefault(CfgKeyLookupDelay, lookup.DefaultDelay)
	v.SetDefault(CfgKeyMaxCandidates, lookup.DefaultMaxCandidates)
	v.SetDefault(CfgKeyMaxVariations, titles.DefaultMaxVariations)
	v.SetDefault(CfgKeyMatcherStrict, matcher.DefaultStrictThreshold)
	v.SetDefault(CfgKeyMatcherLoose, matcher.DefaultLooseThreshold)
	v.SetDefault(CfgKeyMatcherRelaxed, matcher.DefaultRelaxedThreshold)
	v.SetDefault(CfgKeyMatcherRelaxedMinJW, matcher.DefaultRelaxedMinJaroWinkler)
	v.SetDefault(CfgKeyCooldownWindow, cooldown.DefaultWindow)
	v.SetDefault(CfgKeyCooldownMaxAttempts, cooldown.DefaultMaxAttempts)
	v.SetDefault(CfgKeyMinContentBytes, extract.DefaultMinContentBytes)
	v.SetDefault(CfgKeyBrowserHeadless, true)
	v.SetDefault(CfgKeyBrowserTimeout, 30*time.Second)
	v.SetDefault(CfgKeyHTTPTimeout, 20*time.Second)
	v.SetDefault(CfgKeyHTTPUserAgent, constants.DefaultUserAgent)
	v.SetDefault(CfgKeyHTTPMinInterval, time.Second)
	v.SetDefault(CfgKeyLogLevel, "info")
	v.SetDefault(CfgKeyServeAddr, ":8089")
}

// initConfig reads in config file and ENV variables if set.
// This runs *before* PersistentPreRunE.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, constants.ConfigDirName)) // $HOME/.gamecrawl
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix(constants.EnvPrefix) // e.g. GAMECRAWL_CATALOG_PATH
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			// Config file was found but another error was produced
			fmt.Fprintf(os.Stderr, "Error reading config file (%s): %v\n", viper.ConfigFileUsed(), err)
		}
	}
}

// parseFieldFlag maps a --field value to a catalog field.
func parseFieldFlag(raw string) (catalog.Field, error) {
	return catalog.ParseField(strings.ToLower(strings.TrimSpace(raw)))
}
