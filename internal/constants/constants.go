package constants

// MetacriticBaseURL is the review-score site.
const MetacriticBaseURL = "https://www.metacritic.com"

// HLTBBaseURL is the completion-time site.
const HLTBBaseURL = "https://howlongtobeat.com"

// DefaultUserAgent is sent by the HTTP client and the browser session.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// ConfigDirName is the per-user directory under $HOME holding config.yaml.
const ConfigDirName = ".gamecrawl"

// EnvPrefix prefixes environment overrides, e.g. GAMECRAWL_CATALOG_PATH.
const EnvPrefix = "GAMECRAWL"
