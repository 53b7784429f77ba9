package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for runtime settings read from the environment
// (UIKIT_FETCH_TIMEOUT, UIKIT_LOG_LEVEL, ...).
const EnvPrefix = "UIKIT"

// Runtime setting keys. Each key is also a flag name.
const (
	KeyFetchTimeout     = "fetch-timeout"
	KeyFetchRetries     = "fetch-retries"
	KeyFetchConcurrency = "fetch-concurrency"
	KeyCacheDir         = "cache-dir"
	KeyLogLevel         = "log-level"
	KeyMetricsFile      = "metrics-file"
	KeyErrorFormat      = "error-format"
	KeyNoColor          = "no-color"
)

// Runtime defaults.
const (
	DefaultFetchTimeout     = 15 * time.Second
	DefaultFetchConcurrency = 8
	DefaultCacheDir         = ".uikit/registry"
)

// Runtime holds per-invocation settings that are not part of uikit.json.
type Runtime struct {
	FetchTimeout     time.Duration
	FetchRetries     int
	FetchConcurrency int
	CacheDir         string
	LogLevel         slog.Level
	MetricsFile      string

	// ErrorFormat selects how a failed command is reported: pretty,
	// compact or json.
	ErrorFormat string
	NoColor     bool
}

// NewViper returns a viper instance reading UIKIT_* environment variables
// with the runtime defaults registered.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyFetchTimeout, DefaultFetchTimeout)
	v.SetDefault(KeyFetchRetries, 0)
	v.SetDefault(KeyFetchConcurrency, DefaultFetchConcurrency)
	v.SetDefault(KeyCacheDir, DefaultCacheDir)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyMetricsFile, "")
	v.SetDefault(KeyErrorFormat, "pretty")
	v.SetDefault(KeyNoColor, false)
	return v
}

// BindFlags binds every runtime key that exists in flags, so an explicit
// flag wins over the environment.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for _, key := range []string{
		KeyFetchTimeout, KeyFetchRetries, KeyFetchConcurrency,
		KeyCacheDir, KeyLogLevel, KeyMetricsFile,
		KeyErrorFormat, KeyNoColor,
	} {
		f := flags.Lookup(key)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

// LoadRuntime reads the runtime settings from v.
func LoadRuntime(v *viper.Viper) Runtime {
	rt := Runtime{
		FetchTimeout:     v.GetDuration(KeyFetchTimeout),
		FetchRetries:     v.GetInt(KeyFetchRetries),
		FetchConcurrency: v.GetInt(KeyFetchConcurrency),
		CacheDir:         v.GetString(KeyCacheDir),
		LogLevel:         ParseLogLevel(v.GetString(KeyLogLevel)),
		MetricsFile:      v.GetString(KeyMetricsFile),
		ErrorFormat:      strings.ToLower(strings.TrimSpace(v.GetString(KeyErrorFormat))),
		NoColor:          v.GetBool(KeyNoColor),
	}
	if rt.FetchTimeout <= 0 {
		rt.FetchTimeout = DefaultFetchTimeout
	}
	if rt.FetchRetries < 0 {
		rt.FetchRetries = 0
	}
	if rt.FetchConcurrency <= 0 {
		rt.FetchConcurrency = DefaultFetchConcurrency
	}
	if rt.CacheDir == "" {
		rt.CacheDir = DefaultCacheDir
	}
	return rt
}

// ParseLogLevel maps a level name to a slog.Level. Unknown names fall back
// to info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		slog.Warn("Invalid log level, using INFO", "value", s)
		return slog.LevelInfo
	}
}

// CachePath resolves the cache directory against the project root.
func (c *Config) CachePath(rt Runtime) string {
	return resolveUnder(c.Dir(), rt.CacheDir)
}
