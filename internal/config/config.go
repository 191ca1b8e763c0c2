package config

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/atomicstack/chsearch/internal/app"
	"github.com/atomicstack/chsearch/internal/search"
)

// Config captures runtime configuration for the application.
type Config struct {
	App      app.Config
	Logging  Logging
	Features Features
	File     string
	Flags    map[string]string
	Args     []string
}

type Logging struct {
	FilePath string
	Trace    bool
}

type Features struct {
	Debug       bool
	MetricsAddr string
}

const (
	envBaseURL      = "CHSEARCH_BASE_URL"
	envLang         = "CHSEARCH_LANG"
	envKind         = "CHSEARCH_KIND"
	envMaxResults   = "CHSEARCH_MAX_RESULTS"
	envThrottle     = "CHSEARCH_THROTTLE"
	envSpinnerDelay = "CHSEARCH_SPINNER_DELAY"
	envMinChars     = "CHSEARCH_MIN_CHARS"
	envTimeout      = "CHSEARCH_TIMEOUT"
	envWidth        = "CHSEARCH_WIDTH"
	envHeight       = "CHSEARCH_HEIGHT"
	envShowFooter   = "CHSEARCH_FOOTER"
	envTrace        = "CHSEARCH_TRACE"
	envLogFile      = "CHSEARCH_LOG_FILE"
	envDebug        = "CHSEARCH_DEBUG"
	envMetricsAddr  = "CHSEARCH_METRICS_ADDR"
	envConfig       = "CHSEARCH_CONFIG"
)

// fileConfig mirrors the optional TOML file. Values already hold the built-in
// defaults before the file is decoded, so absent keys keep them.
type fileConfig struct {
	BaseURL      string `toml:"base_url"`
	Lang         string `toml:"lang"`
	Kind         string `toml:"kind"`
	MaxResults   int    `toml:"max_results"`
	Throttle     string `toml:"throttle"`
	SpinnerDelay string `toml:"spinner_delay"`
	MinChars     int    `toml:"min_chars"`
	Timeout      string `toml:"timeout"`
	Width        int    `toml:"width"`
	Height       int    `toml:"height"`
	Footer       bool   `toml:"footer"`
	Trace        bool   `toml:"trace"`
	LogFile      string `toml:"log_file"`
	Debug        bool   `toml:"debug"`
	MetricsAddr  string `toml:"metrics_addr"`
}

func defaults() fileConfig {
	return fileConfig{
		BaseURL:      "http://localhost:8080",
		Lang:         "en",
		Kind:         string(search.KindArticle),
		MaxResults:   search.MaxResultsCap,
		Throttle:     "800ms",
		SpinnerDelay: "100ms",
		MinChars:     1,
		Timeout:      search.DefaultTimeout.String(),
	}
}

// Load parses configuration from CLI arguments and environment variables.
func Load() (Config, error) {
	return LoadArgs(os.Args[1:], os.Environ())
}

// LoadArgs allows tests to supply specific args/environment. Flags win over
// environment variables, which win over the config file.
func LoadArgs(args []string, environ []string) (Config, error) {
	env := parseEnv(environ)

	path := configPath(args, env)
	base := defaults()
	if path != "" {
		if err := readFile(path, &base); err != nil {
			return Config{}, err
		}
	}
	throttleDefault, err := time.ParseDuration(base.Throttle)
	if err != nil {
		return Config{}, fmt.Errorf("config file throttle: %w", err)
	}
	delayDefault, err := time.ParseDuration(base.SpinnerDelay)
	if err != nil {
		return Config{}, fmt.Errorf("config file spinner_delay: %w", err)
	}
	timeoutDefault, err := time.ParseDuration(base.Timeout)
	if err != nil {
		return Config{}, fmt.Errorf("config file timeout: %w", err)
	}

	fs := flag.NewFlagSet("chsearch", flag.ContinueOnError)
	fs.SetOutput(new(strings.Builder))

	fs.String("config", path, "path to a TOML config file")
	baseURL := fs.String("base-url", envOrDefault(env, envBaseURL, base.BaseURL), "search endpoint base URL")
	lang := fs.String("lang", envOrDefault(env, envLang, base.Lang), "language code inserted into the search path")
	kind := fs.String("kind", envOrDefault(env, envKind, base.Kind), "what to search for: article or category")
	maxResults := fs.Int("max-results", envOrInt(env, envMaxResults, base.MaxResults), "max_results sent with each query")
	throttleWindow := fs.Duration("throttle", envOrDuration(env, envThrottle, throttleDefault), "minimum spacing between search requests")
	spinnerDelay := fs.Duration("spinner-delay", envOrDuration(env, envSpinnerDelay, delayDefault), "how long a request runs before the indicator shows")
	minChars := fs.Int("min-chars", envOrInt(env, envMinChars, base.MinChars), "query length that arms the loading indicator")
	timeout := fs.Duration("timeout", envOrDuration(env, envTimeout, timeoutDefault), "per-request HTTP timeout")
	width := fs.Int("width", envOrInt(env, envWidth, base.Width), "desired viewport width in cells (0 uses terminal width)")
	height := fs.Int("height", envOrInt(env, envHeight, base.Height), "desired viewport height in rows (0 uses terminal height)")
	footer := fs.Bool("footer", envOrBool(env, envShowFooter, base.Footer), "enable footer hint row (disabled by default)")
	trace := fs.Bool("trace", envOrBool(env, envTrace, base.Trace), "enable verbose JSON trace logging")
	logFile := fs.String("log-file", envOrDefault(env, envLogFile, base.LogFile), "path to the log file")
	debugDump := fs.Bool("debug", envOrBool(env, envDebug, base.Debug), "dump controller state to the trace log on exit")
	metricsAddr := fs.String("metrics-addr", envOrDefault(env, envMetricsAddr, base.MetricsAddr), "serve Prometheus metrics on this address")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *width < 0 {
		return Config{}, fmt.Errorf("width must be >= 0 (got %d)", *width)
	}
	if *height < 0 {
		return Config{}, fmt.Errorf("height must be >= 0 (got %d)", *height)
	}
	parsedKind, err := search.ParseKind(*kind)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		App: app.Config{
			BaseURL:      strings.TrimSpace(*baseURL),
			Lang:         strings.TrimSpace(*lang),
			Kind:         parsedKind,
			MaxResults:   *maxResults,
			Throttle:     *throttleWindow,
			SpinnerDelay: *spinnerDelay,
			MinChars:     *minChars,
			Timeout:      *timeout,
			Width:        *width,
			Height:       *height,
			ShowFooter:   *footer,
			Debug:        *debugDump,
			MetricsAddr:  strings.TrimSpace(*metricsAddr),
		},
		Logging: Logging{
			FilePath: *logFile,
			Trace:    *trace,
		},
		Features: Features{
			Debug:       *debugDump,
			MetricsAddr: strings.TrimSpace(*metricsAddr),
		},
		File: path,
		Flags: map[string]string{
			"baseURL":      *baseURL,
			"lang":         *lang,
			"kind":         *kind,
			"maxResults":   strconv.Itoa(*maxResults),
			"throttle":     throttleWindow.String(),
			"spinnerDelay": spinnerDelay.String(),
			"minChars":     strconv.Itoa(*minChars),
			"timeout":      timeout.String(),
			"width":        strconv.Itoa(*width),
			"height":       strconv.Itoa(*height),
			"footer":       strconv.FormatBool(*footer),
			"trace":        strconv.FormatBool(*trace),
			"logFile":      *logFile,
			"debug":        strconv.FormatBool(*debugDump),
			"metricsAddr":  *metricsAddr,
			"config":       path,
		},
		Args: append([]string(nil), args...),
	}

	return cfg, nil
}

// configPath finds --config before the real parse so the file can seed flag
// defaults.
func configPath(args []string, env map[string]string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		name := strings.TrimLeft(arg, "-")
		if name == arg {
			continue
		}
		if value, ok := strings.CutPrefix(name, "config="); ok {
			return value
		}
		if name == "config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return envOrDefault(env, envConfig, "")
}

func readFile(path string, into *fileConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(into); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			keys := make([]string, 0, len(strict.Errors))
			for _, e := range strict.Errors {
				keys = append(keys, strings.Join(e.Key(), "."))
			}
			return fmt.Errorf("config file %s: unknown keys %s", path, strings.Join(keys, ", "))
		}
		return fmt.Errorf("config file %s: %w", path, err)
	}
	return nil
}

func parseEnv(environ []string) map[string]string {
	values := make(map[string]string, len(environ))
	for _, entry := range environ {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		values[parts[0]] = parts[1]
	}
	return values
}

func envOrDefault(env map[string]string, key, fallback string) string {
	if v, ok := env[key]; ok {
		return v
	}
	return fallback
}

func envOrInt(env map[string]string, key string, fallback int) int {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(env map[string]string, key string, fallback bool) bool {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDuration(env map[string]string, key string, fallback time.Duration) time.Duration {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad returns configuration or exits.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}
	return cfg
}

// Validate rejects settings the picker cannot run with.
func Validate(cfg Config) error {
	a := cfg.App
	if _, err := search.ParseKind(string(a.Kind)); err != nil {
		return err
	}
	if a.Throttle <= 0 {
		return fmt.Errorf("throttle must be > 0 (got %s)", a.Throttle)
	}
	if a.SpinnerDelay < 0 {
		return fmt.Errorf("spinner-delay must be >= 0 (got %s)", a.SpinnerDelay)
	}
	if a.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %s)", a.Timeout)
	}
	if a.MinChars < 0 {
		return fmt.Errorf("min-chars must be >= 0 (got %d)", a.MinChars)
	}
	if a.MaxResults < 1 || a.MaxResults > search.MaxResultsCap {
		return fmt.Errorf("max-results must be between 1 and %d (got %d)", search.MaxResultsCap, a.MaxResults)
	}
	u, err := url.Parse(a.BaseURL)
	if err != nil {
		return fmt.Errorf("base-url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base-url %q must be an absolute http(s) URL", a.BaseURL)
	}
	return nil
}
