package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults; an
// optional YAML file (CONFIG_FILE) provides values for unset variables.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Finance API
	APIBaseURL string
	ListLimit  int

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL      time.Duration
	MemcacheHosts []string

	// Observability
	OTLPEndpoint string

	// Session cookie
	SessionSecret string
	SessionTTL    time.Duration // 0 = no expiry
	CookieSecure  bool

	// Outbox
	OutboxPath           string // empty (OUTBOX_PATH=off) disables the outbox
	OutboxReplayInterval time.Duration
	OutboxBatchSize      int
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	file, err := readFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}
	src := source{file: file}

	return &Config{
		Port:     src.int("PORT", 8080),
		LogLevel: src.str("LOG_LEVEL", "info"),

		APIBaseURL: strings.TrimRight(src.str("API_BASE_URL", "http://localhost:5000/api"), "/"),
		ListLimit:  src.int("LIST_LIMIT", 5),

		HTTPTimeout: src.duration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     src.int("MAX_RETRIES", 0),
		InitialBackoff: src.duration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: src.int("MAX_CONCURRENCY", 8),

		CacheTTL:      src.duration("CACHE_TTL", 0),
		MemcacheHosts: src.list("MEMCACHE_HOSTS"),

		OTLPEndpoint: src.str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		SessionSecret: src.str("SESSION_SECRET", ""),
		SessionTTL:    src.duration("SESSION_TTL", 0),
		CookieSecure:  src.str("COOKIE_SECURE", "false") == "true",

		OutboxPath:           outboxPath(src.str("OUTBOX_PATH", "data/outbox.db")),
		OutboxReplayInterval: src.duration("OUTBOX_REPLAY_INTERVAL", 30*time.Second),
		OutboxBatchSize:      src.int("OUTBOX_BATCH_SIZE", 20),
	}, nil
}

func outboxPath(v string) string {
	if strings.EqualFold(v, "off") {
		return ""
	}
	return v
}

// readFile parses a flat YAML map of KEY: value pairs. An empty path means
// no file.
func readFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	return values, nil
}

type source struct {
	file map[string]string
}

func (s source) lookup(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return s.file[key]
}

func (s source) str(key, fallback string) string {
	if v := s.lookup(key); v != "" {
		return v
	}
	return fallback
}

func (s source) int(key string, fallback int) int {
	if v := s.lookup(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func (s source) duration(key string, fallback time.Duration) time.Duration {
	if v := s.lookup(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func (s source) list(key string) []string {
	var out []string
	for _, part := range strings.Split(s.lookup(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
