package config

import (
	"os"
	"strconv"
	"strings"

	"cot-dashboard/internal/domain"

	"github.com/sirupsen/logrus"
)

type Config struct {
	CotAPIBaseURL string
	DatabaseURL   string
	RedisURL      string
	HTTPPort      int
	CORSOrigins   []string

	LogLevel  string
	LogFormat string

	SessionTTLHours int

	TrendLimit        int
	DebounceMillis    int
	PriceLookbackDays int
	// QueryDiscardStale drops results of superseded chart loads. Off by
	// default, so the last load to resolve wins.
	QueryDiscardStale bool

	PriceCacheSecs      int
	PriceRateBurst      int
	PriceRateRefillSecs int
	PriceWarmSecs       int

	ServiceUsername string
	ServicePassword string

	IngestCron         string
	IngestCommodities  []string
	IngestLookbackDays int

	TelegramBotToken string

	SSHPort        int
	SSHHostKeyPath string

	MCPTransport          string
	MCPHTTPBind           string
	MCPHTTPPort           int
	MCPAuthToken          string
	MCPRequestTimeoutSecs int
}

func Load() *Config {
	cfg := &Config{
		CotAPIBaseURL:    strings.TrimSpace(os.Getenv("COT_API_BASE_URL")),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		ServiceUsername:  strings.TrimSpace(os.Getenv("SERVICE_USERNAME")),
		ServicePassword:  os.Getenv("SERVICE_PASSWORD"),
		MCPAuthToken:     os.Getenv("MCP_AUTH_TOKEN"),
		LogLevel:         strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		LogFormat:        strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT"))),
	}

	if cfg.CotAPIBaseURL == "" {
		cfg.CotAPIBaseURL = "https://finance-backend-ou68.onrender.com/api/v1"
	}
	if cfg.DatabaseURL == "" {
		logrus.Warn("DATABASE_URL not set, ingest run history disabled")
	}
	if cfg.RedisURL == "" {
		logrus.Warn("REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.TelegramBotToken == "" {
		logrus.Warn("TELEGRAM_BOT_TOKEN not set")
	}
	if cfg.ServiceUsername == "" || cfg.ServicePassword == "" {
		logrus.Warn("SERVICE_USERNAME/SERVICE_PASSWORD not set, background jobs and bot disabled")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}

	cfg.HTTPPort = positiveInt("HTTP_PORT", 8080)
	cfg.CORSOrigins = list("CORS_ORIGINS", []string{"http://localhost:3000"})

	cfg.SessionTTLHours = positiveInt("SESSION_TTL_HOURS", 24)

	cfg.TrendLimit = positiveInt("TREND_LIMIT", 999)
	cfg.DebounceMillis = positiveInt("DEBOUNCE_MILLIS", 200)
	cfg.PriceLookbackDays = positiveInt("PRICE_LOOKBACK_DAYS", 730)
	cfg.QueryDiscardStale = boolean("QUERY_DISCARD_STALE", false)

	cfg.PriceCacheSecs = positiveInt("PRICE_CACHE_SECS", 900)
	cfg.PriceRateBurst = positiveInt("PRICE_RATE_BURST", 5)
	cfg.PriceRateRefillSecs = positiveInt("PRICE_RATE_REFILL_SECS", 12)
	cfg.PriceWarmSecs = positiveInt("PRICE_WARM_SECS", 1800)

	cfg.IngestCron = strings.TrimSpace(os.Getenv("INGEST_CRON"))
	if cfg.IngestCron == "" {
		// Saturday morning UTC, after the Friday afternoon release.
		cfg.IngestCron = "0 6 * * 6"
	}
	cfg.IngestCommodities = commodities(list("INGEST_COMMODITIES", domain.SupportedCommodities))
	cfg.IngestLookbackDays = positiveInt("INGEST_LOOKBACK_DAYS", 14)

	cfg.SSHPort = positiveInt("SSH_PORT", 2222)
	cfg.SSHHostKeyPath = strings.TrimSpace(os.Getenv("SSH_HOST_KEY_PATH"))
	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = ".ssh/cot_dashboard_ed25519"
	}

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		logrus.Warnf("unsupported MCP_TRANSPORT=%q, defaulting to stdio", cfg.MCPTransport)
		cfg.MCPTransport = "stdio"
	}
	cfg.MCPHTTPBind = strings.TrimSpace(os.Getenv("MCP_HTTP_BIND"))
	if cfg.MCPHTTPBind == "" {
		cfg.MCPHTTPBind = "127.0.0.1"
	}
	cfg.MCPHTTPPort = positiveInt("MCP_HTTP_PORT", 8090)
	cfg.MCPRequestTimeoutSecs = positiveInt("MCP_REQUEST_TIMEOUT_SECS", 30)

	return cfg
}

// HasServiceAccount reports whether background callers can log in.
func (c *Config) HasServiceAccount() bool {
	return c.ServiceUsername != "" && c.ServicePassword != ""
}

func positiveInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		logrus.Warnf("invalid %s=%q, using %d", key, v, def)
	}
	return def
}

func boolean(key string, def bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		logrus.Warnf("invalid %s=%q, using %t", key, v, def)
	}
	return def
}

func list(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return append([]string(nil), def...)
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		logrus.Warnf("invalid %s=%q, using defaults", key, v)
		return append([]string(nil), def...)
	}
	return out
}

func commodities(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		canonical, ok := domain.NormalizeCommodity(name)
		if !ok {
			logrus.Warnf("ignoring unknown commodity %q in INGEST_COMMODITIES", name)
			continue
		}
		out = append(out, canonical)
	}
	return out
}
