package config

import (
	"time"

	"github.com/deepgram/parlor/internal/logger"
)

type RateLimitConfig struct {
	Enabled bool
	MaxHits int
	Window  time.Duration
}

func GetRateLimitConfig(key string) RateLimitConfig {
	enabled := parseEnvBool("RATELIMIT_ENABLED", false)

	configs := map[string]RateLimitConfig{
		"global": {
			Enabled: enabled,
			MaxHits: parseEnvInt("RATELIMIT_GLOBAL", 1000), // 1000 requests per minute globally
			Window:  time.Minute,
		},
		"chat_turn": {
			Enabled: enabled,
			MaxHits: parseEnvInt("RATELIMIT_CHAT_TURN", 30), // 30 turns per minute
			Window:  time.Minute,
		},
	}

	if config, exists := configs[key]; exists {
		return config
	}

	logger.For(logger.CONFIG).Warn().Str("key", key).Msg("No rate limit config found")
	return RateLimitConfig{Enabled: false}
}

// GetTrustProxyHeaders reports whether X-Forwarded-For identifies the client.
// Only enable it behind a proxy that overwrites the header.
func GetTrustProxyHeaders() bool {
	return parseEnvBool("TRUST_PROXY_HEADERS", false)
}
