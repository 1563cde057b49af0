package config

import (
	"github.com/deepgram/parlor/internal/logger"
)

func GetRedisURL() string {
	logger.For(logger.CONFIG).Debug().Msg("Attempting to retrieve Redis URL from environment")
	value := GetEnvOrDefault("REDIS_URL", "")
	if value == "" {
		logger.For(logger.CONFIG).Info().Msg("Redis URL not set - session claims will be kept in memory")
	} else {
		logger.For(logger.CONFIG).Info().Msg("Redis URL successfully loaded")
	}
	return value
}

func GetRedisPassword() string {
	return GetEnvOrDefault("REDIS_PASSWORD", "")
}
