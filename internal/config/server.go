package config

import "time"

func GetPort() string {
	return GetEnvOrDefault("PORT", "8080")
}

func GetShutdownTimeout() time.Duration {
	return parseEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
}
