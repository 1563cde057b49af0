package config

import (
	"sync"

	"github.com/deepgram/parlor/internal/logger"
)

const devSessionSecret = "parlor-development-secret"

var (
	sessionSecretMu       sync.RWMutex
	sessionSecretOverride []byte
)

// SetSessionSecret temporarily changes the session signing secret and returns a function to restore it
// This is primarily used for testing
func SetSessionSecret(secret []byte) func() {
	sessionSecretMu.Lock()
	previous := sessionSecretOverride
	sessionSecretOverride = secret
	sessionSecretMu.Unlock()

	return func() {
		sessionSecretMu.Lock()
		sessionSecretOverride = previous
		sessionSecretMu.Unlock()
	}
}

// GetSessionSecret returns the key used to sign session cookies in a thread-safe manner
func GetSessionSecret() []byte {
	sessionSecretMu.RLock()
	defer sessionSecretMu.RUnlock()
	if sessionSecretOverride != nil {
		return sessionSecretOverride
	}

	value := GetEnvOrDefault("SESSION_SECRET", "")
	if value == "" {
		logger.For(logger.CONFIG).Warn().Msg("SESSION_SECRET not set - using development secret")
		return []byte(devSessionSecret)
	}
	return []byte(value)
}
