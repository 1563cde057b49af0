package config

import (
	"sync"
	"time"
)

var (
	sessionCookieMu       sync.RWMutex
	sessionCookieOverride string
)

// GetSessionCookieName returns the configured session cookie name
func GetSessionCookieName() string {
	sessionCookieMu.RLock()
	defer sessionCookieMu.RUnlock()
	if sessionCookieOverride != "" {
		return sessionCookieOverride
	}
	return GetEnvOrDefault("SESSION_COOKIE_NAME", "parlor_session")
}

// SetSessionCookieName temporarily changes the session cookie name and returns a function to restore it
// This is primarily used for testing
func SetSessionCookieName(name string) func() {
	sessionCookieMu.Lock()
	previous := sessionCookieOverride
	sessionCookieOverride = name
	sessionCookieMu.Unlock()

	return func() {
		sessionCookieMu.Lock()
		sessionCookieOverride = previous
		sessionCookieMu.Unlock()
	}
}

func GetSessionCookieSecure() bool {
	return parseEnvBool("SESSION_COOKIE_SECURE", true)
}

// GetSessionTTL is how long a chat session lives, counted from when it was started.
// Activity does not extend it.
func GetSessionTTL() time.Duration {
	ttl := parseEnvDuration("SESSION_TTL", time.Hour)
	if ttl == 0 {
		return time.Hour
	}
	return ttl
}

// GetMaxSessions caps the number of live chat sessions held in memory
func GetMaxSessions() int {
	max := parseEnvInt("SESSION_MAX", 1000)
	if max <= 0 {
		return 1000
	}
	return max
}
