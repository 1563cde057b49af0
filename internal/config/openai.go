package config

import (
	"strconv"
	"time"

	"github.com/deepgram/parlor/internal/logger"
)

const (
	DefaultChatModel         = "gpt-3.5-turbo-0125"
	DefaultChatTemperature   = float32(0.2)
	DefaultSystemInstruction = "You are a helpful assistant. Answer all questions to the best of your ability."
)

// GetOpenAIKey returns the OpenAI API key. A missing key is only reported; the
// completion endpoint rejects the first request instead.
func GetOpenAIKey() string {
	value := GetEnvOrDefault("OPENAI_API_KEY", GetEnvOrDefault("OPENAI_KEY", ""))
	if value == "" {
		logger.For(logger.CONFIG).Warn().Msg("OPENAI_API_KEY not set - completions will fail until it is configured")
	}
	return value
}

// GetOpenAIBaseURL returns an alternative API base URL, or "" for the library default
func GetOpenAIBaseURL() string {
	return GetEnvOrDefault("OPENAI_BASE_URL", "")
}

func GetChatModel() string {
	return GetEnvOrDefault("CHAT_MODEL", DefaultChatModel)
}

func GetChatTemperature() float32 {
	val := GetEnvOrDefault("CHAT_TEMPERATURE", "")
	if val == "" {
		return DefaultChatTemperature
	}

	parsed, err := strconv.ParseFloat(val, 32)
	if err != nil || parsed < 0 || parsed > 2 {
		logger.For(logger.CONFIG).Warn().Str("value", val).Msg("Invalid CHAT_TEMPERATURE, using default")
		return DefaultChatTemperature
	}

	return float32(parsed)
}

func GetSystemInstruction() string {
	return GetEnvOrDefault("CHAT_SYSTEM_INSTRUCTION", DefaultSystemInstruction)
}

// GetCompletionTimeout bounds a single completion call; zero disables the bound
func GetCompletionTimeout() time.Duration {
	return parseEnvDuration("COMPLETION_TIMEOUT", 0)
}
