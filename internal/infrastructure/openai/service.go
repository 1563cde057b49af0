package openai

import (
	"sync"

	"github.com/deepgram/parlor/internal/config"
	"github.com/deepgram/parlor/internal/logger"
	"github.com/sashabaranov/go-openai"
)

type Service struct {
	mu     sync.RWMutex
	client *openai.Client
}

// NewService builds the OpenAI client from the environment. The key is not checked
// against the API here; a missing or invalid key surfaces on the first completion.
func NewService() *Service {
	logger.For(logger.COMPLETION).Info().Msg("Initialising OpenAI service")
	return NewServiceWithConfig(config.GetOpenAIKey(), config.GetOpenAIBaseURL())
}

// NewServiceWithConfig builds the client for an explicit key and base URL. An empty
// base URL keeps the library default.
func NewServiceWithConfig(key, baseURL string) *Service {
	cfg := openai.DefaultConfig(key)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &Service{
		client: openai.NewClientWithConfig(cfg),
	}
}

func (s *Service) GetClient() *openai.Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}
