package services

import (
	"github.com/deepgram/parlor/internal/config"
	"github.com/deepgram/parlor/internal/infrastructure/openai"
	"github.com/deepgram/parlor/internal/infrastructure/redis"
	"github.com/deepgram/parlor/internal/services/chat"
	"github.com/deepgram/parlor/internal/services/completion"
	"github.com/deepgram/parlor/internal/services/session"
	"github.com/rs/zerolog/log"
)

type Services struct {
	redisService   *redis.Service
	sessionService *session.Service
	turnHandler    *chat.Handler
}

// InitializeServices wires the completion client, session storage and turn handler
// from the environment.
func InitializeServices() (*Services, error) {
	log.Info().Msg("Initializing core services")

	// Initialize Redis service (optional)
	redisService := redis.NewService()
	log.Info().Bool("redis", redisService != nil).Msg("Initializing session service")
	sessionService := session.NewService(redisService, config.GetSessionTTL(), config.GetMaxSessions())

	openAIService := openai.NewService()
	completionClient := completion.NewService(openAIService.GetClient(), completion.Options{
		Model:       config.GetChatModel(),
		Temperature: config.GetChatTemperature(),
	})
	log.Info().Str("model", config.GetChatModel()).Msg("Initializing completion client")

	services := New(completionClient, sessionService)
	services.redisService = redisService

	log.Info().Msg("All services initialized successfully")
	return services, nil
}

// New assembles Services around an existing completion client and session service.
func New(completionClient completion.Client, sessionService *session.Service) *Services {
	return &Services{
		sessionService: sessionService,
		turnHandler:    chat.NewHandler(completionClient, config.GetSystemInstruction(), config.GetCompletionTimeout()),
	}
}

// GetTurnHandler returns the turn handler
func (s *Services) GetTurnHandler() *chat.Handler {
	return s.turnHandler
}

// GetSessionService returns the session service
func (s *Services) GetSessionService() *session.Service {
	return s.sessionService
}

// Close releases external connections
func (s *Services) Close() error {
	if s.redisService != nil {
		return s.redisService.Close()
	}
	return nil
}
