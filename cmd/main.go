package main

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deepgram/parlor/internal/api/v1/handlers"
	"github.com/deepgram/parlor/internal/config"
	"github.com/deepgram/parlor/internal/connections"
	"github.com/deepgram/parlor/internal/logger"
	"github.com/deepgram/parlor/internal/services"
	"github.com/deepgram/parlor/internal/web"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	envErr := godotenv.Load()
	logger.Init()
	if envErr != nil {
		log.Info().Msg("No .env file found, using environment variables")
	}

	svcs, err := services.InitializeServices()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer func() {
		if err := svcs.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close services")
		}
	}()

	tmpl, err := web.Templates()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse page templates")
	}

	r := setupRouter(svcs, tmpl, connections.NewManager(connections.DefaultTimeouts))

	srv := &http.Server{
		Addr:              ":" + config.GetPort(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

func setupRouter(svcs *services.Services, tmpl *template.Template, manager *connections.Manager) *mux.Router {
	r := mux.NewRouter()
	handlers.RegisterRoutes(r, svcs, tmpl, manager)
	return r
}
