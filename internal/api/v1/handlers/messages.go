package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/deepgram/parlor/internal/api/v1/middleware"
	"github.com/deepgram/parlor/internal/domain/chat/models"
	"github.com/deepgram/parlor/internal/services/chat"
	"github.com/deepgram/parlor/internal/services/session"
	"github.com/deepgram/parlor/pkg/httpext"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

const (
	// maxBodyBytes bounds a turn request body before it is decoded
	maxBodyBytes = 64 << 10
	// contentRule is the length rule on MessageRequest.Content, shared with the form
	contentRule = "max=8000"
)

// use a single instance of Validate, it caches struct info
var validate = validator.New(validator.WithRequiredStructEnabled())

type MessageRequest struct {
	Content string `json:"content" validate:"max=8000"`
}

type TranscriptResponse struct {
	Messages []models.Message `json:"messages"`
	Text     string           `json:"text"`
}

type MessageResponse struct {
	Accepted bool `json:"accepted"`
	TranscriptResponse
}

func transcriptResponse(sess *chat.Session) TranscriptResponse {
	messages := sess.Transcript().All()
	return TranscriptResponse{
		Messages: messages,
		Text:     models.JoinContent(messages),
	}
}

// HandleGetTranscript returns the session transcript
func HandleGetTranscript(w http.ResponseWriter, r *http.Request) {
	httpext.Json(w, http.StatusOK, transcriptResponse(middleware.GetSession(r)))
}

// HandlePostMessage runs one turn for the session and returns the resulting transcript
func HandlePostMessage(turnHandler *chat.Handler, w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r)

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Warn().Int64("limit", tooLarge.Limit).Msg("Request body too large")
			httpext.JsonError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		log.Warn().Err(err).Msg("Client sent malformed JSON request")
		httpext.JsonError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if err := validate.Struct(req); err != nil {
		log.Warn().Err(err).Msg("Request validation failed")
		httpext.JsonErrorWithDetails(w, http.StatusBadRequest, httpext.ErrorResponse{
			Error:            "Invalid request",
			ErrorDescription: err.Error(),
		})
		return
	}

	accepted, err := turnHandler.Submit(r.Context(), sess, req.Content)
	switch {
	case errors.Is(err, chat.ErrTurnInProgress):
		httpext.JsonError(w, "A turn is already in progress", http.StatusConflict)
		return
	case errors.Is(err, chat.ErrSessionClosed):
		httpext.JsonError(w, "Session has ended", http.StatusGone)
		return
	case err != nil:
		log.Error().Err(err).Str("session_id", sess.ID()).Msg("Failed to process turn")
		httpext.JsonError(w, "Failed to process message", http.StatusInternalServerError)
		return
	}

	httpext.Json(w, http.StatusOK, MessageResponse{
		Accepted:           accepted,
		TranscriptResponse: transcriptResponse(sess),
	})
}

// HandleDeleteSession ends the visitor's session and discards its transcript
func HandleDeleteSession(sessionService *session.Service, w http.ResponseWriter, r *http.Request) {
	sessionService.Clear(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// HandleHealth reports liveness
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	httpext.Json(w, http.StatusOK, map[string]string{"status": "ok"})
}
