package handlers

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/deepgram/parlor/internal/api/v1/middleware"
	"github.com/deepgram/parlor/internal/services/chat"
	"github.com/deepgram/parlor/internal/web"
	"github.com/rs/zerolog/log"
)

const (
	pageTitle     = "Intelligent Chatbot with OpenAI"
	pageSubheader = "This chatbot uses OpenAI's GPT models to answer your questions."
)

// HandleIndex renders the chat page for the current session
func HandleIndex(tmpl *template.Template, w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r)

	data := web.PageData{
		Title:      pageTitle,
		Subheader:  pageSubheader,
		Transcript: sess.Transcript().Text(),
		Input:      sess.Input(),
		Busy:       sess.State() == chat.AwaitingResponse,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		log.Error().Err(err).Str("session_id", sess.ID()).Msg("Failed to render chat page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// HandleChatForm runs one turn from the page form, then sends the browser back to the page
func HandleChatForm(turnHandler *chat.Handler, w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r)

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Warn().Int64("limit", tooLarge.Limit).Msg("Form body too large")
			http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
			return
		}
		log.Warn().Err(err).Msg("Client sent malformed form")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	input := r.PostForm.Get("user_input")
	if err := validate.Var(input, contentRule); err != nil {
		log.Warn().Err(err).Str("session_id", sess.ID()).Msg("Form input too long")
		http.Error(w, "Message too long", http.StatusBadRequest)
		return
	}
	if _, err := turnHandler.Submit(r.Context(), sess, input); err != nil {
		if !errors.Is(err, chat.ErrTurnInProgress) && !errors.Is(err, chat.ErrSessionClosed) {
			log.Error().Err(err).Str("session_id", sess.ID()).Msg("Failed to process turn")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		log.Info().Err(err).Str("session_id", sess.ID()).Msg("Form submission not processed")
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
