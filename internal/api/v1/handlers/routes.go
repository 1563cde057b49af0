package handlers

import (
	"html/template"
	"net/http"

	"github.com/deepgram/parlor/internal/api/v1/handlers/websocket"
	v1mware "github.com/deepgram/parlor/internal/api/v1/middleware"
	"github.com/deepgram/parlor/internal/connections"
	"github.com/deepgram/parlor/internal/services"
	"github.com/gorilla/mux"
)

// RegisterRoutes mounts the chat page, the v1 JSON API and the transcript websocket
func RegisterRoutes(router *mux.Router, services *services.Services, tmpl *template.Template, manager *connections.Manager) {
	router.HandleFunc("/healthz", HandleHealth).Methods("GET")

	// Session teardown must not start a fresh session first
	router.HandleFunc("/v1/session", func(w http.ResponseWriter, r *http.Request) {
		HandleDeleteSession(services.GetSessionService(), w, r)
	}).Methods("DELETE")

	// Everything else runs inside the visitor's chat session
	sessionRouter := router.NewRoute().Subrouter()
	sessionRouter.Use(v1mware.RateLimit("global"))
	sessionRouter.Use(v1mware.RequireSession(services.GetSessionService()))

	// The form and the JSON API draw turns from one budget
	chatTurnLimit := v1mware.RateLimit("chat_turn")

	// Page routes
	sessionRouter.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		HandleIndex(tmpl, w, r)
	}).Methods("GET")
	sessionRouter.Handle("/chat", chatTurnLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		HandleChatForm(services.GetTurnHandler(), w, r)
	}))).Methods("POST")

	// v1 routes
	v1 := sessionRouter.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/transcript", HandleGetTranscript).Methods("GET")
	v1.Handle("/messages", chatTurnLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		HandlePostMessage(services.GetTurnHandler(), w, r)
	}))).Methods("POST")
	v1.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		websocket.HandleTranscriptWebSocket(manager, w, r)
	}).Methods("GET")
}
