package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/deepgram/parlor/internal/domain/chat/models"
	"github.com/deepgram/parlor/internal/logger"
	"github.com/deepgram/parlor/internal/services/completion"
)

var (
	ErrTurnInProgress = errors.New("a turn is already in progress for this session")
	ErrSessionClosed  = errors.New("session has been closed")
)

// Handler runs conversation turns against a completion client.
type Handler struct {
	client            completion.Client
	systemInstruction string
	timeout           time.Duration
}

// NewHandler creates a turn handler. A zero timeout leaves completion calls unbounded.
func NewHandler(client completion.Client, systemInstruction string, timeout time.Duration) *Handler {
	return &Handler{
		client:            client,
		systemInstruction: systemInstruction,
		timeout:           timeout,
	}
}

// Submit runs one turn for session. Blank input is ignored and reported as not
// accepted. Once accepted the turn always appends both the user message and an
// assistant reply; completion failures are answered with models.FallbackReply.
func (h *Handler) Submit(ctx context.Context, session *Session, input string) (bool, error) {
	log := logger.For(logger.CHAT)

	if strings.TrimSpace(input) == "" {
		log.Debug().Str("session_id", session.ID()).Msg("Ignoring blank submission")
		return false, nil
	}

	if err := session.begin(input); err != nil {
		log.Warn().Err(err).Str("session_id", session.ID()).Msg("Submission rejected")
		return false, err
	}
	defer session.finish()

	store := session.Transcript()
	store.Append(models.NewUserMessage(input))
	history := store.All()

	// The turn is finished even if the caller goes away mid-call.
	callCtx := context.WithoutCancel(ctx)
	if h.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, h.timeout)
		defer cancel()
	}

	started := time.Now()
	result, err := h.client.Complete(callCtx, h.systemInstruction, history)

	var reply models.Message
	switch {
	case err != nil:
		log.Error().Err(err).Str("session_id", session.ID()).Msg("Completion failed, replying with fallback")
		reply = models.NewAssistantMessage(models.FallbackReply)
	default:
		if u, ok := result.(models.Unrecognized); ok {
			log.Warn().Str("session_id", session.ID()).Str("reason", u.Reason).Msg("Unrecognized completion response")
		}
		reply = models.Reply(result)
	}

	store.Append(reply)

	log.Info().
		Str("session_id", session.ID()).
		Int("transcript_length", store.Len()).
		Dur("latency", time.Since(started)).
		Msg("Turn completed")

	return true, nil
}
