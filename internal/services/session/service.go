package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/deepgram/parlor/internal/config"
	"github.com/deepgram/parlor/internal/infrastructure/redis"
	"github.com/deepgram/parlor/internal/logger"
	"github.com/deepgram/parlor/internal/services/chat"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const redisKeyPrefix = "parlor:session:"

type SessionClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// SessionStore records issued session claims so that a signed cookie is only honoured
// while its session is known.
type SessionStore interface {
	Set(ctx context.Context, sessionID string, claims *SessionClaims, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (*SessionClaims, error)
	Delete(ctx context.Context, sessionID string) error
}

// KeyValue is the subset of the Redis service the claims store needs. Get returns
// redis.Nil for a missing key.
type KeyValue interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type RedisStore struct {
	kv KeyValue
}

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*SessionClaims
}

// Service issues session cookies and owns the live chat sessions behind them.
type Service struct {
	store SessionStore
	ttl   time.Duration

	mu   sync.Mutex
	live *expirable.LRU[string, *chat.Session]
}

// NewService uses Redis for session claims when it is reachable and memory otherwise.
// At most maxSessions chat sessions are kept; the least recently used one and any
// session older than ttl is torn down.
func NewService(redisService *redis.Service, ttl time.Duration, maxSessions int) *Service {
	var store SessionStore
	if redisService != nil {
		if err := redisService.Ping(context.Background()); err != nil {
			logger.For(logger.SESSION).Warn().Err(err).Msg("Redis unavailable - using in-memory session store")
			store = newMemoryStore()
		} else {
			store = NewRedisStore(redisService)
		}
	} else {
		store = newMemoryStore()
	}

	return newService(store, ttl, maxSessions)
}

func newService(store SessionStore, ttl time.Duration, maxSessions int) *Service {
	onEvict := func(id string, sess *chat.Session) {
		sess.Close()
		logger.For(logger.SESSION).Info().Str("session_id", id).Msg("Chat session torn down")
	}

	return &Service{
		store: store,
		ttl:   ttl,
		live:  expirable.NewLRU[string, *chat.Session](maxSessions, onEvict, ttl),
	}
}

// NewRedisStore keeps session claims under the parlor:session: prefix in kv.
func NewRedisStore(kv KeyValue) *RedisStore {
	return &RedisStore{kv: kv}
}

func newMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*SessionClaims),
	}
}

// Redis Store implementation
func (rs *RedisStore) Set(ctx context.Context, sessionID string, claims *SessionClaims, ttl time.Duration) error {
	data, err := json.Marshal(claims)
	if err != nil {
		return err
	}

	return rs.kv.Set(ctx, redisKeyPrefix+sessionID, string(data), ttl)
}

func (rs *RedisStore) Get(ctx context.Context, sessionID string) (*SessionClaims, error) {
	data, err := rs.kv.Get(ctx, redisKeyPrefix+sessionID)
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var claims SessionClaims
	if err := json.Unmarshal([]byte(data), &claims); err != nil {
		return nil, err
	}

	return &claims, nil
}

func (rs *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return rs.kv.Delete(ctx, redisKeyPrefix+sessionID)
}

// Memory Store implementation
func (ms *MemoryStore) Set(ctx context.Context, sessionID string, claims *SessionClaims, ttl time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.sessions[sessionID] = claims
	return nil
}

func (ms *MemoryStore) Get(ctx context.Context, sessionID string) (*SessionClaims, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	claims, exists := ms.sessions[sessionID]
	if !exists {
		return nil, nil
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		delete(ms.sessions, sessionID)
		return nil, nil
	}
	return claims, nil
}

func (ms *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.sessions, sessionID)
	return nil
}

// Resolve returns the chat session for the request's cookie, starting a new session
// and setting its cookie when there is no valid one.
func (s *Service) Resolve(w http.ResponseWriter, r *http.Request) (*chat.Session, error) {
	claims, err := s.validate(r)
	if err != nil {
		logger.For(logger.SESSION).Debug().Err(err).Msg("Ignoring invalid session cookie")
	}

	if claims != nil {
		s.mu.Lock()
		defer s.mu.Unlock()

		if sess, ok := s.live.Get(claims.SessionID); ok {
			return sess, nil
		}

		// The cookie outlived its in-memory session; continue under the same ID.
		// Remove closes an expired entry the LRU has not swept yet, Add would not.
		s.live.Remove(claims.SessionID)
		sess := chat.NewSession(claims.SessionID)
		s.live.Add(sess.ID(), sess)
		return sess, nil
	}

	return s.create(r.Context(), w)
}

// Lookup returns a live session by ID.
func (s *Service) Lookup(sessionID string) (*chat.Session, bool) {
	return s.live.Peek(sessionID)
}

// Count is the number of live chat sessions.
func (s *Service) Count() int {
	return s.live.Len()
}

func (s *Service) create(ctx context.Context, w http.ResponseWriter) (*chat.Session, error) {
	sessionID := uuid.New().String()
	now := time.Now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        sessionID,
		},
		SessionID: sessionID,
	}

	if err := s.store.Set(ctx, sessionID, claims, s.ttl); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(config.GetSessionSecret())
	if err != nil {
		return nil, fmt.Errorf("failed to sign session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     config.GetSessionCookieName(),
		Value:    signedToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   config.GetSessionCookieSecure(),
		SameSite: http.SameSiteStrictMode,
		Expires:  now.Add(s.ttl),
	})

	sess := chat.NewSession(sessionID)
	s.mu.Lock()
	s.live.Add(sessionID, sess)
	s.mu.Unlock()

	logger.For(logger.SESSION).Info().Str("session_id", sessionID).Msg("Chat session started")
	return sess, nil
}

// validate checks the session cookie and returns its claims, or nil when there is no
// usable session.
func (s *Service) validate(r *http.Request) (*SessionClaims, error) {
	cookie, err := r.Cookie(config.GetSessionCookieName())
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, err
	}

	claims, err := parseClaims(cookie.Value)
	if err != nil {
		return nil, err
	}

	storedClaims, err := s.store.Get(r.Context(), claims.SessionID)
	if err != nil {
		return nil, err
	}
	if storedClaims == nil {
		return nil, nil
	}

	return claims, nil
}

// Clear tears down the request's session, removes it from storage and expires the cookie.
func (s *Service) Clear(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(config.GetSessionCookieName()); err == nil {
		if claims, err := parseClaims(cookie.Value); err == nil {
			_ = s.store.Delete(r.Context(), claims.SessionID)
			s.mu.Lock()
			s.live.Remove(claims.SessionID)
			s.mu.Unlock()
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     config.GetSessionCookieName(),
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   config.GetSessionCookieSecure(),
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(-1 * time.Hour),
		MaxAge:   -1,
	})
}

func parseClaims(value string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(value, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return config.GetSessionSecret(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}
