package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/deepgram/parlor/internal/api/v1/middleware"
	"github.com/deepgram/parlor/internal/config"
	"github.com/deepgram/parlor/internal/connections"
	"github.com/deepgram/parlor/internal/domain/chat/models"
	"github.com/deepgram/parlor/internal/services"
	"github.com/deepgram/parlor/internal/services/chat"
	"github.com/deepgram/parlor/internal/services/session"
	"github.com/deepgram/parlor/internal/web"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCompletionClient mocks the completion client
type MockCompletionClient struct {
	mock.Mock
}

func (m *MockCompletionClient) Complete(ctx context.Context, systemInstruction string, messages []models.Message) (models.Completion, error) {
	args := m.Called(ctx, systemInstruction, messages)
	result, _ := args.Get(0).(models.Completion)
	return result, args.Error(1)
}

func newTestServer(t *testing.T, client *MockCompletionClient) (*httptest.Server, *http.Client) {
	t.Helper()
	t.Setenv("SESSION_COOKIE_SECURE", "false")
	t.Cleanup(config.SetSessionSecret([]byte("test-secret")))

	tmpl, err := web.Templates()
	require.NoError(t, err)

	svcs := services.New(client, session.NewService(nil, time.Hour, 10))
	router := mux.NewRouter()
	RegisterRoutes(router, svcs, tmpl, connections.NewManager(connections.DefaultTimeouts))

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return server, &http.Client{Jar: jar}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestChatPageScenario(t *testing.T) {
	client := &MockCompletionClient{}
	client.On("Complete", mock.Anything, config.GetSystemInstruction(), []models.Message{
		models.NewUserMessage("What is 2+2?"),
	}).Return(models.Success{Message: models.NewAssistantMessage("4")}, nil).Once()

	server, httpClient := newTestServer(t, client)

	resp, err := httpClient.Get(server.URL + "/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	page := readBody(t, resp)
	assert.Contains(t, page, `id="history" hidden`)

	resp, err = httpClient.PostForm(server.URL+"/chat", url.Values{"user_input": {"What is 2+2?"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/", resp.Request.URL.Path, "form post should redirect back to the page")

	page = readBody(t, resp)
	assert.Contains(t, page, "What is 2+2?\n4</textarea>")
	assert.Contains(t, page, `name="user_input" value=""`)
	client.AssertExpectations(t)

	resp, err = httpClient.Get(server.URL + "/v1/transcript")
	require.NoError(t, err)
	var transcript TranscriptResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&transcript))
	resp.Body.Close()

	assert.Equal(t, []models.Message{
		{Role: models.RoleUser, Content: "What is 2+2?"},
		{Role: models.RoleAssistant, Content: "4"},
	}, transcript.Messages)
	assert.Equal(t, "What is 2+2?\n4", transcript.Text)
}

func TestChatFormIgnoresBlankInput(t *testing.T) {
	client := &MockCompletionClient{}
	server, httpClient := newTestServer(t, client)

	resp, err := httpClient.PostForm(server.URL+"/chat", url.Values{"user_input": {"   "}})
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = httpClient.Get(server.URL + "/v1/transcript")
	require.NoError(t, err)
	var transcript TranscriptResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&transcript))
	resp.Body.Close()

	assert.Empty(t, transcript.Messages)
	client.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestSessionsAreIsolated(t *testing.T) {
	client := &MockCompletionClient{}
	client.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(models.Success{Message: models.NewAssistantMessage("hi")}, nil)

	server, alice := newTestServer(t, client)
	bobJar, err := cookiejar.New(nil)
	require.NoError(t, err)
	bob := &http.Client{Jar: bobJar}

	resp, err := alice.PostForm(server.URL+"/chat", url.Values{"user_input": {"hello from alice"}})
	require.NoError(t, err)
	readBody(t, resp)

	resp, err = bob.Get(server.URL + "/")
	require.NoError(t, err)
	assert.NotContains(t, readBody(t, resp), "hello from alice")
}

func TestHandlePostMessage(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMocks     func(*MockCompletionClient)
		expectedStatus int
		expectAccepted bool
		expectMessages int
	}{
		{
			name: "Valid message",
			body: `{"content":"Hello"}`,
			setupMocks: func(m *MockCompletionClient) {
				m.On("Complete", mock.Anything, mock.Anything, mock.Anything).
					Return(models.Success{Message: models.NewAssistantMessage("Hello!")}, nil)
			},
			expectedStatus: http.StatusOK,
			expectAccepted: true,
			expectMessages: 2,
		},
		{
			name:           "Blank message is a no-op",
			body:           `{"content":"  "}`,
			setupMocks:     func(m *MockCompletionClient) {},
			expectedStatus: http.StatusOK,
			expectAccepted: false,
			expectMessages: 0,
		},
		{
			name:           "Malformed JSON",
			body:           "invalid json",
			setupMocks:     func(m *MockCompletionClient) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Body over the size cap",
			body:           `{"content":"` + strings.Repeat("a", maxBodyBytes) + `"}`,
			setupMocks:     func(m *MockCompletionClient) {},
			expectedStatus: http.StatusRequestEntityTooLarge,
		},
		{
			name:           "Content too long",
			body:           `{"content":"` + strings.Repeat("a", 8001) + `"}`,
			setupMocks:     func(m *MockCompletionClient) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &MockCompletionClient{}
			tt.setupMocks(client)

			handler := chat.NewHandler(client, "sys", 0)
			sess := chat.NewSession("s1")

			req := httptest.NewRequest(http.MethodPost, "/v1/messages", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			HandlePostMessage(handler, w, middleware.WithSession(req, sess))

			assert.Equal(t, tt.expectedStatus, w.Code)
			client.AssertExpectations(t)

			if tt.expectedStatus == http.StatusOK {
				var response MessageResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
				assert.Equal(t, tt.expectAccepted, response.Accepted)
				assert.Len(t, response.Messages, tt.expectMessages)
			}
		})
	}
}

func TestHandlePostMessageConflict(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})

	client := &MockCompletionClient{}
	client.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(models.Success{Message: models.NewAssistantMessage("done")}, nil).Once()

	handler := chat.NewHandler(client, "sys", 0)
	sess := chat.NewSession("s1")

	done := make(chan struct{})
	go func() {
		defer close(done)
		req := httptest.NewRequest(http.MethodPost, "/v1/messages", bytes.NewBufferString(`{"content":"first"}`))
		HandlePostMessage(handler, httptest.NewRecorder(), middleware.WithSession(req, sess))
	}()
	<-entered

	req := httptest.NewRequest(http.MethodPost, "/v1/messages", bytes.NewBufferString(`{"content":"second"}`))
	w := httptest.NewRecorder()
	HandlePostMessage(handler, w, middleware.WithSession(req, sess))
	assert.Equal(t, http.StatusConflict, w.Code)

	close(release)
	<-done
	assert.Equal(t, 2, sess.Transcript().Len())
}

func TestDeleteSession(t *testing.T) {
	client := &MockCompletionClient{}
	client.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(models.Success{Message: models.NewAssistantMessage("hi")}, nil)

	server, httpClient := newTestServer(t, client)

	resp, err := httpClient.PostForm(server.URL+"/chat", url.Values{"user_input": {"remember me"}})
	require.NoError(t, err)
	assert.Contains(t, readBody(t, resp), "remember me")

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/v1/session", nil)
	require.NoError(t, err)
	resp, err = httpClient.Do(req)
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = httpClient.Get(server.URL + "/")
	require.NoError(t, err)
	assert.NotContains(t, readBody(t, resp), "remember me")
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	server, httpClient := newTestServer(t, &MockCompletionClient{})

	resp, err := httpClient.Get(server.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, readBody(t, resp))

	resp, err = httpClient.Get(server.URL + "/invalid")
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChatFormRejectsLongInput(t *testing.T) {
	client := &MockCompletionClient{}
	server, httpClient := newTestServer(t, client)

	resp, err := httpClient.PostForm(server.URL+"/chat", url.Values{"user_input": {strings.Repeat("a", 8001)}})
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = httpClient.Get(server.URL + "/v1/transcript")
	require.NoError(t, err)
	var transcript TranscriptResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&transcript))
	resp.Body.Close()

	assert.Empty(t, transcript.Messages)
	client.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestChatFormRejectsOversizedBody(t *testing.T) {
	client := &MockCompletionClient{}
	sess := chat.NewSession("s1")

	form := url.Values{"user_input": {strings.Repeat("a", maxBodyBytes)}}
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()

	HandleChatForm(chat.NewHandler(client, "sys", 0), w, middleware.WithSession(req, sess))

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Zero(t, sess.Transcript().Len())
	client.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestChatTurnLimitIsSharedAcrossRoutes(t *testing.T) {
	t.Setenv("RATELIMIT_ENABLED", "true")
	t.Setenv("RATELIMIT_CHAT_TURN", "2")

	client := &MockCompletionClient{}
	client.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(models.Success{Message: models.NewAssistantMessage("ok")}, nil)

	server, httpClient := newTestServer(t, client)

	var codes []int
	for i := 0; i < 2; i++ {
		resp, err := httpClient.PostForm(server.URL+"/chat", url.Values{"user_input": {"form turn"}})
		require.NoError(t, err)
		readBody(t, resp)
		codes = append(codes, resp.StatusCode)

		resp, err = httpClient.Post(server.URL+"/v1/messages", "application/json", strings.NewReader(`{"content":"api turn"}`))
		require.NoError(t, err)
		readBody(t, resp)
		codes = append(codes, resp.StatusCode)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
	client.AssertNumberOfCalls(t, "Complete", 2)
}
