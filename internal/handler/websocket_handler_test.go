package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/codepinky/ruptura/ruptura-backend/internal/ledger"
	"github.com/codepinky/ruptura/ruptura-backend/internal/websocket"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTokenValidator is a test double for websocket token validation
type mockTokenValidator struct {
	userID string
	err    error
}

func (m *mockTokenValidator) ValidateToken(ctx context.Context, token string) (string, error) {
	return m.userID, m.err
}

var testAllowedOrigins = []string{"http://localhost:3000", "https://ruptura.app"}

func TestWebSocketHandler_HandleWS_MissingToken(t *testing.T) {
	e := echo.New()
	hub := websocket.NewHub()
	h := NewWebSocketHandler(hub, nil, &mockTokenValidator{userID: "alice"}, testAllowedOrigins)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.HandleWS(c)

	assert.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestWebSocketHandler_HandleWS_InvalidToken(t *testing.T) {
	e := echo.New()
	hub := websocket.NewHub()
	h := NewWebSocketHandler(hub, nil, &mockTokenValidator{err: errors.New("expired")}, testAllowedOrigins)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ws?token=invalid-jwt", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.HandleWS(c)

	assert.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	assert.Zero(t, hub.TotalClientCount())
}

func TestWebSocketHandler_HandleWS_ValidToken_NoUpgrade(t *testing.T) {
	e := echo.New()
	hub := websocket.NewHub()
	env := newTestEnv(t)
	h := NewWebSocketHandler(hub, env.sessions, &mockTokenValidator{userID: testUser}, testAllowedOrigins)

	// Valid token but not a WebSocket upgrade request
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ws?token=valid-jwt", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.HandleWS(c)

	// Auth passed; the upgrade itself fails
	assert.Error(t, err)
	if httpErr, ok := err.(*echo.HTTPError); ok {
		assert.NotEqual(t, http.StatusUnauthorized, httpErr.Code)
	}
	assert.Zero(t, hub.TotalClientCount())
	assert.Equal(t, 1, env.sessions.Count(), "token accepted opens the ledger session")
}

func TestWebSocketHandler_HandleWS_SessionUnavailable(t *testing.T) {
	e := echo.New()
	hub := websocket.NewHub()
	env := newTestEnv(t)
	env.sessions.CloseAll()
	h := NewWebSocketHandler(hub, env.sessions, &mockTokenValidator{userID: testUser}, testAllowedOrigins)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ws?token=valid-jwt", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	err := h.HandleWS(c)

	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.Code)
	assert.Zero(t, hub.TotalClientCount())
}

func TestWebSocketHandler_StatusRoundTrip(t *testing.T) {
	env := newTestEnv(t, domain.Goal{ID: "g1", Name: "Car", TargetAmount: dec("1000"), CurrentAmount: dec("0")})
	hub := websocket.NewHub()
	h := NewWebSocketHandler(hub, env.sessions, &mockTokenValidator{userID: testUser}, testAllowedOrigins)

	e := echo.New()
	e.GET("/api/v1/ws", h.HandleWS)
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws?token=valid-jwt"
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	type statusEvent struct {
		Type    string        `json:"type"`
		Payload ledger.Status `json:"payload"`
	}
	read := func() statusEvent {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var evt statusEvent
		require.NoError(t, conn.ReadJSON(&evt))
		return evt
	}

	first := read()
	assert.Equal(t, "session.status", first.Type)
	assert.Eventually(t, func() bool { return hub.ClientCount(testUser) == 1 }, time.Second, 10*time.Millisecond)

	env.ready(t)
	require.NoError(t, conn.WriteJSON(websocket.Request{Type: websocket.RequestTypeStatus}))
	reply := read()
	assert.Equal(t, "session.status", reply.Type)
	assert.True(t, reply.Payload.Ready)
	assert.Equal(t, 1, reply.Payload.Collections[domain.CollectionGoals].Count)

	require.NoError(t, conn.WriteMessage(ws.TextMessage, []byte(`{"type":"subscribe"}`)))
	assert.Equal(t, "session.error", read().Type)
}

func TestWebSocketHandler_CheckOrigin(t *testing.T) {
	hub := websocket.NewHub()
	h := NewWebSocketHandler(hub, nil, &mockTokenValidator{userID: "alice"}, testAllowedOrigins)

	tests := []struct {
		name     string
		origin   string
		expected bool
	}{
		{"allowed origin", "http://localhost:3000", true},
		{"allowed origin https", "https://ruptura.app", true},
		{"disallowed origin", "https://evil.com", false},
		{"empty origin (same-origin)", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			result := h.checkOrigin(req)
			assert.Equal(t, tt.expected, result)
		})
	}
}
