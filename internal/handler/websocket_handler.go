package handler

import (
	"net/http"

	"github.com/codepinky/ruptura/ruptura-backend/internal/ledger"
	"github.com/codepinky/ruptura/ruptura-backend/internal/websocket"
	ws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// SessionOpener starts or returns a user's ledger session
type SessionOpener interface {
	Open(userID string) (*ledger.Session, error)
}

// sessionStatus answers websocket status requests from the user's session
type sessionStatus struct {
	sessions SessionOpener
}

func (s sessionStatus) SessionStatus(userID string) (interface{}, error) {
	session, err := s.sessions.Open(userID)
	if err != nil {
		return nil, err
	}
	return session.Status(), nil
}

// WebSocketHandler handles WebSocket connections. A connection keeps the
// user's ledger session open and can ask it for its sync status.
type WebSocketHandler struct {
	hub            *websocket.Hub
	sessions       SessionOpener
	validator      websocket.TokenValidator
	allowedOrigins map[string]bool
	upgrader       ws.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler
func NewWebSocketHandler(hub *websocket.Hub, sessions SessionOpener, validator websocket.TokenValidator, allowedOrigins []string) *WebSocketHandler {
	// Build origin lookup map
	originMap := make(map[string]bool)
	for _, origin := range allowedOrigins {
		originMap[origin] = true
	}

	h := &WebSocketHandler{
		hub:            hub,
		sessions:       sessions,
		validator:      validator,
		allowedOrigins: originMap,
	}

	h.upgrader = ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}

	return h
}

// checkOrigin validates the request origin against allowed origins
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Allow requests with no Origin header (e.g., same-origin or non-browser clients)
		return true
	}

	if h.allowedOrigins[origin] {
		return true
	}

	log.Warn().
		Str("origin", origin).
		Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// HandleWS handles WebSocket connection requests at GET /api/v1/ws
func (h *WebSocketHandler) HandleWS(c echo.Context) error {
	// Browsers cannot set headers on websocket requests
	token := c.QueryParam("token")
	if token == "" {
		log.Debug().Msg("WebSocket connection rejected: missing token")
		return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}

	userID, err := h.validator.ValidateToken(c.Request().Context(), token)
	if err != nil {
		log.Debug().Err(err).Msg("WebSocket connection rejected: invalid token")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	session, err := h.sessions.Open(userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("WebSocket connection rejected: no ledger session")
		return echo.NewHTTPError(http.StatusServiceUnavailable, "ledger session unavailable")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Error().Err(err).Msg("WebSocket upgrade failed")
		return err
	}

	client := websocket.NewClient(conn, userID, h.hub, sessionStatus{sessions: h.sessions})
	h.hub.Register(client)

	// the first frame tells the client whether the ledger has synced yet
	if err := client.SendEvent(websocket.SessionStatus(session.Status())); err != nil {
		log.Debug().Err(err).Str("client_id", client.ID()).Msg("WebSocket initial status dropped")
	}

	log.Info().
		Str("user_id", userID).
		Str("client_id", client.ID()).
		Msg("WebSocket client connected")

	go client.WritePump()
	go client.ReadPump()

	return nil
}
