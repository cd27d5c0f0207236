package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/codepinky/ruptura/ruptura-backend/internal/ledger"
	"github.com/codepinky/ruptura/ruptura-backend/internal/middleware"
	"github.com/codepinky/ruptura/ruptura-backend/internal/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// DefaultReadyTimeout bounds how long POST /session waits for the first sync
const DefaultReadyTimeout = 15 * time.Second

// SessionHandler opens and closes ledger sessions
type SessionHandler struct {
	sessions     *ledger.SessionManager
	publisher    websocket.EventPublisher
	readyTimeout time.Duration
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(sessions *ledger.SessionManager, publisher websocket.EventPublisher) *SessionHandler {
	return &SessionHandler{
		sessions:     sessions,
		publisher:    publisher,
		readyTimeout: DefaultReadyTimeout,
	}
}

// SessionResponse describes an open session
type SessionResponse struct {
	UserID     string        `json:"userId"`
	LastAccess time.Time     `json:"lastAccess"`
	Status     ledger.Status `json:"status"`
}

// Open handles POST /api/v1/session
func (h *SessionHandler) Open(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "User required")
	}

	session, err := h.sessions.Open(userID)
	if err != nil {
		return respondError(c, err, userID, "open session")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.readyTimeout)
	defer cancel()

	status := http.StatusOK
	if err := session.WaitReady(ctx); err != nil {
		if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return respondError(c, err, userID, "open session")
		}
		// collections still syncing; progress arrives as websocket events
		status = http.StatusAccepted
		log.Warn().Str("user_id", userID).Msg("Session not ready before timeout")
	}

	h.publisher.Publish(userID, websocket.SessionOpened())
	return c.JSON(status, toSessionResponse(session))
}

// Get handles GET /api/v1/session
func (h *SessionHandler) Get(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "User required")
	}

	session, err := h.sessions.Get(userID)
	if err != nil {
		return respondError(c, err, userID, "get session")
	}
	return c.JSON(http.StatusOK, toSessionResponse(session))
}

// Close handles DELETE /api/v1/session (logout)
func (h *SessionHandler) Close(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "User required")
	}

	if err := h.sessions.Close(userID); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return NewNotFoundError(c, "No open session")
		}
		return respondError(c, err, userID, "close session")
	}

	h.publisher.Publish(userID, websocket.SessionClosed())
	return c.NoContent(http.StatusNoContent)
}

func toSessionResponse(s *ledger.Session) SessionResponse {
	return SessionResponse{
		UserID:     s.UserID(),
		Status:     s.Status(),
		LastAccess: s.LastAccess(),
	}
}
