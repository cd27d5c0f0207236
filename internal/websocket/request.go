package websocket

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrUnknownRequest    = errors.New("unknown request type")
	ErrStatusUnavailable = errors.New("status unavailable")
)

// RequestType names a message a client may send
type RequestType string

const (
	RequestTypeStatus RequestType = "status"
)

// Request is a message read from a client connection
// Format: { type }
type Request struct {
	Type RequestType `json:"type"`
}

// StatusSource reports the sync state of a user's ledger
type StatusSource interface {
	SessionStatus(userID string) (interface{}, error)
}

// Reply answers one client message. Anything other than a well-formed
// status request is answered with a session.error event.
func Reply(userID string, data []byte, source StatusSource) Event {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return SessionError(ErrInvalidRequest)
	}

	switch req.Type {
	case RequestTypeStatus:
		if source == nil {
			return SessionError(ErrStatusUnavailable)
		}
		status, err := source.SessionStatus(userID)
		if err != nil {
			return SessionError(err)
		}
		return SessionStatus(status)
	}
	return SessionError(fmt.Errorf("%w: %q", ErrUnknownRequest, req.Type))
}
