package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/codepinky/ruptura/ruptura-backend/internal/ledger"
	"github.com/codepinky/ruptura/ruptura-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// DefaultWaitTimeout bounds ?wait=true mutation requests
const DefaultWaitTimeout = 10 * time.Second

// Date accepts "2006-01-02" or RFC 3339 in request bodies
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := parseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Time.Format(time.DateOnly))
}

// Ptr returns nil for a nil or zero date
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", domain.ErrInvalidInput, s)
	}
	return t.UTC(), nil
}

// parsePeriod reads the optional start and end query parameters
func parsePeriod(c echo.Context) (service.Period, error) {
	var p service.Period
	if s := c.QueryParam("start"); s != "" {
		t, err := parseDate(s)
		if err != nil {
			return p, err
		}
		p.Start = t
	}
	if s := c.QueryParam("end"); s != "" {
		t, err := parseDate(s)
		if err != nil {
			return p, err
		}
		p.End = t
	}
	if !p.Start.IsZero() && !p.End.IsZero() && p.Start.After(p.End) {
		return p, fmt.Errorf("%w: start after end", domain.ErrInvalidInput)
	}
	return p, nil
}

// parseIntParam reads an optional integer query parameter, 0 when absent
func parseIntParam(c echo.Context, name string) (int, error) {
	s := c.QueryParam(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, name)
	}
	return n, nil
}

func parseBoolParam(c echo.Context, name string) bool {
	v, _ := strconv.ParseBool(strings.TrimSpace(c.QueryParam(name)))
	return v
}

func acceptLanguage(c echo.Context) string {
	return c.Request().Header.Get("Accept-Language")
}

// respondIntent answers a submitted mutation: 202 with the intent, or with
// ?wait=true the confirmed intent (200) once the snapshot reflects it.
func respondIntent(c echo.Context, intent *ledger.Intent, userID string, timeout time.Duration) error {
	if !parseBoolParam(c, "wait") {
		return c.JSON(http.StatusAccepted, intent.View())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
	defer cancel()

	err := intent.Wait(ctx)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, intent.View())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		// still in flight; the client follows up over the websocket
		return c.JSON(http.StatusAccepted, intent.View())
	default:
		return respondError(c, err, userID, "apply mutation")
	}
}
