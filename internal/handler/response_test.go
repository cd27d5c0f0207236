package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		errType string
	}{
		{"validation", domain.ErrInvalidAmount, http.StatusBadRequest, ErrorTypeValidation},
		{"wrapped validation", fmt.Errorf("%w: monthly", domain.ErrInvalidPeriod), http.StatusBadRequest, ErrorTypeValidation},
		{"not found", domain.ErrGoalNotFound, http.StatusNotFound, ErrorTypeNotFound},
		{"no session", domain.ErrSessionNotFound, http.StatusNotFound, ErrorTypeNotFound},
		{"unauthorized", domain.ErrUnauthorized, http.StatusUnauthorized, ErrorTypeUnauthorized},
		{"closed", domain.ErrSessionClosed, http.StatusServiceUnavailable, ErrorTypeUnavailable},
		{"queue full", domain.ErrMutationQueueFull, http.StatusServiceUnavailable, ErrorTypeUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ErrorTypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/goals", nil)
			rec := httptest.NewRecorder()
			c := echo.New().NewContext(req, rec)

			require.NoError(t, respondError(c, tt.err, testUser, "do thing"))

			assert.Equal(t, tt.status, rec.Code)
			problem := decode[ProblemDetails](t, rec)
			assert.Equal(t, tt.errType, problem.Type)
			assert.Equal(t, "/api/v1/goals", problem.Instance)
		})
	}
}

func TestDate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{`"2024-03-05"`, "2024-03-05", false},
		{`"2024-03-05T23:30:00-03:00"`, "2024-03-06", false},
		{`""`, "0001-01-01", false},
		{`"05/03/2024"`, "", true},
		{`12`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var d Date
			err := d.UnmarshalJSON([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Format("2006-01-02"))
		})
	}
}
