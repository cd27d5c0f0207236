package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/codepinky/ruptura/ruptura-backend/internal/domain"
	"github.com/codepinky/ruptura/ruptura-backend/internal/ledger"
	"github.com/codepinky/ruptura/ruptura-backend/internal/middleware"
	"github.com/codepinky/ruptura/ruptura-backend/internal/service"
	"github.com/codepinky/ruptura/ruptura-backend/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const testUser = "auth0|user-1"

// testEnv is a live session manager over a seeded mock remote, with every
// handler wired the way cmd/api wires them
type testEnv struct {
	remote    *testutil.MockRemoteStore
	publisher *testutil.RecordingPublisher
	sessions  *ledger.SessionManager
	presets   *testutil.MockPresetRepository
	handlers  Handlers
}

func newTestEnv(t *testing.T, items ...domain.Entity) *testEnv {
	t.Helper()

	remote := testutil.NewMockRemoteStore()
	remote.Seed(testUser, items...)
	publisher := testutil.NewRecordingPublisher()

	sync := ledger.DefaultSyncConfig()
	sync.InitialBackoff = 5 * time.Millisecond
	sync.MaxBackoff = 20 * time.Millisecond
	sync.MutationTimeout = time.Second
	sessions := ledger.NewSessionManager(remote, zerolog.Nop(), ledger.SessionConfig{Sync: sync, IdleTTL: time.Minute}, ForwardChanges(publisher))
	t.Cleanup(sessions.CloseAll)

	presets := testutil.NewMockPresetRepository()
	labels := service.NewTypeLabeler("en")

	return &testEnv{
		remote:    remote,
		publisher: publisher,
		sessions:  sessions,
		presets:   presets,
		handlers: Handlers{
			Session:    NewSessionHandler(sessions, publisher),
			Entity:     NewEntityHandler(sessions, sessions),
			Budget:     NewBudgetHandler(service.NewBudgetService(sessions)),
			Goal:       NewGoalHandler(service.NewGoalService(sessions, sessions)),
			Projection: NewProjectionHandler(service.NewProjectionService(sessions)),
			Category:   NewCategoryHandler(service.NewCategoryService(sessions)),
			Report:     NewReportHandler(service.NewReportService(sessions, labels), service.NewPresetService(presets)),
			Search:     NewSearchHandler(service.NewSearchService(sessions)),
		},
	}
}

// ready opens the user's session and waits for the first sync
func (e *testEnv) ready(t *testing.T) *ledger.Session {
	t.Helper()
	session, err := e.sessions.Open(testUser)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, session.WaitReady(ctx))
	return session
}

func (e *testEnv) ledger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l, err := e.sessions.Ledger(testUser)
	require.NoError(t, err)
	return l
}

type request struct {
	method string
	target string
	body   string
	userID string
	params map[string]string
	header map[string]string
}

// serve runs h against an authenticated request and returns the recorder
func serve(t *testing.T, h echo.HandlerFunc, r request) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if r.body != "" {
		body = strings.NewReader(r.body)
	}
	if r.method == "" {
		r.method = http.MethodGet
	}
	req := httptest.NewRequest(r.method, r.target, body)
	if r.body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range r.header {
		req.Header.Set(k, v)
	}
	if r.userID != "" {
		req = req.WithContext(middleware.WithUserID(req.Context(), r.userID))
	}

	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	if len(r.params) > 0 {
		names := make([]string, 0, len(r.params))
		values := make([]string, 0, len(r.params))
		for name, value := range r.params {
			names = append(names, name)
			values = append(values, value)
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}

	require.NoError(t, h(c))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func txn(id, amount string, txType domain.TransactionType, categoryID string, on time.Time) domain.Transaction {
	return domain.Transaction{
		ID:          id,
		Description: string(txType) + " " + id,
		Amount:      dec(amount),
		Type:        txType,
		CategoryID:  categoryID,
		Date:        on,
	}
}
