package handlers

import (
	"bytes"
	"context"
	"draftdesk/config"
	"draftdesk/db"
	"draftdesk/entitlements"
	"draftdesk/services"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

var userRowColumns = []string{"id", "email", "plan", "subscription_status", "trial_start_date", "trial_end_date", "created_at"}

func init() {
	gin.SetMode(gin.TestMode)
}

func setup(t *testing.T, cfg *config.Config) sqlmock.Sqlmock {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{}
	}
	if cfg.JWT.Secret == "" {
		cfg.JWT = config.JWTConfig{Secret: "test-secret", ExpirationHours: 1, CookieName: "draftdesk_jwt"}
	}
	prevCfg := config.Current()
	config.Set(cfg)

	prevResolver := services.Resolver()
	services.SetResolver(entitlements.NewResolver(nil, func() time.Time { return testNow }))

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	prevDB := db.GetDB()
	db.SetDB(conn)

	t.Cleanup(func() {
		config.Set(prevCfg)
		services.SetResolver(prevResolver)
		db.SetDB(prevDB)
		conn.Close()
	})
	return mock
}

// asUser stands in for AuthRequired.
func asUser(id string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", id)
	}
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func expectUser(mock sqlmock.Sqlmock, id, plan string, trialStart *time.Time) {
	rows := sqlmock.NewRows(userRowColumns)
	if trialStart != nil {
		end := trialStart.Add(14 * 24 * time.Hour)
		rows.AddRow(id, id+"@example.com", plan, "trialing", *trialStart, end, *trialStart)
	} else {
		rows.AddRow(id, id+"@example.com", plan, "active", nil, nil, testNow)
	}
	mock.ExpectQuery(`FROM users WHERE id = \$1`).WithArgs(id).WillReturnRows(rows)
}

func expectDraftCount(mock sqlmock.Sqlmock, userID string, n int) {
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM drafts`).
		WithArgs(userID, services.PeriodStart(testNow)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(n))
}

// expectDraftSave covers the locked recount that precedes the insert.
func expectDraftSave(mock sqlmock.Sqlmock, userID string, used int) {
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM users WHERE id = \$1 FOR UPDATE`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(userID))
	expectDraftCount(mock, userID, used)
}

type fakeDrafter struct {
	reply string
	got   []services.DraftRequest
}

func (f *fakeDrafter) Draft(_ context.Context, req services.DraftRequest) (string, error) {
	f.got = append(f.got, req)
	return f.reply, nil
}

func withDrafter(t *testing.T, d services.Drafter) {
	t.Helper()
	prev := services.GetDrafter()
	services.SetDrafter(d)
	t.Cleanup(func() { services.SetDrafter(prev) })
}

func configJWT() config.JWTConfig {
	return config.Current().JWT
}
