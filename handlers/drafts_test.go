package handlers

import (
	"draftdesk/middleware"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draftsRouter() *gin.Engine {
	r := gin.New()
	api := r.Group("/api", asUser("u-1"))
	api.POST("/drafts", middleware.RequireFeature("ai_responses"), CreateDraft)
	api.GET("/drafts/:id", GetDraft)
	api.GET("/drafts", ListDrafts)
	api.DELETE("/drafts/:id", DeleteDraft)
	return r
}

func TestCreateDraft(t *testing.T) {
	mock := setup(t, nil)
	drafter := &fakeDrafter{reply: "Happy to help!"}
	withDrafter(t, drafter)

	start := testNow.Add(-2 * 24 * time.Hour)
	expectUser(mock, "u-1", "starter", &start)
	expectDraftCount(mock, "u-1", 99)
	expectDraftSave(mock, "u-1", 99)
	mock.ExpectQuery(`INSERT INTO drafts`).
		WithArgs("u-1", "Acme", "email", "", "standard", "Where is my order?", "Happy to help!").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("d-1", testNow))
	mock.ExpectCommit()

	w := doJSON(draftsRouter(), http.MethodPost, "/api/drafts", DraftInput{ClientName: "Acme", Message: "Where is my order?"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, map[string]any{"used": float64(100), "limit": float64(100), "remaining": float64(0)}, body["usage"])
	require.Len(t, drafter.got, 1)
	assert.Equal(t, "standard", drafter.got[0].Model)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDraftLimitReached(t *testing.T) {
	mock := setup(t, nil)
	drafter := &fakeDrafter{reply: "x"}
	withDrafter(t, drafter)

	start := testNow.Add(-2 * 24 * time.Hour)
	expectUser(mock, "u-1", "starter", &start)
	expectDraftCount(mock, "u-1", 100)

	w := doJSON(draftsRouter(), http.MethodPost, "/api/drafts", DraftInput{ClientName: "Acme", Message: "hi"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	details := decode(t, w)["details"].(map[string]any)
	assert.Equal(t, "pro", details["upgrade_target"])
	assert.Empty(t, drafter.got)
}

func TestCreateDraftGatesModelAndTone(t *testing.T) {
	tests := []struct {
		name    string
		input   DraftInput
		feature string
	}{
		{"model", DraftInput{ClientName: "Acme", Message: "hi", Model: "advanced"}, "model_switching"},
		{"tone", DraftInput{ClientName: "Acme", Message: "hi", Tone: "formal"}, "tone_customization"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := setup(t, nil)
			withDrafter(t, &fakeDrafter{reply: "x"})
			start := testNow.Add(-2 * 24 * time.Hour)
			expectUser(mock, "u-1", "starter", &start)

			w := doJSON(draftsRouter(), http.MethodPost, "/api/drafts", tt.input)
			assert.Equal(t, http.StatusPaymentRequired, w.Code)
			body := decode(t, w)
			assert.Equal(t, tt.feature, body["feature"])
			assert.Equal(t, "pro", body["upgrade_target"])
		})
	}
}

func TestCreateDraftExpiredTrialBlocked(t *testing.T) {
	mock := setup(t, nil)
	withDrafter(t, &fakeDrafter{reply: "x"})
	start := testNow.Add(-30 * 24 * time.Hour)
	expectUser(mock, "u-1", "starter", &start)

	w := doJSON(draftsRouter(), http.MethodPost, "/api/drafts", DraftInput{ClientName: "Acme", Message: "hi"})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Equal(t, true, decode(t, w)["trial_expired"])
}

func TestCreateDraftUnlimitedPlan(t *testing.T) {
	mock := setup(t, nil)
	withDrafter(t, &fakeDrafter{reply: "Sure."})
	expectUser(mock, "u-1", "enterprise", nil)
	expectDraftCount(mock, "u-1", 5000)
	expectDraftSave(mock, "u-1", 5000)
	mock.ExpectQuery(`INSERT INTO drafts`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("d-9", testNow))
	mock.ExpectCommit()

	w := doJSON(draftsRouter(), http.MethodPost, "/api/drafts",
		DraftInput{ClientName: "Acme", Message: "hi", Model: "advanced", Tone: "formal", Channel: "chat"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	usage := decode(t, w)["usage"].(map[string]any)
	assert.Equal(t, float64(-1), usage["remaining"])
}

func TestCreateDraftConcurrentOverflow(t *testing.T) {
	mock := setup(t, nil)
	drafter := &fakeDrafter{reply: "x"}
	withDrafter(t, drafter)

	start := testNow.Add(-2 * 24 * time.Hour)
	expectUser(mock, "u-1", "starter", &start)
	expectDraftCount(mock, "u-1", 99)
	// A parallel request used the last draft between the check and the save.
	expectDraftSave(mock, "u-1", 100)
	mock.ExpectRollback()

	w := doJSON(draftsRouter(), http.MethodPost, "/api/drafts", DraftInput{ClientName: "Acme", Message: "hi"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	details := decode(t, w)["details"].(map[string]any)
	assert.Equal(t, float64(100), details["used"])
	assert.Equal(t, "pro", details["upgrade_target"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAndDeleteDraftNotFound(t *testing.T) {
	const id = "3f0c2a8e-5b7d-4c1e-9a6f-2d8b1e4c7a90"
	mock := setup(t, nil)
	mock.ExpectQuery(`FROM drafts WHERE id = \$1 AND user_id = \$2`).
		WithArgs(id, "u-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(`DELETE FROM drafts`).
		WithArgs(id, "u-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	r := draftsRouter()
	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, "/api/drafts/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodDelete, "/api/drafts/"+id, nil).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMalformedDraftIDIsNotFound(t *testing.T) {
	mock := setup(t, nil)
	r := draftsRouter()

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		w := doJSON(r, method, "/api/drafts/not-a-uuid", nil)
		assert.Equal(t, http.StatusNotFound, w.Code, method)
		body := decode(t, w)
		assert.Equal(t, "NOT_FOUND", body["code"])
		assert.Equal(t, "draft not found", body["error"])
	}
	assert.NoError(t, mock.ExpectationsWereMet(), "malformed ids never reach the database")
}

func TestListDraftsLimit(t *testing.T) {
	mock := setup(t, nil)
	mock.ExpectQuery(`FROM drafts`).
		WithArgs("u-1", 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "client_name", "channel", "tone", "model", "message", "reply", "created_at"}))

	r := draftsRouter()
	w := doJSON(r, http.MethodGet, "/api/drafts?limit=20", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []any{}, decode(t, w)["drafts"])

	for _, bad := range []string{"abc", "0", "500"} {
		w = doJSON(r, http.MethodGet, "/api/drafts?limit="+bad, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
		assert.Equal(t, "VALIDATION_ERROR", decode(t, w)["code"])
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}
