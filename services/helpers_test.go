package services

import (
	"context"
	"draftdesk/db"
	"draftdesk/entitlements"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

var userRowColumns = []string{"id", "email", "plan", "subscription_status", "trial_start_date", "trial_end_date", "created_at"}

func withMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)

	prev := db.GetDB()
	db.SetDB(conn)
	t.Cleanup(func() {
		db.SetDB(prev)
		conn.Close()
	})
	return mock
}

func withClock(t *testing.T, now time.Time) {
	t.Helper()
	prev := Resolver()
	SetResolver(entitlements.NewResolver(nil, func() time.Time { return now }))
	t.Cleanup(func() { SetResolver(prev) })
}

func trialUserRow(rows *sqlmock.Rows, id, email string, end time.Time) *sqlmock.Rows {
	start := end.Add(-14 * 24 * time.Hour)
	return rows.AddRow(id, email, "starter", "trialing", start, end, start)
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return m.err
}
