package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckTrialRemindersSendsOncePerKind(t *testing.T) {
	withClock(t, testNow)
	mock := withMockDB(t)

	rows := sqlmock.NewRows(userRowColumns)
	trialUserRow(rows, "u-expired", "gone@example.com", testNow.Add(-time.Hour))
	trialUserRow(rows, "u-ending", "soon@example.com", testNow.Add(60*time.Hour))
	trialUserRow(rows, "u-fresh", "new@example.com", testNow.Add(10*24*time.Hour))

	mock.ExpectQuery(`FROM users\s+WHERE plan = \$1 AND trial_end_date IS NOT NULL AND trial_end_date > \$2`).
		WithArgs("starter", testNow.Add(-expiredLookback)).
		WillReturnRows(rows)
	// The expiry notice was already recorded on an earlier sweep.
	mock.ExpectExec(`INSERT INTO trial_notifications`).
		WithArgs("u-expired", KindTrialExpired).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO trial_notifications`).
		WithArgs("u-ending", "trial_ending_3").
		WillReturnResult(sqlmock.NewResult(0, 1))

	mailer := &fakeMailer{}
	sent, err := CheckTrialReminders(context.Background(), ReminderOptions{
		Mailer:     mailer,
		DaysBefore: []int{3, 1},
		UpgradeURL: "https://app.example.com/billing",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "soon@example.com", mailer.sent[0].to)
	assert.Equal(t, "3 days left in your draftdesk trial", mailer.sent[0].subject)
	assert.Contains(t, mailer.sent[0].body, "Pro (49.00 USD/month)")
	assert.Contains(t, mailer.sent[0].body, "https://app.example.com/billing")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckTrialRemindersExpiredEmail(t *testing.T) {
	withClock(t, testNow)
	mock := withMockDB(t)

	rows := trialUserRow(sqlmock.NewRows(userRowColumns), "u-1", "gone@example.com", testNow.Add(-2*time.Hour))
	mock.ExpectQuery(`FROM users`).WillReturnRows(rows)
	mock.ExpectExec(`INSERT INTO trial_notifications`).
		WithArgs("u-1", KindTrialExpired).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mailer := &fakeMailer{err: errors.New("sendgrid down")}
	sent, err := CheckTrialReminders(context.Background(), ReminderOptions{Mailer: mailer, DaysBefore: []int{3}})
	require.NoError(t, err)
	assert.Equal(t, 1, sent, "delivery failures do not undo the record")

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Your draftdesk trial has ended", mailer.sent[0].subject)
}

func TestCheckTrialRemindersQueryError(t *testing.T) {
	withClock(t, testNow)
	mock := withMockDB(t)
	mock.ExpectQuery(`FROM users`).WillReturnError(errors.New("db gone"))

	_, err := CheckTrialReminders(context.Background(), ReminderOptions{})
	assert.ErrorContains(t, err, "fetching trial users")
}

func TestCheckTrialRemindersWithoutMailerStillRecords(t *testing.T) {
	withClock(t, testNow)
	mock := withMockDB(t)

	rows := trialUserRow(sqlmock.NewRows(userRowColumns), "u-1", "a@example.com", testNow.Add(20*time.Hour))
	mock.ExpectQuery(`FROM users`).WillReturnRows(rows)
	mock.ExpectExec(`INSERT INTO trial_notifications`).
		WithArgs("u-1", "trial_ending_1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	sent, err := CheckTrialReminders(context.Background(), ReminderOptions{DaysBefore: []int{3, 1}})
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.NoError(t, mock.ExpectationsWereMet())
}
