package services

import (
	"context"
	"database/sql"
	"draftdesk/apperrors"
	"draftdesk/db"
	"draftdesk/models"
	"errors"
	"time"
)

const userColumns = `id, email, plan, subscription_status, trial_start_date, trial_end_date, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u          models.User
		trialStart sql.NullTime
		trialEnd   sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Plan, &u.SubscriptionStatus, &trialStart, &trialEnd, &u.CreatedAt); err != nil {
		return nil, err
	}
	if trialStart.Valid {
		t := trialStart.Time
		u.TrialStartDate = &t
	}
	if trialEnd.Valid {
		t := trialEnd.Time
		u.TrialEndDate = &t
	}
	return &u, nil
}

// GetUser loads an account by id.
func GetUser(ctx context.Context, userID string) (*models.User, error) {
	row := db.GetDB().QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.New(apperrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading user")
	}
	return u, nil
}

// CreateTrialUser inserts a starter account whose trial begins at now.
func CreateTrialUser(ctx context.Context, email, passwordHash string, now time.Time) (*models.User, error) {
	catalog := Resolver().Catalog()
	start, end := catalog.NewTrialWindow(now)

	row := db.GetDB().QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, plan, subscription_status, trial_start_date, trial_end_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userColumns,
		email, passwordHash, string(catalog.TrialPlan().ID), models.StatusTrialing, start, end,
	)
	u, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.New(apperrors.CodeConflict, "email already registered")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "creating user")
	}
	return u, nil
}

// FindCredentials returns the id and password hash for email.
func FindCredentials(ctx context.Context, email string) (string, string, error) {
	var id, hash string
	err := db.GetDB().QueryRowContext(ctx,
		`SELECT id, password_hash FROM users WHERE email = $1`, email,
	).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", apperrors.New(apperrors.CodeUnauthorized, "invalid credentials")
	}
	if err != nil {
		return "", "", apperrors.Wrap(apperrors.CodeInternal, err, "loading credentials")
	}
	return id, hash, nil
}
