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

const draftColumns = `id, user_id, client_name, channel, tone, model, message, reply, created_at`

// MaxListedDrafts caps ListDrafts.
const MaxListedDrafts = 100

func scanDraft(row rowScanner) (*models.Draft, error) {
	var d models.Draft
	if err := row.Scan(&d.ID, &d.UserID, &d.ClientName, &d.Channel, &d.Tone, &d.Model, &d.Message, &d.Reply, &d.CreatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// SaveDraftWithinLimit stores d unless the user has already generated limit
// drafts since periodStart. The user row is locked for the count and insert,
// so concurrent requests cannot overshoot the allowance. A negative limit is
// unlimited. It returns the number of drafts in the period including d.
func SaveDraftWithinLimit(ctx context.Context, d *models.Draft, limit int, periodStart time.Time) (int, error) {
	tx, err := db.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInternal, err, "starting draft transaction")
	}
	defer tx.Rollback()

	var locked string
	err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, d.UserID).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, apperrors.New(apperrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInternal, err, "locking user")
	}

	var used int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM drafts WHERE user_id = $1 AND created_at >= $2`,
		d.UserID, periodStart,
	).Scan(&used)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInternal, err, "counting drafts")
	}
	if limit >= 0 && used >= limit {
		return used, apperrors.New(apperrors.CodeRateLimit, "monthly draft limit reached").
			WithDetails(map[string]int{"used": used, "limit": limit})
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO drafts (user_id, client_name, channel, tone, model, message, reply)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		d.UserID, d.ClientName, d.Channel, d.Tone, d.Model, d.Message, d.Reply,
	).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInternal, err, "saving draft")
	}
	if err := tx.Commit(); err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInternal, err, "committing draft")
	}
	return used + 1, nil
}

// ListDrafts returns the user's most recent drafts, newest first.
func ListDrafts(ctx context.Context, userID string, limit int) ([]models.Draft, error) {
	if limit <= 0 || limit > MaxListedDrafts {
		limit = MaxListedDrafts
	}
	rows, err := db.GetDB().QueryContext(ctx, `
		SELECT `+draftColumns+`
		FROM drafts
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing drafts")
	}
	defer rows.Close()

	drafts := []models.Draft{}
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, err, "scanning draft")
		}
		drafts = append(drafts, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing drafts")
	}
	return drafts, nil
}

// GetDraft loads one of the user's drafts. Drafts owned by someone else are
// reported as missing.
func GetDraft(ctx context.Context, userID, draftID string) (*models.Draft, error) {
	row := db.GetDB().QueryRowContext(ctx,
		`SELECT `+draftColumns+` FROM drafts WHERE id = $1 AND user_id = $2`,
		draftID, userID,
	)
	d, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.New(apperrors.CodeNotFound, "draft not found")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading draft")
	}
	return d, nil
}

// DeleteDraft removes one of the user's drafts.
func DeleteDraft(ctx context.Context, userID, draftID string) error {
	res, err := db.GetDB().ExecContext(ctx,
		`DELETE FROM drafts WHERE id = $1 AND user_id = $2`, draftID, userID,
	)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "deleting draft")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "deleting draft")
	}
	if n == 0 {
		return apperrors.New(apperrors.CodeNotFound, "draft not found")
	}
	return nil
}

// GetDraftStats aggregates the user's drafts overall and since periodStart.
func GetDraftStats(ctx context.Context, userID string, periodStart time.Time) (models.DraftStats, error) {
	stats := models.DraftStats{ByChannel: map[string]int{}}
	conn := db.GetDB()

	var last sql.NullTime
	err := conn.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE created_at >= $2), MAX(created_at)
		FROM drafts WHERE user_id = $1`,
		userID, periodStart,
	).Scan(&stats.TotalDrafts, &stats.PeriodDrafts, &last)
	if err != nil {
		return stats, apperrors.Wrap(apperrors.CodeInternal, err, "counting drafts")
	}
	if last.Valid {
		t := last.Time
		stats.LastDraftAt = &t
	}

	rows, err := conn.QueryContext(ctx,
		`SELECT channel, COUNT(*) FROM drafts WHERE user_id = $1 GROUP BY channel`, userID,
	)
	if err != nil {
		return stats, apperrors.Wrap(apperrors.CodeInternal, err, "grouping drafts")
	}
	defer rows.Close()
	for rows.Next() {
		var channel string
		var n int
		if err := rows.Scan(&channel, &n); err != nil {
			return stats, apperrors.Wrap(apperrors.CodeInternal, err, "grouping drafts")
		}
		stats.ByChannel[channel] = n
	}
	if err := rows.Err(); err != nil {
		return stats, apperrors.Wrap(apperrors.CodeInternal, err, "grouping drafts")
	}
	return stats, nil
}
