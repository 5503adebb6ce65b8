package services

import (
	"context"
	"draftdesk/apperrors"
	"draftdesk/db"
	"draftdesk/entitlements"
	"draftdesk/models"
	"errors"
	"time"

	"github.com/lib/pq"
)

var activeResolver = entitlements.Default()

// SetResolver replaces the resolver used for plan and trial decisions.
func SetResolver(r *entitlements.Resolver) {
	if r != nil {
		activeResolver = r
	}
}

// Resolver returns the entitlement resolver shared by handlers and workers.
func Resolver() *entitlements.Resolver {
	return activeResolver
}

// GetQueryLimit returns the monthly draft allowance for plan; unknown plans
// get the lowest tier's allowance.
func GetQueryLimit(plan string) int {
	return Resolver().GetPlanFeatures(plan).QueryLimit
}

// IsValidPlan reports whether plan can be purchased. The trial tier is not
// purchasable through the upgrade endpoint.
func IsValidPlan(plan string) bool {
	catalog := Resolver().Catalog()
	p, ok := catalog.Lookup(plan)
	if !ok {
		return false
	}
	return p.ID != catalog.TrialPlan().ID
}

// PeriodStart is the first instant of the calendar month containing now, in UTC.
func PeriodStart(now time.Time) time.Time {
	y, m, _ := now.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// CountDraftsSince counts drafts the user generated at or after since.
func CountDraftsSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	err := db.GetDB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM drafts WHERE user_id = $1 AND created_at >= $2`,
		userID, since,
	).Scan(&count)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInternal, err, "counting drafts")
	}
	return count, nil
}

// GetUsage reports this month's consumption against the user's plan.
func GetUsage(ctx context.Context, user *models.User, now time.Time) (models.Usage, error) {
	used, err := CountDraftsSince(ctx, user.ID, PeriodStart(now))
	if err != nil {
		return models.Usage{}, err
	}
	return models.Usage{
		Used:      used,
		Limit:     GetQueryLimit(user.Plan),
		Remaining: Resolver().RemainingQueries(user.Subscriber(), used),
	}, nil
}

// ChangePlan moves a user to plan with the given subscription status.
// Leaving the trial tier clears nothing: trial dates are kept for history and
// only consulted while the user is on the trial tier.
func ChangePlan(ctx context.Context, userID, plan, status string) error {
	res, err := db.GetDB().ExecContext(ctx,
		`UPDATE users SET plan = $1, subscription_status = $2 WHERE id = $3`,
		plan, status, userID,
	)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "updating plan")
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "updating plan")
	}
	if rows == 0 {
		return apperrors.New(apperrors.CodeNotFound, "user not found")
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
