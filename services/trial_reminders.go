package services

import (
	"context"
	"draftdesk/db"
	"draftdesk/entitlements"
	"draftdesk/metrics"
	"draftdesk/models"
	"fmt"
	"time"
)

const (
	KindTrialExpired      = "trial_expired"
	kindTrialEndingFormat = "trial_ending_%d"
)

// expiredLookback bounds how long after expiry a trial is still scanned.
const expiredLookback = 7 * 24 * time.Hour

// ReminderOptions configures one reminder sweep.
type ReminderOptions struct {
	Mailer     Mailer
	SlackURL   string
	DaysBefore []int
	UpgradeURL string
}

// CheckTrialReminders emails trial users whose trial is about to end or has
// just ended. Each (user, kind) pair is recorded before sending so a reminder
// goes out at most once; delivery itself is best effort. It returns the
// number of reminders recorded.
func CheckTrialReminders(ctx context.Context, opts ReminderOptions) (int, error) {
	r := Resolver()
	trialPlan := r.Catalog().TrialPlan()

	users, err := trialUsers(ctx, string(trialPlan.ID), r.Now().Add(-expiredLookback))
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, u := range users {
		kind, ok := reminderKind(r, u.Subscriber(), opts.DaysBefore)
		if !ok {
			continue
		}

		ctx := log().WithFields(ctx, map[string]any{"user_id": u.ID, "kind": kind})
		fresh, err := recordNotification(ctx, u.ID, kind)
		if err != nil {
			log().Error(ctx, "recording trial notification failed", err)
			continue
		}
		if !fresh {
			continue
		}
		sent++
		metrics.Default().IncReminder(kind)

		if opts.Mailer != nil {
			subject, body := reminderEmail(r, u, kind, opts.UpgradeURL)
			if err := opts.Mailer.Send(ctx, u.Email, subject, body); err != nil {
				log().Error(ctx, "sending trial reminder failed", err)
			}
		}
		if kind == KindTrialExpired {
			NotifySlackAsync(opts.SlackURL, fmt.Sprintf("Trial expired for %s (%s)", u.Email, u.ID))
		}
		log().Info(ctx, "trial reminder sent")
	}
	return sent, nil
}

func reminderKind(r *entitlements.Resolver, sub *entitlements.User, daysBefore []int) (string, bool) {
	if r.IsTrialExpired(sub) {
		return KindTrialExpired, true
	}
	left := r.GetDaysLeftInTrial(sub)
	for _, d := range daysBefore {
		if d > 0 && left == d {
			return fmt.Sprintf(kindTrialEndingFormat, d), true
		}
	}
	return "", false
}

func trialUsers(ctx context.Context, plan string, endedAfter time.Time) ([]*models.User, error) {
	rows, err := db.GetDB().QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE plan = $1 AND trial_end_date IS NOT NULL AND trial_end_date > $2
		ORDER BY trial_end_date`,
		plan, endedAfter,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching trial users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning trial user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating trial users: %w", err)
	}
	return users, nil
}

// recordNotification returns false when the notification was already recorded.
func recordNotification(ctx context.Context, userID, kind string) (bool, error) {
	res, err := db.GetDB().ExecContext(ctx, `
		INSERT INTO trial_notifications (user_id, kind)
		VALUES ($1, $2)
		ON CONFLICT (user_id, kind) DO NOTHING`,
		userID, kind,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func reminderEmail(r *entitlements.Resolver, u *models.User, kind, upgradeURL string) (string, string) {
	sub := u.Subscriber()
	target := r.GetPlanFeatures(string(r.GetUpgradeTarget(u.Plan, entitlements.FeatureAnalyticsDashboard)))
	price := fmt.Sprintf("%s %s/%s", target.PriceAmount.StringFixed(2), target.PriceCurrency, target.BillingInterval)

	if kind == KindTrialExpired {
		subject := "Your draftdesk trial has ended"
		body := fmt.Sprintf(`Hi,

Your free trial ended and drafting is paused on your account.

Upgrade to %s (%s) to pick up where you left off:
%s

Your drafts and history are kept.`, target.Name, price, upgradeURL)
		return subject, body
	}

	left := r.GetDaysLeftInTrial(sub)
	dayWord := "days"
	if left == 1 {
		dayWord = "day"
	}
	subject := fmt.Sprintf("%d %s left in your draftdesk trial", left, dayWord)
	body := fmt.Sprintf(`Hi,

You are on day %d of your trial, with %d %s left.

Keep drafting without interruption by moving to %s (%s):
%s`, r.GetCurrentTrialDay(sub), left, dayWord, target.Name, price, upgradeURL)
	return subject, body
}
