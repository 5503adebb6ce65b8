package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"draftdesk/apperrors"
	"draftdesk/config"
	"draftdesk/logger"
	"draftdesk/metrics"
	"draftdesk/middleware"
	"draftdesk/models"
	"draftdesk/services"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	SignatureHeader = "X-Billing-Signature"

	EventSubscriptionUpdated  = "subscription.updated"
	EventSubscriptionCanceled = "subscription.canceled"
)

const maxWebhookBody = 64 << 10

type BillingEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		UserID string `json:"user_id"`
		Plan   string `json:"plan"`
		Status string `json:"status"`
	} `json:"data"`
}

// BillingWebhook applies subscription changes pushed by the payment provider.
// The body must carry a hex HMAC-SHA256 signature made with the shared secret.
func BillingWebhook(c *gin.Context) {
	secret := config.Current().Billing.WebhookSecret
	if secret == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "billing webhook not configured"})
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		middleware.RespondError(c, apperrors.Wrap(apperrors.CodeValidation, err, "unreadable body"))
		return
	}
	if !ValidSignature(secret, payload, c.GetHeader(SignatureHeader)) {
		middleware.RespondError(c, apperrors.New(apperrors.CodeUnauthorized, "invalid signature"))
		return
	}

	var event BillingEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		middleware.RespondError(c, apperrors.Wrap(apperrors.CodeValidation, err, "invalid event payload"))
		return
	}
	userID, err := uuid.Parse(event.Data.UserID)
	if err != nil {
		middleware.RespondError(c, apperrors.New(apperrors.CodeValidation, "event user_id must be a uuid"))
		return
	}

	ctx := logger.Default().WithFields(c.Request.Context(), map[string]any{
		"event_id":   event.ID,
		"event_type": event.Type,
		"user_id":    userID.String(),
	})

	catalog := services.Resolver().Catalog()
	var plan, status string
	switch event.Type {
	case EventSubscriptionUpdated:
		if _, ok := catalog.Lookup(event.Data.Plan); !ok {
			middleware.RespondError(c, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("unknown plan %q", event.Data.Plan)))
			return
		}
		plan = event.Data.Plan
		status = event.Data.Status
		if status == "" {
			status = models.StatusActive
		}
		if !models.IsValidStatus(status) {
			middleware.RespondError(c, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("unknown subscription status %q", status)))
			return
		}
	case EventSubscriptionCanceled:
		plan = string(catalog.TrialPlan().ID)
		status = models.StatusCancelled
	default:
		logger.Default().Info(ctx, "ignoring billing event")
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	if err := services.ChangePlan(ctx, userID.String(), plan, status); err != nil {
		middleware.RespondError(c, err)
		return
	}
	metrics.Default().IncPlanChange("webhook", plan)
	logger.Default().Info(ctx, "subscription updated")

	c.JSON(http.StatusOK, gin.H{"status": "applied", "plan": plan, "subscription_status": status})
}

// ValidSignature checks signature against the HMAC-SHA256 of payload.
func ValidSignature(secret string, payload []byte, signature string) bool {
	got, err := hex.DecodeString(signature)
	if err != nil || len(got) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(got, mac.Sum(nil))
}
