package middleware

import (
	"draftdesk/apperrors"
	"draftdesk/entitlements"
	"draftdesk/metrics"
	"draftdesk/models"
	"draftdesk/services"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

const ctxUser = "user"

// CurrentUser loads the authenticated account once per request.
func CurrentUser(c *gin.Context) (*models.User, error) {
	if v, ok := c.Get(ctxUser); ok {
		if u, ok := v.(*models.User); ok {
			return u, nil
		}
	}
	id := UserID(c)
	if id == "" {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "authentication required")
	}
	u, err := services.GetUser(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	c.Set(ctxUser, u)
	return u, nil
}

// RequireFeature lets the request through only when the user's plan and
// trial state grant feature.
func RequireFeature(feature string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := CurrentUser(c)
		if err != nil {
			RespondError(c, err)
			return
		}
		if !Authorize(c, user, feature) {
			return
		}
		c.Next()
	}
}

// Authorize evaluates feature for user. On denial it writes a 402 carrying
// the plan to upgrade to, aborts, and returns false.
func Authorize(c *gin.Context, user *models.User, feature string) bool {
	d := services.Resolver().Evaluate(user.Subscriber(), feature)
	metrics.Default().ObserveDecision(feature, d.Allowed)
	if d.Allowed {
		return true
	}
	c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{
		"error":          denialMessage(d),
		"code":           apperrors.CodePaymentRequired,
		"feature":        feature,
		"upgrade_target": d.UpgradeTarget,
		"trial_expired":  d.TrialExpired,
	})
	return false
}

func denialMessage(d entitlements.Decision) string {
	if d.TrialExpired {
		return fmt.Sprintf("your trial has ended, upgrade to %s to keep using %s", d.UpgradeTarget, d.Feature)
	}
	return fmt.Sprintf("%s requires the %s plan", d.Feature, d.UpgradeTarget)
}
