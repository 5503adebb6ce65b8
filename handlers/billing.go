package handlers

import (
	"draftdesk/apperrors"
	"draftdesk/config"
	"draftdesk/entitlements"
	"draftdesk/metrics"
	"draftdesk/middleware"
	"draftdesk/models"
	"draftdesk/services"
	"net/http"

	"github.com/gin-gonic/gin"
)

// planView is the public shape of a plan. Prices are decimal strings.
type planView struct {
	ID              entitlements.PlanID          `json:"id"`
	Name            string                       `json:"name"`
	Price           string                       `json:"price"`
	Currency        string                       `json:"currency"`
	BillingInterval entitlements.BillingInterval `json:"billing_interval"`
	TrialLengthDays int                          `json:"trial_length_days"`
	QueryLimit      int                          `json:"query_limit"`
	TeamMemberLimit int                          `json:"team_member_limit"`
	Features        []string                     `json:"features"`
}

func newPlanView(p entitlements.Plan) planView {
	return planView{
		ID:              p.ID,
		Name:            p.Name,
		Price:           p.PriceAmount.StringFixed(2),
		Currency:        p.PriceCurrency,
		BillingInterval: p.BillingInterval,
		TrialLengthDays: p.TrialLengthDays,
		QueryLimit:      p.QueryLimit,
		TeamMemberLimit: p.TeamMemberLimit,
		Features:        p.Features(),
	}
}

func ListPlans(c *gin.Context) {
	plans := services.Resolver().Catalog().Plans()
	views := make([]planView, 0, len(plans))
	for _, p := range plans {
		views = append(views, newPlanView(p))
	}
	c.JSON(http.StatusOK, gin.H{"plans": views})
}

func UpgradePlan(c *gin.Context) {
	if !config.Current().Features.BillingEnabled {
		c.JSON(http.StatusNotFound, gin.H{"error": "billing not enabled"})
		return
	}

	var req struct {
		Plan string `json:"plan" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, apperrors.New(apperrors.CodeValidation, "plan is required"))
		return
	}
	if !services.IsValidPlan(req.Plan) {
		middleware.RespondError(c, apperrors.New(apperrors.CodeValidation, "invalid plan").
			WithDetails(gin.H{"plan": req.Plan}))
		return
	}

	userID := middleware.UserID(c)
	if err := services.ChangePlan(c.Request.Context(), userID, req.Plan, models.StatusActive); err != nil {
		middleware.RespondError(c, err)
		return
	}
	metrics.Default().IncPlanChange("api", req.Plan)

	c.JSON(http.StatusOK, gin.H{
		"message":             "upgraded",
		"plan":                req.Plan,
		"subscription_status": models.StatusActive,
	})
}

// DowngradePlan moves the account back to the trial tier with a cancelled
// subscription. Trial dates are left untouched, so an already-used trial
// stays expired.
func DowngradePlan(c *gin.Context) {
	if !config.Current().Features.BillingEnabled {
		c.JSON(http.StatusNotFound, gin.H{"error": "billing not enabled"})
		return
	}

	plan := string(services.Resolver().Catalog().TrialPlan().ID)
	userID := middleware.UserID(c)
	if err := services.ChangePlan(c.Request.Context(), userID, plan, models.StatusCancelled); err != nil {
		middleware.RespondError(c, err)
		return
	}
	metrics.Default().IncPlanChange("api", plan)

	c.JSON(http.StatusOK, gin.H{
		"message":             "downgraded",
		"plan":                plan,
		"subscription_status": models.StatusCancelled,
	})
}
