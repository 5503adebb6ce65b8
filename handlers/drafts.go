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
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const defaultModel = "standard"

type DraftInput struct {
	ClientName string `json:"client_name" binding:"required,max=255"`
	Channel    string `json:"channel" binding:"omitempty,oneof=email chat sms social"`
	Tone       string `json:"tone" binding:"max=64"`
	Model      string `json:"model" binding:"max=64"`
	Message    string `json:"message" binding:"required,max=8000"`
}

// CreateDraft generates a reply with the AI backend and stores it. Choosing a
// non-default model or a tone needs the matching feature, and every draft
// counts against the plan's monthly allowance.
func CreateDraft(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	var in DraftInput
	if err := c.ShouldBindJSON(&in); err != nil {
		middleware.RespondError(c, apperrors.Wrap(apperrors.CodeValidation, err, err.Error()))
		return
	}

	model := config.Current().AI.DefaultModel
	if model == "" {
		model = defaultModel
	}
	if in.Model != "" && in.Model != model {
		if !middleware.Authorize(c, user, entitlements.FeatureModelSwitching) {
			return
		}
		model = in.Model
	}
	tone := strings.TrimSpace(in.Tone)
	if tone != "" && !middleware.Authorize(c, user, entitlements.FeatureToneCustomization) {
		return
	}
	channel := in.Channel
	if channel == "" {
		channel = "email"
	}

	ctx := c.Request.Context()
	r := services.Resolver()
	now := r.Now()
	usage, err := services.GetUsage(ctx, user, now)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	// Re-checked under lock when saving.
	if usage.Remaining == 0 {
		respondLimitReached(c, user, usage.Used, usage.Limit)
		return
	}

	reply, err := services.GetDrafter().Draft(ctx, services.DraftRequest{
		ClientName: in.ClientName,
		Channel:    channel,
		Tone:       tone,
		Model:      model,
		Message:    in.Message,
	})
	if err != nil {
		metrics.Default().IncDraft(user.Plan, "error")
		middleware.RespondError(c, err)
		return
	}

	draft := &models.Draft{
		UserID:     user.ID,
		ClientName: in.ClientName,
		Channel:    channel,
		Tone:       tone,
		Model:      model,
		Message:    in.Message,
		Reply:      reply,
	}
	used, err := services.SaveDraftWithinLimit(ctx, draft, usage.Limit, services.PeriodStart(now))
	if err != nil {
		if apperrors.As(err).Code() == apperrors.CodeRateLimit {
			metrics.Default().IncDraft(user.Plan, "limited")
			respondLimitReached(c, user, used, usage.Limit)
			return
		}
		metrics.Default().IncDraft(user.Plan, "error")
		middleware.RespondError(c, err)
		return
	}
	metrics.Default().IncDraft(user.Plan, "ok")

	usage.Used = used
	usage.Remaining = r.RemainingQueries(user.Subscriber(), used)
	c.JSON(http.StatusCreated, gin.H{"draft": draft, "usage": usage})
}

func respondLimitReached(c *gin.Context, user *models.User, used, limit int) {
	upgrade := services.Resolver().GetUpgradeTarget(user.Plan, entitlements.FeatureAIResponses)
	middleware.RespondError(c, apperrors.New(apperrors.CodeRateLimit, "monthly draft limit reached").
		WithDetails(gin.H{"used": used, "limit": limit, "upgrade_target": upgrade}))
}

type listDraftsQuery struct {
	Limit int `form:"limit,default=50" binding:"min=1,max=100"`
}

func ListDrafts(c *gin.Context) {
	var q listDraftsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.RespondError(c, apperrors.Wrap(apperrors.CodeValidation, err, "limit must be between 1 and 100"))
		return
	}
	drafts, err := services.ListDrafts(c.Request.Context(), middleware.UserID(c), q.Limit)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"drafts": drafts})
}

// draftID reads the :id path parameter. Ids that are not UUIDs cannot name a
// draft, so they are answered as missing before reaching the database.
func draftID(c *gin.Context) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		middleware.RespondError(c, apperrors.New(apperrors.CodeNotFound, "draft not found"))
		return "", false
	}
	return id.String(), true
}

func GetDraft(c *gin.Context) {
	id, ok := draftID(c)
	if !ok {
		return
	}
	draft, err := services.GetDraft(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func DeleteDraft(c *gin.Context) {
	id, ok := draftID(c)
	if !ok {
		return
	}
	if err := services.DeleteDraft(c.Request.Context(), middleware.UserID(c), id); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "draft deleted"})
}
