package handlers

import (
	"draftdesk/middleware"
	"draftdesk/services"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetStatsOverview summarises the user's drafting activity for the dashboard.
func GetStatsOverview(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	ctx := c.Request.Context()
	now := services.Resolver().Now()
	stats, err := services.GetDraftStats(ctx, user.ID, services.PeriodStart(now))
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	stats.Usage, err = services.GetUsage(ctx, user, now)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
