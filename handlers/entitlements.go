package handlers

import (
	"draftdesk/entitlements"
	"draftdesk/middleware"
	"draftdesk/services"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListEntitlements evaluates every known feature for the current user.
func ListEntitlements(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}

	r := services.Resolver()
	sub := user.Subscriber()
	features := r.Catalog().KnownFeatures()
	decisions := make([]entitlements.Decision, 0, len(features))
	for _, f := range features {
		decisions = append(decisions, r.Evaluate(sub, f))
	}
	c.JSON(http.StatusOK, gin.H{
		"plan":         user.Plan,
		"entitlements": decisions,
	})
}

// GetEntitlement evaluates one feature. Unknown feature ids are denied, not 404.
func GetEntitlement(c *gin.Context) {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.Resolver().Evaluate(user.Subscriber(), c.Param("feature")))
}
