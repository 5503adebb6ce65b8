package handlers

import (
	"context"
	"draftdesk/db"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func Healthz(c *gin.Context) {
	conn := db.GetDB()
	if conn == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "database": "not initialised"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "database": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
