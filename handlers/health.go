package handlers

import (
	"net/http"

	"shipbook/utils"

	"github.com/gin-gonic/gin"
)

// Health reports the latest snapshot from the health monitor.
func Health(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	if status.Status == "degraded" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
