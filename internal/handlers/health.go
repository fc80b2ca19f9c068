package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/teamboard-dev/teamboard/internal/health"
)

// HealthCheck reports liveness together with the state of each dependency.
// A failing dependency turns the response into a 503.
func HealthCheck(checker *health.Checker) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := health.Report{Status: health.StatusOK}
		if checker != nil {
			report = checker.Run(c.Request.Context())
		}

		status := http.StatusOK
		message := "Teamboard is running"
		if !report.Healthy() {
			status = http.StatusServiceUnavailable
			message = "Teamboard is running with failing dependencies"
		}

		c.JSON(status, gin.H{
			"status":    report.Status,
			"message":   message,
			"checks":    report.Checks,
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}
