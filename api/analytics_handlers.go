package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetAnalyticsHandler handles the request to get analytics data
func (api *API) GetAnalyticsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, api.analytics.GetDashboardData())
}

// HealthCheckHandler reports liveness along with the dataset state
func (api *API) HealthCheckHandler(c *gin.Context) {
	snap := api.dict.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"service":       "go-dictionary-lookup",
		"loading":       snap.IsLoading,
		"total_entries": snap.TotalEntries,
		"timestamp":     fmt.Sprintf("%d", time.Now().Unix()),
	})
}
