package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gcbaptista/go-dictionary-lookup/internal/analytics"
	"github.com/gcbaptista/go-dictionary-lookup/services"
)

// API holds dependencies for API handlers: the dictionary and its analytics.
type API struct {
	dict      services.Dictionary
	analytics *analytics.Service
}

// NewAPI creates a new API handler structure. A nil analytics service gets a
// fresh in-memory one.
func NewAPI(dict services.Dictionary, analyticsService *analytics.Service) *API {
	if analyticsService == nil {
		analyticsService = analytics.NewService("")
	}
	return &API{
		dict:      dict,
		analytics: analyticsService,
	}
}

// SetupRoutes defines all the API routes for the dictionary lookup service.
func SetupRoutes(router *gin.Engine, dict services.Dictionary, analyticsService *analytics.Service) *API {
	apiHandler := NewAPI(dict, analyticsService)

	// Health and observability routes
	router.GET("/health", apiHandler.HealthCheckHandler)
	router.GET("/analytics", apiHandler.GetAnalyticsHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Interactive query state
	router.GET("/state", apiHandler.GetStateHandler)
	router.POST("/query", apiHandler.SetQueryHandler)
	router.PUT("/strategy", apiHandler.SetStrategyHandler)

	// Stateless lookup
	router.GET("/lookup", apiHandler.LookupHandler)

	// Dataset jobs
	router.POST("/load", apiHandler.LoadHandler)
	router.POST("/refresh", apiHandler.RefreshHandler)

	jobRoutes := router.Group("/jobs")
	{
		jobRoutes.GET("", apiHandler.ListJobsHandler)              // List jobs, optionally by status
		jobRoutes.GET("/metrics", apiHandler.GetJobMetricsHandler) // Get job performance metrics
		jobRoutes.GET("/:jobId", apiHandler.GetJobHandler)         // Get job status by ID
	}

	return apiHandler
}

// QueryRequest sets the interactive query
type QueryRequest struct {
	Query string `json:"query"`
	// Debounce schedules the recompute after the typing delay instead of running it now
	Debounce bool `json:"debounce"`
}

// StrategyRequest switches the interactive strategy
type StrategyRequest struct {
	Strategy string `json:"strategy"`
}

// GetStateHandler returns the current snapshot
func (api *API) GetStateHandler(c *gin.Context) {
	c.JSON(http.StatusOK, api.dict.Snapshot())
}

// SetQueryHandler updates the query. Without debounce the visible list is
// recomputed before responding and the new snapshot is returned.
func (api *API) SetQueryHandler(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	if result := ValidateQuery(req.Query); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	if req.Debounce {
		api.dict.Type(req.Query)
		c.JSON(http.StatusAccepted, gin.H{
			"status":  "accepted",
			"message": "Query scheduled",
			"query":   req.Query,
		})
		return
	}

	api.dict.SetQuery(req.Query)
	api.dict.Recompute()
	c.JSON(http.StatusOK, api.dict.Snapshot())
}

// SetStrategyHandler switches strategy and returns the recomputed snapshot
func (api *API) SetStrategyHandler(c *gin.Context) {
	var req StrategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}

	strategy, result := ValidateStrategy(req.Strategy, false)
	if result.HasErrors() {
		SendInvalidStrategyError(c, req.Strategy)
		return
	}
	if err := api.dict.SetStrategy(strategy); err != nil {
		SendInvalidStrategyError(c, req.Strategy)
		return
	}
	c.JSON(http.StatusOK, api.dict.Snapshot())
}

// LookupHandler answers ?q=&strategy= without touching the interactive state.
// The strategy defaults to the interactive one.
func (api *API) LookupHandler(c *gin.Context) {
	query := c.Query("q")
	if result := ValidateQuery(query); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	strategyParam := c.Query("strategy")
	strategy := api.dict.Snapshot().Strategy
	if strings.TrimSpace(strategyParam) != "" {
		parsed, result := ValidateStrategy(strategyParam, false)
		if result.HasErrors() {
			SendInvalidStrategyError(c, strategyParam)
			return
		}
		strategy = parsed
	}

	searchResult := api.dict.Lookup(query, strategy)
	api.analytics.TrackResult(searchResult)
	c.JSON(http.StatusOK, searchResult)
}
