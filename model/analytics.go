package model

import "time"

// SearchEvent represents a single timed search for analytics tracking
type SearchEvent struct {
	Query        string        `json:"query"`
	Strategy     Strategy      `json:"strategy"`
	ResponseTime time.Duration `json:"response_time"`
	ResultCount  int           `json:"result_count"`
	Timestamp    time.Time     `json:"timestamp"`
}

// PopularSearch represents aggregated data for popular search terms
type PopularSearch struct {
	Query       string `json:"query"`
	SearchCount int    `json:"search_count"`
}

// StrategyStats aggregates latency figures for one strategy
type StrategyStats struct {
	Strategy        Strategy      `json:"strategy"`
	SearchCount     int           `json:"search_count"`
	AvgResponseTime time.Duration `json:"avg_response_time_ns"`
	MinResponseTime time.Duration `json:"min_response_time_ns"`
	MaxResponseTime time.Duration `json:"max_response_time_ns"`
	AvgResultCount  float64       `json:"avg_result_count"`
}

// ResponseTimeDistribution represents response time distribution buckets.
type ResponseTimeDistribution struct {
	BucketUnder100us   int     `json:"bucket_under_100us"`
	Bucket100usTo1ms   int     `json:"bucket_100us_1ms"`
	Bucket1To10ms      int     `json:"bucket_1_10ms"`
	Bucket10msPlus     int     `json:"bucket_10ms_plus"`
	PercentageUnder100 float64 `json:"percentage_under_100us"`
	Percentage100To1ms float64 `json:"percentage_100us_1ms"`
	Percentage1To10ms  float64 `json:"percentage_1_10ms"`
	Percentage10msPlus float64 `json:"percentage_10ms_plus"`
}

// AnalyticsDashboard represents the complete analytics summary
type AnalyticsDashboard struct {
	TotalSearches            int                      `json:"total_searches"`
	Strategies               []StrategyStats          `json:"strategies"`
	PopularSearches          []PopularSearch          `json:"popular_searches"`
	ResponseTimeDistribution ResponseTimeDistribution `json:"response_time_distribution"`
}
