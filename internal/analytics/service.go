package analytics

import (
	stderrors "errors"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/gcbaptista/go-dictionary-lookup/internal/logger"
	"github.com/gcbaptista/go-dictionary-lookup/internal/persistence"
	"github.com/gcbaptista/go-dictionary-lookup/model"
	"github.com/gcbaptista/go-dictionary-lookup/services"
)

const (
	maxEventsToKeep    = 10000
	popularSearchLimit = 5
)

// Service records timed searches and summarizes them
type Service struct {
	mutex        sync.RWMutex
	events       []model.SearchEvent
	total        int
	queryCounts  *xsync.MapOf[string, *xsync.Counter]
	dataFilePath string
	logger       *log.Logger
	now          func() time.Time
}

// NewService creates an analytics service. When dataFilePath is set, events
// saved by a previous run are loaded from it and Save writes them back.
func NewService(dataFilePath string) *Service {
	service := &Service{
		events:       make([]model.SearchEvent, 0),
		queryCounts:  xsync.NewMapOf[string, *xsync.Counter](),
		dataFilePath: dataFilePath,
		logger:       logger.New("analytics"),
		now:          time.Now,
	}

	if dataFilePath != "" {
		if err := service.loadData(); err != nil {
			service.logger.Warn("failed to load analytics data", "path", dataFilePath, "err", err)
		}
	}
	return service
}

// TrackSearchEvent records one search. A zero Timestamp is set to now.
func (s *Service) TrackSearchEvent(event model.SearchEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}

	s.mutex.Lock()
	s.events = append(s.events, event)
	if len(s.events) > maxEventsToKeep {
		s.events = s.events[len(s.events)-maxEventsToKeep:]
	}
	s.total++
	s.mutex.Unlock()

	if event.Query != "" {
		counter, _ := s.queryCounts.LoadOrCompute(event.Query, xsync.NewCounter)
		counter.Inc()
	}
}

// TrackResult records a stateless lookup. Untimed default-view results are ignored.
func (s *Service) TrackResult(result model.SearchResult) {
	if !result.Timed {
		return
	}
	s.TrackSearchEvent(model.SearchEvent{
		Query:        result.Query,
		Strategy:     result.Strategy,
		ResponseTime: result.Took,
		ResultCount:  result.Count,
	})
}

// Attach records every timed search the query state performs until the
// returned function is called.
func (s *Service) Attach(state services.QueryState) (detach func()) {
	var (
		mu      sync.Mutex
		lastSeq = state.Snapshot().SearchSeq
	)
	return state.Subscribe(func(snap model.Snapshot) {
		mu.Lock()
		if snap.SearchSeq <= lastSeq || snap.LastSearchDuration == nil {
			mu.Unlock()
			return
		}
		lastSeq = snap.SearchSeq
		mu.Unlock()

		s.TrackSearchEvent(model.SearchEvent{
			Query:        snap.Query,
			Strategy:     snap.Strategy,
			ResponseTime: *snap.LastSearchDuration,
			ResultCount:  len(snap.Visible),
		})
	})
}

// TotalSearches is the number of searches tracked since the service was created
func (s *Service) TotalSearches() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.total
}

// GetDashboardData summarizes the retained events
func (s *Service) GetDashboardData() model.AnalyticsDashboard {
	s.mutex.RLock()
	events := make([]model.SearchEvent, len(s.events))
	copy(events, s.events)
	total := s.total
	s.mutex.RUnlock()

	return model.AnalyticsDashboard{
		TotalSearches:            total,
		Strategies:               strategyStats(events),
		PopularSearches:          s.popularSearches(),
		ResponseTimeDistribution: responseTimeDistribution(events),
	}
}

// popularSearches returns the most searched queries, most frequent first
func (s *Service) popularSearches() []model.PopularSearch {
	popular := make([]model.PopularSearch, 0)
	s.queryCounts.Range(func(query string, counter *xsync.Counter) bool {
		popular = append(popular, model.PopularSearch{Query: query, SearchCount: int(counter.Value())})
		return true
	})

	sort.Slice(popular, func(i, j int) bool {
		if popular[i].SearchCount != popular[j].SearchCount {
			return popular[i].SearchCount > popular[j].SearchCount
		}
		return popular[i].Query < popular[j].Query
	})

	if len(popular) > popularSearchLimit {
		popular = popular[:popularSearchLimit]
	}
	return popular
}

// strategyStats aggregates latency per strategy, ordered by strategy name
func strategyStats(events []model.SearchEvent) []model.StrategyStats {
	byStrategy := make(map[model.Strategy]*model.StrategyStats)
	resultTotals := make(map[model.Strategy]int)
	totals := make(map[model.Strategy]time.Duration)

	for _, event := range events {
		stats, ok := byStrategy[event.Strategy]
		if !ok {
			stats = &model.StrategyStats{
				Strategy:        event.Strategy,
				MinResponseTime: event.ResponseTime,
				MaxResponseTime: event.ResponseTime,
			}
			byStrategy[event.Strategy] = stats
		}
		stats.SearchCount++
		stats.MinResponseTime = min(stats.MinResponseTime, event.ResponseTime)
		stats.MaxResponseTime = max(stats.MaxResponseTime, event.ResponseTime)
		totals[event.Strategy] += event.ResponseTime
		resultTotals[event.Strategy] += event.ResultCount
	}

	out := make([]model.StrategyStats, 0, len(byStrategy))
	for strategy, stats := range byStrategy {
		stats.AvgResponseTime = totals[strategy] / time.Duration(stats.SearchCount)
		stats.AvgResultCount = float64(resultTotals[strategy]) / float64(stats.SearchCount)
		out = append(out, *stats)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Strategy < out[j].Strategy
	})
	return out
}

// responseTimeDistribution buckets response times
func responseTimeDistribution(events []model.SearchEvent) model.ResponseTimeDistribution {
	dist := model.ResponseTimeDistribution{}
	total := len(events)

	if total == 0 {
		return dist
	}

	for _, event := range events {
		switch rt := event.ResponseTime; {
		case rt < 100*time.Microsecond:
			dist.BucketUnder100us++
		case rt < time.Millisecond:
			dist.Bucket100usTo1ms++
		case rt < 10*time.Millisecond:
			dist.Bucket1To10ms++
		default:
			dist.Bucket10msPlus++
		}
	}

	// Calculate percentages
	dist.PercentageUnder100 = float64(dist.BucketUnder100us) / float64(total) * 100
	dist.Percentage100To1ms = float64(dist.Bucket100usTo1ms) / float64(total) * 100
	dist.Percentage1To10ms = float64(dist.Bucket1To10ms) / float64(total) * 100
	dist.Percentage10msPlus = float64(dist.Bucket10msPlus) / float64(total) * 100

	return dist
}

// Save writes the retained events to the data file, if one is configured
func (s *Service) Save() error {
	if s.dataFilePath == "" {
		return nil
	}
	s.mutex.RLock()
	events := make([]model.SearchEvent, len(s.events))
	copy(events, s.events)
	s.mutex.RUnlock()

	return persistence.SaveGob(s.dataFilePath, events)
}

// loadData restores events and rebuilds the query counters
func (s *Service) loadData() error {
	var events []model.SearchEvent
	if err := persistence.LoadGob(s.dataFilePath, &events); err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	for _, event := range events {
		s.TrackSearchEvent(event)
	}
	s.logger.Debug("restored analytics events", "count", len(events))
	return nil
}
