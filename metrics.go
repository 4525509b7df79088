package lexgo

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/lexgo/model"
	"github.com/hupe1980/lexgo/validate"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    searchCounter   prometheus.Counter
//	    searchHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordSearch(domain model.Domain, duration time.Duration, err error) {
//	    p.searchCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordSearch is called after each search operation.
	// duration is the total time taken, err is nil if successful.
	RecordSearch(domain model.Domain, duration time.Duration, err error)

	// RecordLookup is called after each single-record lookup
	// (word, name, kanji, kana, category).
	RecordLookup(domain model.Domain, duration time.Duration, err error)

	// RecordValidate is called after each validation run.
	// violations is the number of findings in the report.
	RecordValidate(mode validate.Mode, duration time.Duration, violations int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSearch(model.Domain, time.Duration, error)  {}
func (NoopMetricsCollector) RecordLookup(model.Domain, time.Duration, error)  {}
func (NoopMetricsCollector) RecordValidate(validate.Mode, time.Duration, int) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SearchCount        atomic.Int64
	SearchErrors       atomic.Int64
	SearchTotalNanos   atomic.Int64
	LookupCount        atomic.Int64
	LookupErrors       atomic.Int64
	LookupTotalNanos   atomic.Int64
	ValidateCount      atomic.Int64
	ValidateViolations atomic.Int64
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(domain model.Domain, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordLookup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLookup(domain model.Domain, duration time.Duration, err error) {
	b.LookupCount.Add(1)
	b.LookupTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LookupErrors.Add(1)
	}
}

// RecordValidate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordValidate(mode validate.Mode, duration time.Duration, violations int) {
	b.ValidateCount.Add(1)
	b.ValidateViolations.Add(int64(violations))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SearchCount:        b.SearchCount.Load(),
		SearchErrors:       b.SearchErrors.Load(),
		SearchAvgNanos:     b.getAvgSearchNanos(),
		LookupCount:        b.LookupCount.Load(),
		LookupErrors:       b.LookupErrors.Load(),
		LookupAvgNanos:     b.getAvgLookupNanos(),
		ValidateCount:      b.ValidateCount.Load(),
		ValidateViolations: b.ValidateViolations.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgSearchNanos() int64 {
	count := b.SearchCount.Load()
	if count == 0 {
		return 0
	}
	return b.SearchTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgLookupNanos() int64 {
	count := b.LookupCount.Load()
	if count == 0 {
		return 0
	}
	return b.LookupTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SearchCount        int64
	SearchErrors       int64
	SearchAvgNanos     int64
	LookupCount        int64
	LookupErrors       int64
	LookupAvgNanos     int64
	ValidateCount      int64
	ValidateViolations int64
}
