package metrics

import (
	"fmt"
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	ItineraryRequestsTotal    metric.Int64Counter
	TemplateHitsTotal         metric.Int64Counter
	TemplateMissesTotal       metric.Int64Counter
	AIFailuresTotal           metric.Int64Counter
	GenerationDurationSeconds metric.Float64Histogram
	DbQueryErrorsTotal        metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// New builds the instruments on the given meter.
func New(meter metric.Meter) (*AppMetrics, error) {
	var err error
	m := &AppMetrics{}

	m.ItineraryRequestsTotal, err = meter.Int64Counter(
		"itinerary_requests_total",
		metric.WithDescription("Itinerary generation requests answered, by source"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("itinerary_requests_total: %w", err)
	}

	m.TemplateHitsTotal, err = meter.Int64Counter(
		"itinerary_template_hits_total",
		metric.WithDescription("Itinerary requests served from a stored template"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("itinerary_template_hits_total: %w", err)
	}

	m.TemplateMissesTotal, err = meter.Int64Counter(
		"itinerary_template_misses_total",
		metric.WithDescription("Itinerary requests with no stored template"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, fmt.Errorf("itinerary_template_misses_total: %w", err)
	}

	m.AIFailuresTotal, err = meter.Int64Counter(
		"itinerary_ai_failures_total",
		metric.WithDescription("Day plan generations that failed and fell back to generic days"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("itinerary_ai_failures_total: %w", err)
	}

	m.GenerationDurationSeconds, err = meter.Float64Histogram(
		"itinerary_generation_duration_seconds",
		metric.WithDescription("End to end duration of itinerary generation"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("itinerary_generation_duration_seconds: %w", err)
	}

	m.DbQueryErrorsTotal, err = meter.Int64Counter(
		"db_query_errors_total",
		metric.WithDescription("Total number of database query errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("db_query_errors_total: %w", err)
	}

	return m, nil
}

// InitAppMetrics initializes the global instruments once, using the global
// MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		m, err := New(otel.GetMeterProvider().Meter("TravelAgentCRM"))
		if err != nil {
			log.Fatalf("Metrics: %v", err)
		}
		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the global instruments. Panics if InitAppMetrics was not called.
func Get() *AppMetrics {
	if appMetrics == nil {
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}
