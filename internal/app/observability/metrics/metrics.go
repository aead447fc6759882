package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
// Make fields public so they can be accessed from other packages.
type AppMetrics struct {
	HTTPRequestsTotal      metric.Int64Counter
	HTTPRequestDuration    metric.Float64Histogram
	CheckInsTotal          metric.Int64Counter
	CheckOutsTotal         metric.Int64Counter
	CheckInConflictsTotal  metric.Int64Counter
	NearbySearchesTotal    metric.Int64Counter
	MigrationRunsTotal     metric.Int64Counter
	RecomputePassDuration  metric.Float64Histogram
	RecomputeItemsTotal    metric.Int64Counter
	RecomputeFailuresTotal metric.Int64Counter
	DBQueryErrorsTotal     metric.Int64Counter
}

var (
	// Global instance of AppMetrics (initialized once)
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("loci-pulse")
		var err error
		m := &AppMetrics{}

		m.HTTPRequestsTotal, err = meter.Int64Counter(
			"http_requests_total",
			metric.WithDescription("Total number of HTTP requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_requests_total: %v", err)
		}

		m.HTTPRequestDuration, err = meter.Float64Histogram(
			"http_request_duration_seconds",
			metric.WithDescription("Duration of HTTP requests in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_request_duration_seconds: %v", err)
		}

		m.CheckInsTotal, err = meter.Int64Counter(
			"checkins_total",
			metric.WithDescription("Total number of live check-ins recorded"),
			metric.WithUnit("{checkin}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create checkins_total: %v", err)
		}

		m.CheckOutsTotal, err = meter.Int64Counter(
			"checkouts_total",
			metric.WithDescription("Total number of check-outs recorded"),
			metric.WithUnit("{checkout}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create checkouts_total: %v", err)
		}

		m.CheckInConflictsTotal, err = meter.Int64Counter(
			"checkin_conflicts_total",
			metric.WithDescription("Check-in attempts rejected because an active record already exists"),
			metric.WithUnit("{conflict}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create checkin_conflicts_total: %v", err)
		}

		m.NearbySearchesTotal, err = meter.Int64Counter(
			"nearby_searches_total",
			metric.WithDescription("Total number of proximity searches served"),
			metric.WithUnit("{search}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create nearby_searches_total: %v", err)
		}

		m.MigrationRunsTotal, err = meter.Int64Counter(
			"migration_runs_total",
			metric.WithDescription("Total number of legacy migration passes completed"),
			metric.WithUnit("{run}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create migration_runs_total: %v", err)
		}

		m.RecomputePassDuration, err = meter.Float64Histogram(
			"recompute_pass_duration_seconds",
			metric.WithDescription("Duration of popularity recompute passes in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create recompute_pass_duration_seconds: %v", err)
		}

		m.RecomputeItemsTotal, err = meter.Int64Counter(
			"recompute_items_total",
			metric.WithDescription("Total number of items processed by recompute passes"),
			metric.WithUnit("{item}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create recompute_items_total: %v", err)
		}

		m.RecomputeFailuresTotal, err = meter.Int64Counter(
			"recompute_failures_total",
			metric.WithDescription("Total number of items skipped by recompute passes after errors"),
			metric.WithUnit("{item}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create recompute_failures_total: %v", err)
		}

		m.DBQueryErrorsTotal, err = meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of database query errors"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_errors_total: %v", err)
		}

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the globally initialized AppMetrics instance.
// Panics if InitAppMetrics was not called first.
func Get() *AppMetrics {
	if appMetrics == nil {
		// This indicates a programming error - InitAppMetrics must be called at startup.
		panic("metrics instruments not initialized. Call metrics.InitAppMetrics() first.")
	}
	return appMetrics
}
