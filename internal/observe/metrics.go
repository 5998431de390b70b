// Package observe provides the service's OpenTelemetry metrics with a
// Prometheus exporter bridge, plus the HTTP middleware recording request
// durations. All instruments are safe for concurrent use; a nil *Metrics is
// a no-op everywhere so wiring stays optional in tests.
package observe

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const meterName = "github.com/lumichat/lumichat"

// Metrics holds every instrument the service records.
type Metrics struct {
	// HTTPRequestDuration tracks request processing time in seconds, with
	// method and path attributes.
	HTTPRequestDuration metric.Float64Histogram

	// ProviderRequests counts inference backend calls, attributed by status.
	ProviderRequests metric.Int64Counter

	// ProviderErrors counts failed inference backend calls.
	ProviderErrors metric.Int64Counter

	// CacheReclaimed counts session records removed by the reclaim sweep.
	CacheReclaimed metric.Int64Counter
}

// Init sets up the global meter provider with a Prometheus reader and
// returns the metrics set plus the handler to mount at /metrics.
func Init(serviceName string) (*Metrics, http.Handler, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("observe: build resource: %w", err)
	}

	exporter, err := promexporter.New()
	if err != nil {
		return nil, nil, fmt.Errorf("observe: prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)

	m, err := NewMetrics(provider)
	if err != nil {
		return nil, nil, err
	}
	return m, promhttp.Handler(), nil
}

// NewMetrics creates the instrument set on the given provider. Tests pass
// their own provider to avoid cross-test pollution.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(meterName)

	httpDuration, err := meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request processing time"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("observe: http duration: %w", err)
	}

	providerRequests, err := meter.Int64Counter(
		"provider_requests_total",
		metric.WithDescription("Inference backend calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("observe: provider requests: %w", err)
	}

	providerErrors, err := meter.Int64Counter(
		"provider_errors_total",
		metric.WithDescription("Failed inference backend calls"),
	)
	if err != nil {
		return nil, fmt.Errorf("observe: provider errors: %w", err)
	}

	cacheReclaimed, err := meter.Int64Counter(
		"cache_reclaimed_sessions_total",
		metric.WithDescription("Session records removed by the reclaim sweep"),
	)
	if err != nil {
		return nil, fmt.Errorf("observe: cache reclaimed: %w", err)
	}

	return &Metrics{
		HTTPRequestDuration: httpDuration,
		ProviderRequests:    providerRequests,
		ProviderErrors:      providerErrors,
		CacheReclaimed:      cacheReclaimed,
	}, nil
}

// RecordProviderRequest counts one backend call and, when err is non-nil,
// one backend failure.
func (m *Metrics) RecordProviderRequest(ctx context.Context, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
		m.ProviderErrors.Add(ctx, 1)
	}
	m.ProviderRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordReclaim counts sessions removed by one sweep.
func (m *Metrics) RecordReclaim(removed int) {
	if m == nil || removed == 0 {
		return
	}
	m.CacheReclaimed.Add(context.Background(), int64(removed))
}

// Middleware records request duration per method and path.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		m.HTTPRequestDuration.Record(r.Context(), time.Since(start).Seconds(),
			metric.WithAttributes(
				attribute.String("method", r.Method),
				attribute.String("path", r.URL.Path),
			))
	})
}
