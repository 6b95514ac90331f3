package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrMethod    = "method"
	attrPath      = "path"
	attrStatus    = "status"
	attrOperation = "operation"
	attrModel     = "model"
	attrOutcome   = "outcome"
)

// Metrics provides methods for recording observability metrics. The zero
// value is a no-op recorder; every method checks for uninitialized
// instruments so a nil-config deployment never panics.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Gmail API metrics
	gmailOperationsTotal   metric.Int64Counter
	gmailOperationDuration metric.Float64Histogram

	// Ollama metrics
	ollamaGenerationsTotal   metric.Int64Counter
	ollamaGenerationDuration metric.Float64Histogram
	ollamaRetriesTotal       metric.Int64Counter

	// Suggestion pipeline metrics
	suggestionsTotal metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.gmailOperationsTotal, err = meter.Int64Counter(
		"gmail_api_operations_total",
		metric.WithDescription("Total number of Gmail API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail_api_operations_total counter: %w", err)
	}

	m.gmailOperationDuration, err = meter.Float64Histogram(
		"gmail_api_operation_duration_seconds",
		metric.WithDescription("Gmail API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail_api_operation_duration_seconds histogram: %w", err)
	}

	m.ollamaGenerationsTotal, err = meter.Int64Counter(
		"ollama_generations_total",
		metric.WithDescription("Total number of Ollama generation requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama_generations_total counter: %w", err)
	}

	m.ollamaGenerationDuration, err = meter.Float64Histogram(
		"ollama_generation_duration_seconds",
		metric.WithDescription("Ollama generation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama_generation_duration_seconds histogram: %w", err)
	}

	m.ollamaRetriesTotal, err = meter.Int64Counter(
		"ollama_retries_total",
		metric.WithDescription("Total number of Ollama request retries"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama_retries_total counter: %w", err)
	}

	m.suggestionsTotal, err = meter.Int64Counter(
		"suggestions_total",
		metric.WithDescription("Total number of suggestion pipeline runs by outcome"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create suggestions_total counter: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, route pattern,
// status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordGmailOperation records a Gmail API operation.
// Operation is the call type (list, get, metadata, send, modify, trash);
// status is "success" or "error".
func (m *Metrics) RecordGmailOperation(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil || m.gmailOperationsTotal == nil || m.gmailOperationDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	}

	m.gmailOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.gmailOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordOllamaGeneration records one generation request against the model.
func (m *Metrics) RecordOllamaGeneration(ctx context.Context, model, status string, duration time.Duration) {
	if m == nil || m.ollamaGenerationsTotal == nil || m.ollamaGenerationDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrModel, model),
		attribute.String(attrStatus, status),
	}

	m.ollamaGenerationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.ollamaGenerationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordOllamaRetry counts one retry of a failed generation request.
func (m *Metrics) RecordOllamaRetry(ctx context.Context, model string) {
	if m == nil || m.ollamaRetriesTotal == nil {
		return
	}

	m.ollamaRetriesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrModel, model),
	))
}

// RecordSuggestionOutcome counts one suggestion pipeline run.
// Outcome is one of OutcomeGenerated, OutcomeFallback, OutcomeSelfReply.
func (m *Metrics) RecordSuggestionOutcome(ctx context.Context, outcome string) {
	if m == nil || m.suggestionsTotal == nil {
		return
	}

	m.suggestionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrOutcome, outcome),
	))
}
