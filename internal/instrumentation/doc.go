// Package instrumentation provides OpenTelemetry metrics and tracing for
// replyd.
//
// Metrics cover the HTTP surface, Gmail API calls, Ollama generations with
// their retries, and suggestion pipeline outcomes. The default exporter is
// Prometheus, served by the metrics listener; OTLP and stdout exporters can
// be selected through environment variables:
//
//	INSTRUMENTATION_ENABLED      enable/disable all instrumentation (default: true)
//	METRICS_EXPORTER             prometheus, otlp, or stdout (default: prometheus)
//	TRACING_EXPORTER             otlp, stdout, or none (default: none)
//	OTEL_EXPORTER_OTLP_ENDPOINT  collector endpoint for the otlp exporters
//	OTEL_TRACES_SAMPLER_ARG      trace sampling rate 0.0-1.0 (default: 0.1)
//
// The Metrics zero value is a valid no-op recorder, so components can accept
// a *Metrics without caring whether instrumentation is configured.
package instrumentation
