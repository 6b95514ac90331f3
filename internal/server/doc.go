// Package server exposes the replyd REST API: email listing and retrieval,
// reply suggestions, send/archive/delete/label operations, a backend status
// endpoint, and Kubernetes health probes. Prometheus metrics are served on a
// separate listener.
package server
