// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StudyReview Contributors

package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/studyreview/studyreview/internal/auth"
)

// Metrics contains the custom Prometheus metrics for studyreview.
type Metrics struct {
	AuthOperations *prometheus.CounterVec
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
}

// NewMetrics creates and registers the studyreview metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuthOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studyreview_auth_operations_total",
				Help: "Total number of auth operations by operation, status and failure kind",
			},
			[]string{"operation", "status", "kind"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studyreview_http_requests_total",
				Help: "Total number of API requests by method, route and status code",
			},
			[]string{"method", "route", "code"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "studyreview_http_request_duration_seconds",
				Help:    "API request latency by method and route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	reg.MustRegister(m.AuthOperations)
	reg.MustRegister(m.HTTPRequests)
	reg.MustRegister(m.HTTPDuration)

	return m
}

// RecordOutcome counts one auth operation. Successful operations are
// labeled with kind "none".
func (m *Metrics) RecordOutcome(operation string, status auth.Status, kind auth.Kind) {
	kindLabel := string(kind)
	if kindLabel == "" {
		kindLabel = "none"
	}
	m.AuthOperations.WithLabelValues(operation, string(status), kindLabel).Inc()
}

// ObserveRequest records one API request.
func (m *Metrics) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

var _ auth.OutcomeRecorder = (*Metrics)(nil)
