// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics exposes chatpad's Prometheus counters.
//
// Every method is safe on a nil *Recorder so components can take an optional
// recorder without guarding each call.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for backend requests.
const (
	OutcomeSuccess = "success"
	OutcomeLoading = "loading"
	OutcomeError   = "error"
)

// Recorder owns a private registry and the chatpad collectors.
type Recorder struct {
	registry *prometheus.Registry

	backendRequests   *prometheus.CounterVec
	backendLatency    *prometheus.HistogramVec
	storageFailures   *prometheus.CounterVec
	attachRejected    prometheus.Counter
	sendsDropped      prometheus.Counter
	conversationsKept prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		backendRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatpad",
			Name:      "backend_requests_total",
			Help:      "Backend requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		backendLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chatpad",
			Name:      "backend_request_duration_seconds",
			Help:      "Backend request latency.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"endpoint"}),
		storageFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatpad",
			Name:      "storage_write_failures_total",
			Help:      "Failed writes to local storage by key.",
		}, []string{"key"}),
		attachRejected: f.NewCounter(prometheus.CounterOpts{
			Namespace: "chatpad",
			Name:      "attachments_rejected_total",
			Help:      "Attachments rejected before sending.",
		}),
		sendsDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: "chatpad",
			Name:      "sends_dropped_total",
			Help:      "Sends ignored because a request was already in flight.",
		}),
		conversationsKept: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "chatpad",
			Name:      "conversations",
			Help:      "Conversations currently stored.",
		}),
	}
}

// Registry exposes the underlying registry for tests and handlers.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveRequest records one backend round trip.
func (r *Recorder) ObserveRequest(endpoint, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.backendRequests.WithLabelValues(endpoint, outcome).Inc()
	r.backendLatency.WithLabelValues(endpoint).Observe(d.Seconds())
}

// StorageFailure counts a failed persist of key.
func (r *Recorder) StorageFailure(key string) {
	if r == nil {
		return
	}
	r.storageFailures.WithLabelValues(key).Inc()
}

// AttachmentRejected counts a file refused before sending.
func (r *Recorder) AttachmentRejected() {
	if r == nil {
		return
	}
	r.attachRejected.Inc()
}

// SendDropped counts a send ignored by the single-flight guard.
func (r *Recorder) SendDropped() {
	if r == nil {
		return
	}
	r.sendsDropped.Inc()
}

// SetConversations reports the stored conversation count.
func (r *Recorder) SetConversations(n int) {
	if r == nil {
		return
	}
	r.conversationsKept.Set(float64(n))
}

// Handler returns the /metrics handler for this recorder.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve listens on addr until ctx is cancelled.
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
