// Copyright 2015 The Cockroach Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License. See the AUTHORS file
// for names of contributors.

// Package metric holds the prometheus collectors a LogSystem records
// against: push/peek throughput and latency, recovery duration, lock
// outcomes, and pop-queue depth.
package metric

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "tpls"
	subsystem = "logsystem"
)

// Metrics bundles every collector a LogSystem instance updates. A nil
// *Metrics is valid everywhere it's passed and simply records nothing.
type Metrics struct {
	PushTotal    *prometheus.CounterVec
	PushDuration *prometheus.HistogramVec

	PeekTotal *prometheus.CounterVec

	PopQueueDepth prometheus.Gauge

	RecoveryDuration prometheus.Histogram
	LockOutcomes     *prometheus.CounterVec
}

// New constructs a fresh, unregistered Metrics. Callers register its
// collectors (directly, or via PrometheusCollectors) with whatever
// *prometheus.Registry the process uses.
func New() *Metrics {
	labels := []string{"outcome"}
	return &Metrics{
		PushTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "push_total",
			Help:      "Number of Push calls by outcome (ok/failed).",
		}, labels),
		PushDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "push_duration_seconds",
			Help:      "Time spent in Push waiting for the write anti-quorum.",
			Buckets:   prometheus.ExponentialBuckets(1e-4, 4, 10),
		}, labels),
		PeekTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "peek_total",
			Help:      "Number of Peek/PeekTags/PeekLogRouter calls by outcome.",
		}, labels),
		PopQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pop_queue_depth",
			Help:      "Number of (replica, tag) pairs with a pending coalesced pop.",
		}),
		RecoveryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "recovery_duration_seconds",
			Help:      "Time spent computing a durable-version proposal during epoch-end recovery.",
			Buckets:   prometheus.ExponentialBuckets(1e-3, 4, 10),
		}),
		LockOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "lock_outcomes_total",
			Help:      "Per-replica lock results during epoch-end recovery, by outcome (responded/unresponsive).",
		}, []string{"outcome"}),
	}
}

// PrometheusCollectors lists every collector New creates, for registration
// with a *prometheus.Registry in one call.
func (m *Metrics) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.PushTotal,
		m.PushDuration,
		m.PeekTotal,
		m.PopQueueDepth,
		m.RecoveryDuration,
		m.LockOutcomes,
	}
}

// ObservePush records one Push call's outcome and latency.
func (m *Metrics) ObservePush(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.PushTotal.WithLabelValues(outcome).Inc()
	m.PushDuration.WithLabelValues(outcome).Observe(seconds)
}

// ObservePeek records one peek-family call's outcome.
func (m *Metrics) ObservePeek(outcome string) {
	if m == nil {
		return
	}
	m.PeekTotal.WithLabelValues(outcome).Inc()
}

// SetPopQueueDepth reports the current size of the pop coalescing table.
func (m *Metrics) SetPopQueueDepth(n int) {
	if m == nil {
		return
	}
	m.PopQueueDepth.Set(float64(n))
}

// ObserveRecovery records one getDurableVersion computation's wall time.
func (m *Metrics) ObserveRecovery(seconds float64) {
	if m == nil {
		return
	}
	m.RecoveryDuration.Observe(seconds)
}

// ObserveLockOutcome records one replica's lock-reply outcome.
func (m *Metrics) ObserveLockOutcome(outcome string) {
	if m == nil {
		return
	}
	m.LockOutcomes.WithLabelValues(outcome).Inc()
}
