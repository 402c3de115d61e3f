// Package metrics exposes storefront activity as prometheus counters.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"

	"goflare.io/storefront/event"
	"goflare.io/storefront/fetch"
)

var _ fetch.Observer = (*Recorder)(nil)

type Recorder struct {
	registry *prometheus.Registry
	logger   *zap.Logger

	fetchLookups  *prometheus.CounterVec
	fetchRetries  *prometheus.CounterVec
	fetchFailures *prometheus.CounterVec
	changes       *prometheus.CounterVec
	checkouts     *prometheus.CounterVec
}

func NewRecorder(registry *prometheus.Registry, namespace string, logger *zap.Logger) (*Recorder, error) {
	r := &Recorder{
		registry: registry,
		logger:   logger,
		fetchLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "lookups_total",
			Help:      "Fetch controller requests by cache outcome.",
		}, []string{"controller", "outcome"}),
		fetchRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "retries_total",
			Help:      "Producer retries scheduled by fetch controllers.",
		}, []string{"controller"}),
		fetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "failures_total",
			Help:      "Fetch requests that exhausted their retries.",
		}, []string{"controller"}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collection_changes_total",
			Help:      "Change notifications published on the bus.",
		}, []string{"topic"}),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Checkout attempts by outcome.",
		}, []string{"outcome"}),
	}

	for _, c := range []**prometheus.CounterVec{&r.fetchLookups, &r.fetchRetries, &r.fetchFailures, &r.changes, &r.checkouts} {
		if err := registry.Register(*c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return nil, fmt.Errorf("failed to register collector: %w", err)
			}
			existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				return nil, fmt.Errorf("failed to register collector: %w", err)
			}
			*c = existing
		}
	}

	logger.Info("Prometheus metrics initialized", zap.String("namespace", namespace))

	return r, nil
}

func (r *Recorder) Hit(name string) {
	r.fetchLookups.WithLabelValues(name, "hit").Inc()
}

func (r *Recorder) Miss(name string) {
	r.fetchLookups.WithLabelValues(name, "miss").Inc()
}

func (r *Recorder) Retry(name string, _ int) {
	r.fetchRetries.WithLabelValues(name).Inc()
}

func (r *Recorder) Failure(name string, err error) {
	r.fetchFailures.WithLabelValues(name).Inc()
	r.logger.Debug("Fetch failure recorded", zap.String("controller", name), zap.Error(err))
}

// Checkout counts a checkout attempt under outcome.
func (r *Recorder) Checkout(outcome string) {
	r.checkouts.WithLabelValues(outcome).Inc()
}

// WatchBus counts every change published on bus. The returned func stops
// counting.
func (r *Recorder) WatchBus(bus *event.Bus) func() {
	topics := []event.Topic{event.TopicCartUpdated, event.TopicWishlistUpdated, event.TopicNotificationsUpdated}

	unsubscribe := make([]func(), 0, len(topics))
	for _, topic := range topics {
		unsubscribe = append(unsubscribe, bus.Subscribe(topic, func(_ context.Context, change event.Change) {
			r.changes.WithLabelValues(string(change.Topic)).Inc()
		}))
	}

	return func() {
		for _, fn := range unsubscribe {
			fn()
		}
	}
}

// WriteText dumps the registry in the prometheus text format.
func (r *Recorder) WriteText(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return err
	}

	for _, family := range families {
		if _, err = expfmt.MetricFamilyToText(w, family); err != nil {
			return err
		}
	}
	return nil
}
