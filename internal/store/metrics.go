package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// InstrumentedClient wraps a Client with Prometheus metrics on every store
// round trip and published event.
type InstrumentedClient struct {
	next Client

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	eventsTotal     *prometheus.CounterVec
}

// NewInstrumentedClient decorates next with metrics registered on reg.
func NewInstrumentedClient(next Client, reg prometheus.Registerer) *InstrumentedClient {
	factory := promauto.With(reg)

	return &InstrumentedClient{
		next: next,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "store_requests_total",
				Help: "Total number of store requests",
			},
			[]string{"collection", "operation", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "store_request_duration_milliseconds",
				Help:    "Store request duration in milliseconds",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"collection", "operation"},
		),
		eventsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "store_events_delivered_total",
				Help: "Total number of change events delivered to subscribers",
			},
			[]string{"collection", "event"},
		),
	}
}

func (c *InstrumentedClient) observe(collection, op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.requestsTotal.WithLabelValues(collection, op, status).Inc()
	c.requestDuration.WithLabelValues(collection, op).
		Observe(float64(time.Since(start).Milliseconds()))
}

func (c *InstrumentedClient) Select(ctx context.Context, collection string, filters []Filter, order *Order) ([]Row, error) {
	start := time.Now()
	rows, err := c.next.Select(ctx, collection, filters, order)
	c.observe(collection, "select", start, err)
	return rows, err
}

func (c *InstrumentedClient) Insert(ctx context.Context, collection string, row Row) (Row, error) {
	start := time.Now()
	stored, err := c.next.Insert(ctx, collection, row)
	c.observe(collection, "insert", start, err)
	return stored, err
}

func (c *InstrumentedClient) Update(ctx context.Context, collection string, id uuid.UUID, patch Row) (Row, error) {
	start := time.Now()
	updated, err := c.next.Update(ctx, collection, id, patch)
	c.observe(collection, "update", start, err)
	return updated, err
}

func (c *InstrumentedClient) Delete(ctx context.Context, collection string, id uuid.UUID) error {
	start := time.Now()
	err := c.next.Delete(ctx, collection, id)
	c.observe(collection, "delete", start, err)
	return err
}

func (c *InstrumentedClient) Subscribe(collection string, h Handler) Subscription {
	return c.next.Subscribe(collection, func(ev Event) {
		c.eventsTotal.WithLabelValues(ev.Collection, ev.Type.String()).Inc()
		h(ev)
	})
}
