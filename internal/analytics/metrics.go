package analytics

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultSent   = "sent"
	resultFailed = "failed"
)

type instrumented struct {
	next   Client
	events *prometheus.CounterVec
}

// Instrument counts captured events by name and result on reg.
func Instrument(next Client, reg prometheus.Registerer) (Client, error) {
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kerkoapp",
		Subsystem: "analytics",
		Name:      "events_total",
		Help:      "Analytics events by name and delivery result.",
	}, []string{"event", "result"})

	if err := reg.Register(events); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		events = already.ExistingCollector.(*prometheus.CounterVec)
	}
	return &instrumented{next: next, events: events}, nil
}

func (c *instrumented) Capture(ctx context.Context, event Event) error {
	err := c.next.Capture(ctx, event)
	result := resultSent
	if err != nil {
		result = resultFailed
	}
	c.events.WithLabelValues(event.Name, result).Inc()
	return err
}
