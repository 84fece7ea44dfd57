// Package analytics captures product events and forwards them to an
// external analytics service.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrCaptureRejected is returned when the analytics service answers with an
// error status.
var ErrCaptureRejected = errors.New("analytics event rejected")

// Event is a single product event.
type Event struct {
	Name       string
	DistinctID string
	Properties map[string]any
}

// Client sends events.
type Client interface {
	Capture(ctx context.Context, event Event) error
}

// Noop discards every event.
type Noop struct{}

func (Noop) Capture(context.Context, Event) error { return nil }

type capturePayload struct {
	APIKey     string         `json:"api_key"`
	Event      string         `json:"event"`
	DistinctID string         `json:"distinct_id"`
	Properties map[string]any `json:"properties,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// HTTPClient posts events to the capture endpoint of an analytics host.
type HTTPClient struct {
	apiKey string
	client *resty.Client
	now    func() time.Time
}

// NewHTTPClient creates a client for host.
func NewHTTPClient(host, apiKey string, timeout time.Duration) *HTTPClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(host, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &HTTPClient{
		apiKey: apiKey,
		client: client,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Capture sends event.
func (c *HTTPClient) Capture(ctx context.Context, event Event) error {
	payload := capturePayload{
		APIKey:     c.apiKey,
		Event:      event.Name,
		DistinctID: event.DistinctID,
		Properties: event.Properties,
		Timestamp:  c.now(),
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/capture/")
	if err != nil {
		return fmt.Errorf("capture %s: %w", event.Name, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: %s returned %d", ErrCaptureRejected, event.Name, resp.StatusCode())
	}
	return nil
}
