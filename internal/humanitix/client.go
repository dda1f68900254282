// Package humanitix is a thin client for the Humanitix public API.
package humanitix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ds124wfegd/eventbot/config"
	"github.com/ds124wfegd/eventbot/internal/entity"
	"github.com/ds124wfegd/eventbot/internal/metrics"

	"github.com/sirupsen/logrus"
)

const (
	apiKeyHeader = "x-api-key"
	maxErrorBody = 300
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retry      *RetryManager
}

// NewClient builds a client from cfg. A nil httpClient gets one with
// cfg.Timeout applied.
func NewClient(cfg *config.HumanitixConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: httpClient,
		retry:      NewRetryManager(cfg.MaxRetries, cfg.RetryDelay),
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type eventsResponse struct {
	Events *[]entity.Event `json:"events"`
}

// FetchEvents returns the first page of events.
func (c *Client) FetchEvents(ctx context.Context) ([]entity.Event, error) {
	if !c.Configured() {
		return nil, entity.ErrNotConfigured
	}

	var resp eventsResponse
	if err := c.do(ctx, "fetch events", http.MethodGet, "/v1/events?page=1", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Events == nil {
		return nil, &entity.RemoteError{
			Op:  "fetch events",
			Err: &permanentError{err: fmt.Errorf("malformed response: missing events field")},
		}
	}
	return *resp.Events, nil
}

type ordersResponse struct {
	Total  *int              `json:"total"`
	Orders []json.RawMessage `json:"orders"`
}

// FetchAttendeeSnapshot returns the order count for eventID. Any failure
// yields ok == false; the snapshot is best effort.
func (c *Client) FetchAttendeeSnapshot(ctx context.Context, eventID string) (entity.AttendeeSnapshot, bool) {
	if !c.Configured() || eventID == "" {
		return entity.AttendeeSnapshot{}, false
	}

	path := "/v1/events/" + url.PathEscape(eventID) + "/orders?page=1"

	var resp ordersResponse
	if err := c.do(ctx, "fetch orders", http.MethodGet, path, nil, &resp); err != nil {
		logrus.WithFields(logrus.Fields{
			"event_id": eventID,
			"error":    err.Error(),
		}).Debug("attendee snapshot unavailable")
		return entity.AttendeeSnapshot{}, false
	}

	count := len(resp.Orders)
	if resp.Total != nil && *resp.Total > 0 {
		count = *resp.Total
	}
	return entity.AttendeeSnapshot{EventID: eventID, Count: count}, true
}

type capacityUpdate struct {
	TotalCapacity int `json:"totalCapacity"`
}

// UpdateCapacity sets the total capacity of eventID.
func (c *Client) UpdateCapacity(ctx context.Context, eventID string, capacity int) error {
	if !c.Configured() {
		return entity.ErrNotConfigured
	}
	if capacity < 0 {
		return entity.ErrInvalidCapacity
	}

	body, err := json.Marshal(capacityUpdate{TotalCapacity: capacity})
	if err != nil {
		return err
	}

	path := "/v1/events/" + url.PathEscape(eventID)
	return c.do(ctx, "update capacity", http.MethodPatch, path, body, nil)
}

// do runs one logical call, retrying transient failures.
func (c *Client) do(ctx context.Context, op, method, path string, body []byte, out interface{}) error {
	for attempt := 0; ; attempt++ {
		err := c.doOnce(ctx, op, method, path, body, out)
		if err == nil {
			return nil
		}

		retry, delay := c.retry.ShouldRetry(attempt, err)
		if !retry || ctx.Err() != nil {
			return err
		}

		logrus.WithFields(logrus.Fields{
			"operation": op,
			"attempt":   attempt + 1,
			"delay":     delay.String(),
			"error":     err.Error(),
		}).Warn("retrying humanitix request")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}

func (c *Client) doOnce(ctx context.Context, op, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &entity.RemoteError{Op: op, Err: &permanentError{err: err}}
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RemoteRequest(op, 0, time.Since(start))
		return &entity.RemoteError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	metrics.RemoteRequest(op, resp.StatusCode, time.Since(start))
	logrus.WithFields(logrus.Fields{
		"method":   method,
		"path":     path,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("humanitix request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &entity.RemoteError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &entity.RemoteError{Op: op, Err: &permanentError{err: fmt.Errorf("malformed response: %w", err)}}
	}
	return nil
}
