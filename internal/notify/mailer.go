// Package notify implements the notification dispatcher: a stateless client
// that transmits a structured notification to the external mail sink over
// HTTP. Dispatch is single-attempt and soft-failing; callers treat a
// returned *Error as advisory and never abort their primary outcome on it.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Request is the JSON document posted to the mail sink. Field names match
// the sink's contract exactly.
type Request struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Amount   string `json:"amount"`
	FoodType string `json:"foodType"`
	Quantity string `json:"quantity"`
	Message  string `json:"message"`
}

// Error is the non-fatal failure reported when a notification could not be
// delivered. It wraps the transport error, if any, and records the HTTP
// status for non-2xx responses.
type Error struct {
	Status int   // 0 when the request never completed
	Err    error // underlying transport error, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "notify: " + e.Err.Error()
	}
	return fmt.Sprintf("notify: sink returned status %d", e.Status)
}

func (e *Error) Unwrap() error { return e.Err }

var (
	// notifyAttempts counts delivery attempts by outcome ("ok" / "failed").
	notifyAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_attempts_total",
			Help: "Total notification delivery attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(notifyAttempts)
}

// Mailer dispatches notifications to a fixed sink endpoint. It is safe for
// concurrent use. The zero value is not usable; construct with NewMailer.
type Mailer struct {
	endpoint string
	client   *http.Client
}

// NewMailer returns a Mailer posting to endpoint with the given per-attempt
// timeout. A timeout <= 0 defaults to 5s so a slow sink can never stall a
// lifecycle transition indefinitely.
func NewMailer(endpoint string, timeout time.Duration) *Mailer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Mailer{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Send performs exactly one delivery attempt. Any failure (marshal,
// transport, non-2xx response) is logged and returned as a *Error; no retry
// is performed. A nil return means the sink acknowledged the notification.
//
// ctx bounds the attempt in addition to the client timeout; callers that
// must not inherit request cancellation should pass a detached context.
func (m *Mailer) Send(ctx context.Context, req Request) error {
	body, err := json.Marshal(req)
	if err != nil {
		return m.fail(req, &Error{Err: err})
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return m.fail(req, &Error{Err: err})
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return m.fail(req, &Error{Err: err})
	}
	defer func() {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return m.fail(req, &Error{Status: resp.StatusCode})
	}

	notifyAttempts.WithLabelValues("ok").Inc()
	log.Debug().
		Str("recipient", req.Email).
		Msg("notification delivered")
	return nil
}

// fail records the failed attempt in metrics and logs, then returns nerr.
func (m *Mailer) fail(req Request, nerr *Error) error {
	notifyAttempts.WithLabelValues("failed").Inc()
	log.Warn().
		Str("recipient", req.Email).
		Err(nerr).
		Msg("notification delivery failed")
	return nerr
}
