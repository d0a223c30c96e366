// Package sink delivers extraction results to an embedding context.
//
// Delivery is fire-and-forget: one attempt, no acknowledgement, no retry.
// A failed delivery is logged and does not affect the extraction result.
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"payscan/internal/logger"
	"payscan/internal/payment"
)

// MessageType identifies a payment-info message to the receiving context.
const MessageType = "PAYMENT_INFO"

// Message is the envelope delivered to the embedding context.
type Message struct {
	Type        string         `json:"type"`
	PaymentInfo payment.Record `json:"paymentInfo"`
}

// Sink delivers a payment record to an external consumer.
type Sink interface {
	Deliver(ctx context.Context, rec payment.Record) error
}

// WebhookSink posts payment records as JSON to a fixed URL.
type WebhookSink struct {
	url    string
	client *http.Client
	log    zerolog.Logger
}

// NewWebhookSink creates a sink posting to url. A nil client uses a
// default with a 10 second timeout.
func NewWebhookSink(url string, client *http.Client) *WebhookSink {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookSink{
		url:    url,
		client: client,
		log:    logger.WithComponent("webhook-sink"),
	}
}

// Deliver posts the record wrapped in a Message envelope. Non-2xx replies
// are reported as errors; the caller decides whether to care.
func (s *WebhookSink) Deliver(ctx context.Context, rec payment.Record) error {
	body, err := json.Marshal(Message{Type: MessageType, PaymentInfo: rec})
	if err != nil {
		return fmt.Errorf("sink: marshal payment record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("sink: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sink: deliver to %s: %w", s.url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sink: deliver to %s: unexpected status %d", s.url, resp.StatusCode)
	}

	s.log.Debug().Str("url", s.url).Msg("payment record delivered")
	return nil
}

// Discard is a Sink that drops every record. Used when no webhook is
// configured.
type Discard struct{}

// Deliver implements Sink.
func (Discard) Deliver(context.Context, payment.Record) error { return nil }
