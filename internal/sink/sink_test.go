package sink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payscan/internal/payment"
)

func TestWebhookSinkDeliversEnvelope(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rec := payment.Record{
		Amount:        "250",
		SenderUPIID:   "alice@bank",
		PaymentStatus: payment.StatusSuccessful,
	}

	s := NewWebhookSink(srv.URL, srv.Client())
	require.NoError(t, s.Deliver(context.Background(), rec))

	assert.Equal(t, MessageType, got.Type)
	assert.Equal(t, rec, got.PaymentInfo)
}

func TestWebhookSinkOmitsAbsentFields(t *testing.T) {
	var raw map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
	}))
	defer srv.Close()

	s := NewWebhookSink(srv.URL, srv.Client())
	require.NoError(t, s.Deliver(context.Background(), payment.Record{Amount: "500"}))

	var info map[string]any
	require.NoError(t, json.Unmarshal(raw["paymentInfo"], &info))
	assert.Equal(t, map[string]any{"amount": "500"}, info)
}

func TestWebhookSinkReportsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewWebhookSink(srv.URL, srv.Client())
	err := s.Deliver(context.Background(), payment.Record{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestDiscardSink(t *testing.T) {
	assert.NoError(t, Discard{}.Deliver(context.Background(), payment.Record{Amount: "1"}))
}
