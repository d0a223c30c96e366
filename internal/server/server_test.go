package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payscan/internal/ocr"
	"payscan/internal/payment"
)

// stubRecognizer returns canned text and counts invocations.
type stubRecognizer struct {
	mu    sync.Mutex
	calls int
	text  string
	err   error
}

func (s *stubRecognizer) Recognize(ctx context.Context, image io.Reader, opts ...ocr.Option) (*ocr.Result, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if _, err := io.Copy(io.Discard, image); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return &ocr.Result{Text: s.text, Confidence: 0.9, ProcessedAt: time.Now()}, nil
}

func (s *stubRecognizer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// captureSink records delivered payment records.
type captureSink struct {
	mu   sync.Mutex
	recs []payment.Record
	done chan struct{}
}

func newCaptureSink() *captureSink {
	return &captureSink{done: make(chan struct{}, 4)}
}

func (c *captureSink) Deliver(ctx context.Context, rec payment.Record) error {
	c.mu.Lock()
	c.recs = append(c.recs, rec)
	c.mu.Unlock()
	c.done <- struct{}{}
	return nil
}

func multipartImage(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func TestExtractEndpoint(t *testing.T) {
	rec := &stubRecognizer{text: "UPI ID: alice@bank paid Rs. 250 to bob@bank Order ID: ORD123 Status: Successful"}
	snk := newCaptureSink()
	srv := httptest.NewServer(New(rec, snk, "en").Router())
	defer srv.Close()

	body, contentType := multipartImage(t, "image", "receipt.png", "image/png", []byte("\x89PNG\r\n\x1a\n"))
	resp, err := http.Post(srv.URL+"/v1/extract", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got ExtractResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "250", got.PaymentInfo.Amount)
	assert.Equal(t, "ORD123", got.PaymentInfo.OrderID)
	assert.Equal(t, payment.StatusSuccessful, got.PaymentInfo.PaymentStatus)
	assert.Equal(t, "alice@bank", got.PaymentInfo.SenderUPIID)
	assert.Equal(t, "bob@bank", got.PaymentInfo.ReceiverUPIID)
	assert.Equal(t, rec.text, got.Text)

	// The record is also delivered to the sink, fire-and-forget.
	select {
	case <-snk.done:
	case <-time.After(time.Second):
		t.Fatal("sink was not invoked")
	}
	snk.mu.Lock()
	defer snk.mu.Unlock()
	require.Len(t, snk.recs, 1)
	assert.Equal(t, got.PaymentInfo, snk.recs[0])
}

func TestExtractRejectsNonImageBeforeRecognition(t *testing.T) {
	rec := &stubRecognizer{text: "should never be used"}
	srv := httptest.NewServer(New(rec, nil, "").Router())
	defer srv.Close()

	body, contentType := multipartImage(t, "image", "statement.pdf", "application/pdf", []byte("%PDF-1.4"))
	resp, err := http.Post(srv.URL+"/v1/extract", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	var got map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "Please upload an image file.", got["error"])

	assert.Zero(t, rec.callCount(), "recognizer must not run for rejected input")
}

func TestExtractMissingFile(t *testing.T) {
	srv := httptest.NewServer(New(&stubRecognizer{}, nil, "").Router())
	defer srv.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "no file here"))
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/v1/extract", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExtractAlternateFieldName(t *testing.T) {
	rec := &stubRecognizer{text: "Rs. 99"}
	srv := httptest.NewServer(New(rec, nil, "").Router())
	defer srv.Close()

	body, contentType := multipartImage(t, "screenshot", "shot.jpg", "image/jpeg", []byte{0xff, 0xd8, 0xff}) // jpeg magic
	resp, err := http.Post(srv.URL+"/v1/extract", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got ExtractResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "99", got.PaymentInfo.Amount)
}

func TestExtractRecognizerFailure(t *testing.T) {
	rec := &stubRecognizer{err: ocr.WrapError("Recognize", ocr.ErrRecognitionFailed, "backend down")}
	srv := httptest.NewServer(New(rec, nil, "").Router())
	defer srv.Close()

	body, contentType := multipartImage(t, "image", "receipt.png", "image/png", []byte("\x89PNG\r\n\x1a\n"))
	resp, err := http.Post(srv.URL+"/v1/extract", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var got map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Contains(t, got["error"], "Error extracting text:")
}

func TestExtractNoTextFoundIsUnprocessable(t *testing.T) {
	rec := &stubRecognizer{err: ocr.WrapError("Recognize", ocr.ErrNoTextFound, "")}
	srv := httptest.NewServer(New(rec, nil, "").Router())
	defer srv.Close()

	body, contentType := multipartImage(t, "image", "blank.png", "image/png", []byte("\x89PNG\r\n\x1a\n"))
	resp, err := http.Post(srv.URL+"/v1/extract", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestExtractEmptyRecordIsSuccess(t *testing.T) {
	rec := &stubRecognizer{text: "nothing resembling a receipt"}
	srv := httptest.NewServer(New(rec, nil, "").Router())
	defer srv.Close()

	body, contentType := multipartImage(t, "image", "cat.png", "image/png", []byte("\x89PNG\r\n\x1a\n"))
	resp, err := http.Post(srv.URL+"/v1/extract", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got ExtractResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.True(t, got.PaymentInfo.Empty())
}

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(New(&stubRecognizer{}, nil, "").Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
