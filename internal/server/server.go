// Package server exposes the extraction pipeline over HTTP.
//
// One endpoint does the work: POST /v1/extract accepts a multipart image
// upload, runs text recognition and field extraction, and returns the
// payment record as JSON. Non-image uploads are rejected before any
// recognition happens. Each request is handled independently; concurrent
// uploads do not share state.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"payscan/internal/logger"
	"payscan/internal/ocr"
	"payscan/internal/payment"
	"payscan/internal/sink"
)

// maxUploadBytes bounds the multipart form, matching the recognizer's
// 20MB image ceiling.
const maxUploadBytes = ocr.MaxImageSizeBytes

// rejectionMessage is the user-facing reply for non-image uploads.
const rejectionMessage = "Please upload an image file."

// Server wires the recognizer, extractor and result sink behind a router.
type Server struct {
	recognizer ocr.Recognizer
	sink       sink.Sink
	language   string
	log        zerolog.Logger
}

// ExtractResponse is the JSON reply for a successful extraction.
type ExtractResponse struct {
	ID          string         `json:"id"`
	PaymentInfo payment.Record `json:"paymentInfo"`
	Text        string         `json:"text"`
	Confidence  float32        `json:"confidence,omitempty"`
	ProcessedAt time.Time      `json:"processed_at"`
	DurationMS  int64          `json:"duration_ms"`
}

// errorResponse is the JSON reply for every failure.
type errorResponse struct {
	Error string `json:"error"`
}

// New creates a Server. A nil snk discards results.
func New(recognizer ocr.Recognizer, snk sink.Sink, language string) *Server {
	if snk == nil {
		snk = sink.Discard{}
	}
	return &Server{
		recognizer: recognizer,
		sink:       snk,
		language:   language,
		log:        logger.WithComponent("server"),
	}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/v1/extract", s.handleExtract)

	return r
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	log := logger.WithRequestID(id).With().Str("component", "server").Logger()
	start := time.Now()

	file, header, err := formImage(r)
	if err != nil {
		log.Warn().Err(err).Msg("no usable file in upload")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: rejectionMessage})
		return
	}
	defer file.Close()

	// Gate on the declared content type before any recognition work.
	declared := header.Header.Get("Content-Type")
	if !strings.HasPrefix(declared, "image/") {
		log.Warn().
			Str("content_type", declared).
			Str("file", header.Filename).
			Msg("rejected non-image upload")
		writeJSON(w, http.StatusUnsupportedMediaType, errorResponse{Error: rejectionMessage})
		return
	}

	log.Info().
		Str("file", header.Filename).
		Str("content_type", declared).
		Int64("size", header.Size).
		Msg("processing upload")

	var opts []ocr.Option
	if s.language != "" {
		opts = append(opts, ocr.WithLanguageHints(s.language))
	}

	result, err := s.recognizer.Recognize(r.Context(), file, opts...)
	if err != nil {
		log.Error().Err(err).Msg("recognition failed")
		writeJSON(w, recognitionStatus(err), errorResponse{Error: "Error extracting text: " + err.Error()})
		return
	}

	rec := payment.Extract(result.Text)
	log.Info().
		Bool("empty", rec.Empty()).
		Float32("confidence", result.Confidence).
		Dur("duration", time.Since(start)).
		Msg("extraction complete")

	s.deliver(rec, log)

	writeJSON(w, http.StatusOK, ExtractResponse{
		ID:          id,
		PaymentInfo: rec,
		Text:        result.Text,
		Confidence:  result.Confidence,
		ProcessedAt: result.ProcessedAt,
		DurationMS:  time.Since(start).Milliseconds(),
	})
}

// deliver hands the record to the sink without holding up the response.
// Fire-and-forget: a failed delivery is logged, never retried.
func (s *Server) deliver(rec payment.Record, log zerolog.Logger) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.sink.Deliver(ctx, rec); err != nil {
			log.Warn().Err(err).Msg("result delivery failed")
		}
	}()
}

// formImage pulls the uploaded file out of the multipart form. The "image"
// field is preferred; common alternatives are tried before giving up.
func formImage(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, nil, err
	}

	for _, field := range []string{"image", "file", "screenshot", "upload"} {
		if file, header, err := r.FormFile(field); err == nil {
			return file, header, nil
		}
	}

	// Fall back to the first file field present.
	if r.MultipartForm != nil {
		for field := range r.MultipartForm.File {
			if file, header, err := r.FormFile(field); err == nil {
				return file, header, nil
			}
		}
	}

	return nil, nil, http.ErrMissingFile
}

// recognitionStatus maps recognizer failures to response codes. Caller
// mistakes (bad payload) are 4xx; backend faults are 502.
func recognitionStatus(err error) int {
	switch {
	case errors.Is(err, ocr.ErrInvalidImage):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, ocr.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ocr.ErrNoTextFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
