// Package ocr wraps external text-recognition services behind a single
// Recognizer interface.
//
// Two backends are provided: Google Cloud Vision document text detection
// (the default) and a Google Document AI OCR processor. Both accept a
// single image and return the recognized plain text with metadata. The
// recognized text is best-effort; callers must expect noise and partial
// words and must not treat garbled text as a failure. An image in which no
// text can be found at all is an explicit error (ErrNoTextFound), never a
// silent empty string.
//
// Required Environment Variables:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//
// The Document AI backend additionally needs GOOGLE_CLOUD_PROJECT,
// GOOGLE_CLOUD_LOCATION and DOCUMENT_AI_PROCESSOR_ID (an OCR processor).
package ocr

import (
	"context"
	"io"
	"time"
)

// Recognizer defines the interface for text recognition over an image.
type Recognizer interface {
	// Recognize extracts text from a single image. One attempt per call,
	// no retries; each call is independent and stateless, so concurrent
	// calls are safe. Cancellation and deadlines come from ctx.
	Recognize(ctx context.Context, image io.Reader, opts ...Option) (*Result, error)
}

// Result contains the recognized text and processing metadata.
type Result struct {
	// Text is the full recognized text in reading order. May contain
	// noise, partial words and line breaks.
	Text string `json:"text"`

	// Confidence is the average confidence of the detection (0.0 to 1.0),
	// or zero if the backend reports none.
	Confidence float32 `json:"confidence,omitempty"`

	// LanguageCodes contains the languages detected in the image.
	LanguageCodes []string `json:"language_codes,omitempty"`

	// ProcessedAt is when recognition completed.
	ProcessedAt time.Time `json:"processed_at"`

	// ProcessingDuration is how long the recognition took.
	ProcessingDuration time.Duration `json:"processing_duration"`
}

// ProgressEvent reports recognition progress as a stage name and a
// completed fraction in [0, 1].
type ProgressEvent struct {
	Stage    string  `json:"stage"`
	Fraction float64 `json:"fraction"`
}

// Recognition stages reported through the progress channel.
const (
	StageLoading     = "loading image"
	StageRecognizing = "recognizing text"
	StageDone        = "done"
)

// Option configures a single Recognize call.
type Option func(*callOptions)

type callOptions struct {
	languageHints []string
	progress      chan<- ProgressEvent
}

// WithLanguageHints passes language hints (e.g. "en") to the backend.
// Hints bias recognition; they do not restrict it.
func WithLanguageHints(langs ...string) Option {
	return func(o *callOptions) {
		o.languageHints = append(o.languageHints, langs...)
	}
}

// WithProgress attaches a progress channel to the call. The recognizer
// sends zero or more events and closes the channel when the call resolves,
// successfully or not. Sends never block: if the receiver lags, events are
// dropped rather than stalling recognition.
func WithProgress(events chan<- ProgressEvent) Option {
	return func(o *callOptions) {
		o.progress = events
	}
}

func applyOptions(opts []Option) callOptions {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// emit sends a progress event without blocking.
func (o *callOptions) emit(stage string, fraction float64) {
	if o.progress == nil {
		return
	}
	select {
	case o.progress <- ProgressEvent{Stage: stage, Fraction: fraction}:
	default:
	}
}

// finish closes the progress channel, terminating the event stream.
func (o *callOptions) finish() {
	if o.progress != nil {
		close(o.progress)
	}
}
