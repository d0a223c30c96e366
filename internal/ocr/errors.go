package ocr

import (
	"errors"
	"fmt"
)

// Common recognition errors
var (
	// ErrImageTooLarge is returned when the image exceeds the maximum file
	// size limit for synchronous processing.
	ErrImageTooLarge = errors.New("image size exceeds the maximum limit (20MB)")

	// ErrInvalidImage is returned when the provided data is not a
	// supported image format.
	ErrInvalidImage = errors.New("invalid or unsupported image data")

	// ErrRecognitionFailed is returned when the recognition backend fails
	// to process the image.
	ErrRecognitionFailed = errors.New("text recognition failed")

	// ErrNoTextFound is returned when the image contains no recognizable
	// text. Recognition never resolves with a silent empty string.
	ErrNoTextFound = errors.New("no recognizable text found in the image")

	// ErrMissingCredentials is returned when neither
	// GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is configured.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS environment variable")

	// ErrInvalidConfiguration is returned when backend configuration is
	// incomplete (e.g. no Document AI processor ID).
	ErrInvalidConfiguration = errors.New("invalid recognizer configuration")
)

// RecognitionError wraps errors with additional context about the failure.
type RecognitionError struct {
	// Op is the operation that failed (e.g. "Recognize").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *RecognitionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *RecognitionError) Unwrap() error {
	return e.Err
}

// Is implements error matching for errors.Is.
func (e *RecognitionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapError wraps an error as a RecognitionError if it isn't already one.
func WrapError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var recErr *RecognitionError
	if errors.As(err, &recErr) {
		return err
	}

	return &RecognitionError{Op: op, Err: err, Details: details}
}
