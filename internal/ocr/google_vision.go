package ocr

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// MaxImageSizeBytes is the maximum image size for synchronous processing (20MB)
const MaxImageSizeBytes = 20 * 1024 * 1024

// GoogleVisionRecognizer implements Recognizer using Google Cloud Vision
// document text detection.
type GoogleVisionRecognizer struct {
	client *vision.ImageAnnotatorClient
}

// NewGoogleVisionRecognizer creates a recognizer with credentials from the
// environment. It expects either GOOGLE_APPLICATION_CREDENTIALS path or
// GOOGLE_CREDENTIALS JSON in env, falling back to application default
// credentials.
func NewGoogleVisionRecognizer(ctx context.Context) (*GoogleVisionRecognizer, error) {
	const op = "NewGoogleVisionRecognizer"

	var client *vision.ImageAnnotatorClient
	var err error

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return nil, WrapError(op, err, "failed to create client with GOOGLE_CREDENTIALS")
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return nil, WrapError(op, err, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS")
		}
	} else {
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return nil, WrapError(op, ErrMissingCredentials, "no credentials found in environment")
		}
	}

	return &GoogleVisionRecognizer{client: client}, nil
}

// NewGoogleVisionRecognizerWithClient creates a recognizer with an explicit
// client (for testing).
func NewGoogleVisionRecognizerWithClient(client *vision.ImageAnnotatorClient) *GoogleVisionRecognizer {
	return &GoogleVisionRecognizer{client: client}
}

// Recognize extracts text from a single image using document text detection.
func (g *GoogleVisionRecognizer) Recognize(ctx context.Context, image io.Reader, opts ...Option) (*Result, error) {
	const op = "Recognize"
	o := applyOptions(opts)
	defer o.finish()
	startTime := time.Now()

	o.emit(StageLoading, 0)
	data, err := readImage(op, image)
	if err != nil {
		return nil, err
	}

	var ictx *visionpb.ImageContext
	if len(o.languageHints) > 0 {
		ictx = &visionpb.ImageContext{LanguageHints: o.languageHints}
	}
	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image:        &visionpb.Image{Content: data},
				Features:     []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
				ImageContext: ictx,
			},
		},
	}

	o.emit(StageRecognizing, 0.5)
	resp, err := g.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return nil, WrapError(op, ErrRecognitionFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.GetResponses()) == 0 {
		return nil, WrapError(op, ErrRecognitionFailed, "Vision API returned no responses")
	}
	if apiErr := resp.GetResponses()[0].GetError(); apiErr != nil {
		return nil, WrapError(op, ErrRecognitionFailed, fmt.Sprintf("Vision API call failed: %s", apiErr.GetMessage()))
	}
	annotation := resp.GetResponses()[0].GetFullTextAnnotation()
	if annotation == nil || strings.TrimSpace(annotation.Text) == "" {
		return nil, WrapError(op, ErrNoTextFound, "")
	}

	result := &Result{
		Text:        annotation.Text,
		ProcessedAt: time.Now(),
	}
	result.ProcessingDuration = result.ProcessedAt.Sub(startTime)

	var confidenceSum float32
	languageSet := make(map[string]bool)
	for _, page := range annotation.Pages {
		confidenceSum += page.Confidence
		if page.Property != nil {
			for _, lang := range page.Property.DetectedLanguages {
				if lang.LanguageCode != "" {
					languageSet[lang.LanguageCode] = true
				}
			}
		}
	}
	if len(annotation.Pages) > 0 {
		result.Confidence = confidenceSum / float32(len(annotation.Pages))
	}
	for lang := range languageSet {
		result.LanguageCodes = append(result.LanguageCodes, lang)
	}

	o.emit(StageDone, 1)
	return result, nil
}

// Close closes the underlying Vision client.
func (g *GoogleVisionRecognizer) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// readImage buffers and validates image bytes: size-limited and sniffed to
// confirm the payload is actually an image.
func readImage(op string, image io.Reader) ([]byte, error) {
	data, err := io.ReadAll(image)
	if err != nil {
		return nil, WrapError(op, err, "failed to read image data")
	}

	if len(data) > MaxImageSizeBytes {
		return nil, WrapError(op, ErrImageTooLarge, fmt.Sprintf("image size: %d bytes", len(data)))
	}

	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return nil, WrapError(op, ErrInvalidImage, "payload does not look like an image")
	}

	return data, nil
}

// DetectImageMIME sniffs the content type of the given bytes and reports
// whether it is image-typed. Used by callers that gate uploads before any
// recognition happens.
func DetectImageMIME(data []byte) (string, bool) {
	mime := http.DetectContentType(data)
	return mime, strings.HasPrefix(mime, "image/")
}
