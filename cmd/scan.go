package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"payscan/internal/logger"
	"payscan/internal/ocr"
	"payscan/internal/payment"
	"payscan/internal/sink"
)

var scanCmd = &cobra.Command{
	Use:   "scan [image-file]",
	Short: "Extract payment details from a screenshot",
	Long: `Process a payment screenshot with Google Cloud OCR and extract the
payment fields from the recognized text.

The file must be an image (PNG, JPEG, WebP, ...). Non-image files are
rejected before any OCR call is made.

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string`,
	Example: `  # Extract payment details to stdout
  payscan scan payment.png

  # Output as JSON, including the raw recognized text
  payscan scan payment.png --json --raw

  # Use a different language hint and save to a file
  payscan scan payment.jpg --lang hi -o result.json --json

  # Deliver the result to a webhook as well
  payscan scan payment.png --webhook https://example.com/payments`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

// ScanOutput is the JSON structure produced by --json.
type ScanOutput struct {
	FileName    string         `json:"file_name"`
	PaymentInfo payment.Record `json:"paymentInfo"`
	Text        string         `json:"text,omitempty"`
	Confidence  float32        `json:"confidence,omitempty"`
	ProcessedAt time.Time      `json:"processed_at"`
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	scanCmd.Flags().Bool("json", false, "Output as JSON")
	scanCmd.Flags().Bool("raw", false, "Include the raw recognized text in the output")
	scanCmd.Flags().String("lang", "", "Language hint for OCR (default: OCR_LANGUAGE or en)")
	scanCmd.Flags().String("webhook", "", "Also deliver the record to this URL")
	scanCmd.Flags().Int("timeout", 120, "Processing timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("scan")

	outputPath, _ := cmd.Flags().GetString("output")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	includeRaw, _ := cmd.Flags().GetBool("raw")
	lang, _ := cmd.Flags().GetString("lang")
	webhookURL, _ := cmd.Flags().GetString("webhook")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	imagePath := args[0]
	if lang == "" {
		lang = languageHint()
	}
	if webhookURL == "" && cfg != nil {
		webhookURL = cfg.ResultWebhookURL
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return fmt.Errorf("failed to read image file: %w", err)
	}

	// Reject non-image input before touching the OCR service.
	if mime, ok := ocr.DetectImageMIME(data); !ok {
		log.Warn().Str("file", imagePath).Str("detected", mime).Msg("not an image file")
		return fmt.Errorf("please provide an image file (%s looks like %s)", imagePath, mime)
	}

	ctx, cancel := signalContext(time.Duration(timeoutSecs)*time.Second, log)
	defer cancel()

	recognizer, err := newRecognizer(ctx, log)
	if err != nil {
		return err
	}

	log.Info().
		Str("file", imagePath).
		Int("size", len(data)).
		Str("lang", lang).
		Msg("Starting OCR processing")

	// Stream progress to the log while recognition runs.
	progress := make(chan ocr.ProgressEvent, 8)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range progress {
			log.Info().Msgf("Processing: %d%% (%s)", int(ev.Fraction*100), ev.Stage)
		}
	}()

	result, err := recognizer.Recognize(ctx, bytes.NewReader(data),
		ocr.WithLanguageHints(lang),
		ocr.WithProgress(progress),
	)
	wg.Wait()
	if err != nil {
		return scanError(err)
	}

	rec := payment.Extract(result.Text)
	log.Info().
		Bool("empty", rec.Empty()).
		Float32("confidence", result.Confidence).
		Dur("duration", result.ProcessingDuration).
		Msg("Extraction completed")

	if webhookURL != "" {
		deliverResult(ctx, webhookURL, rec, log)
	}

	return writeScanOutput(rec, result, imagePath, outputPath, jsonOutput, includeRaw)
}

// deliverResult sends the record to the webhook. Failures are logged, not
// returned: delivery is fire-and-forget and must not fail the scan.
func deliverResult(ctx context.Context, url string, rec payment.Record, log zerolog.Logger) {
	s := sink.NewWebhookSink(url, nil)
	if err := s.Deliver(ctx, rec); err != nil {
		log.Warn().Err(err).Str("url", url).Msg("webhook delivery failed")
	}
}

// scanError maps recognizer failures to user-facing messages.
func scanError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("OCR processing timed out. Try increasing --timeout")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("OCR processing was canceled")
	case errors.Is(err, ocr.ErrImageTooLarge):
		return fmt.Errorf("image is too large (maximum 20MB)")
	case errors.Is(err, ocr.ErrInvalidImage):
		return fmt.Errorf("please provide a valid image file")
	case errors.Is(err, ocr.ErrNoTextFound):
		return fmt.Errorf("no readable text found in the image")
	case errors.Is(err, ocr.ErrMissingCredentials):
		return fmt.Errorf("Google Cloud credentials not configured. Set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS")
	default:
		return fmt.Errorf("error extracting text: %w", err)
	}
}

func writeScanOutput(rec payment.Record, result *ocr.Result, imagePath, outputPath string, jsonOutput, includeRaw bool) error {
	var outputData []byte

	if jsonOutput {
		out := ScanOutput{
			FileName:    imagePath,
			PaymentInfo: rec,
			Confidence:  result.Confidence,
			ProcessedAt: result.ProcessedAt,
		}
		if includeRaw {
			out.Text = result.Text
		}
		var err error
		outputData, err = json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to create JSON output: %w", err)
		}
		outputData = append(outputData, '\n')
	} else {
		text := payment.RenderText(rec)
		if includeRaw {
			text += "\n--- Recognized text ---\n" + result.Text + "\n"
		}
		outputData = []byte(text)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, outputData, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	}

	_, err := os.Stdout.Write(outputData)
	return err
}
