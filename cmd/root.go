package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"payscan/internal/config"
	"payscan/internal/logger"
	"payscan/internal/ocr"
)

var version = "1.0.0"

// cfg is the process configuration; nil when config loading failed and a
// command must rely on flags and environment directly.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "payscan",
	Short: "payscan - extract payment details from payment screenshots",
	Long: `payscan reads a payment-confirmation screenshot (UPI apps, bank
transfers), recognizes the text with Google Cloud OCR, and extracts the
payment fields: amount, transaction ID, UTR, order ID, date, time,
sender/receiver, UPI IDs and payment status.

Use "payscan scan" for one-off extraction from a file, or "payscan serve"
to run the HTTP upload endpoint.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("payscan - payment screenshot extraction")
		fmt.Println("Use --help to see available commands and options.")
	},
}

// Execute runs the CLI with the loaded configuration.
func Execute(c *config.Config) {
	cfg = c
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRecognizer builds the configured OCR backend.
func newRecognizer(ctx context.Context, log zerolog.Logger) (ocr.Recognizer, error) {
	if cfg != nil && cfg.OCRBackend == config.BackendDocumentAI {
		log.Debug().Str("backend", cfg.OCRBackend).Msg("creating Document AI recognizer")
		return ocr.NewDocumentAIRecognizer(ctx, cfg.DocumentAIConfig())
	}

	log.Debug().Str("backend", config.BackendVision).Msg("creating Vision recognizer")
	return ocr.NewGoogleVisionRecognizer(ctx)
}

// languageHint returns the configured OCR language, defaulting to English.
func languageHint() string {
	if cfg != nil && cfg.OCRLanguage != "" {
		return cfg.OCRLanguage
	}
	return "en"
}

// signalContext creates a context with the given timeout that is also
// canceled on SIGINT/SIGTERM.
func signalContext(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
