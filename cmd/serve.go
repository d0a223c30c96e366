package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"payscan/internal/logger"
	"payscan/internal/server"
	"payscan/internal/sink"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP extraction endpoint",
	Long: `Start an HTTP server accepting payment screenshot uploads.

POST /v1/extract takes a multipart form with an "image" file field and
returns the extracted payment record as JSON. Uploads whose content type
is not image/* are rejected without invoking OCR. When RESULT_WEBHOOK_URL
is configured, every extracted record is also posted there.`,
	Example: `  # Listen on the configured HTTP_ADDR (default :8080)
  payscan serve

  # Listen on a specific address
  payscan serve --addr 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default: HTTP_ADDR or :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = ":8080"
		if cfg != nil && cfg.HTTPAddr != "" {
			addr = cfg.HTTPAddr
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	recognizer, err := newRecognizer(ctx, log)
	if err != nil {
		return err
	}

	var resultSink sink.Sink = sink.Discard{}
	if cfg != nil && cfg.ResultWebhookURL != "" {
		log.Info().Str("url", cfg.ResultWebhookURL).Msg("result webhook enabled")
		resultSink = sink.NewWebhookSink(cfg.ResultWebhookURL, nil)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(recognizer, resultSink, languageHint()).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}

	return nil
}
