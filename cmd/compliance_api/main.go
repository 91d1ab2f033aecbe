package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hetulpatel/pdfcompliance/internal/compliance"
	"github.com/hetulpatel/pdfcompliance/internal/config"
	"github.com/hetulpatel/pdfcompliance/internal/llm"
	"github.com/hetulpatel/pdfcompliance/internal/logging"
	"github.com/hetulpatel/pdfcompliance/internal/pdftext"
	"github.com/hetulpatel/pdfcompliance/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("[api] config: %v", err)
	}
	logging.InitFromEnv()

	client, err := llm.New(llm.Config{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Timeout:     cfg.LLMTimeout,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		logging.Fatalf("[api] llm client: %v", err)
	}

	analyzer, err := compliance.NewAnalyzer(compliance.AnalyzerConfig{
		LLM:         client,
		MaxDocChars: cfg.MaxDocChars,
	})
	if err != nil {
		logging.Fatalf("[api] analyzer: %v", err)
	}
	svc, err := compliance.NewService(compliance.Config{
		Extractor:   pdftext.New(),
		Analyzer:    analyzer,
		Concurrency: cfg.Concurrency,
	})
	if err != nil {
		logging.Fatalf("[api] service: %v", err)
	}

	srv, err := server.New(server.Config{
		Checker:        svc,
		AllowedOrigins: cfg.AllowedOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	if err != nil {
		logging.Fatalf("[api] server: %v", err)
	}

	logging.Infof("[api] model=%s concurrency=%d origins=%v", client.Model(), cfg.Concurrency, cfg.AllowedOrigins)
	if err := srv.ListenAndServe(ctx, cfg.Addr); err != nil {
		logging.Fatalf("[api] %v", err)
	}
}
