package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/hetulpatel/pdfcompliance/internal/compliance"
	"github.com/hetulpatel/pdfcompliance/internal/config"
	"github.com/hetulpatel/pdfcompliance/internal/llm"
	"github.com/hetulpatel/pdfcompliance/internal/logging"
	"github.com/hetulpatel/pdfcompliance/internal/pdftext"
)

type ruleList []string

func (r *ruleList) String() string { return strings.Join(*r, "; ") }

func (r *ruleList) Set(v string) error {
	*r = append(*r, v)
	return nil
}

func main() {
	pdfPath := flag.String("pdf", "", "path to the PDF to check")
	var rules ruleList
	flag.Var(&rules, "rule", "rule to check (repeat up to 3 times)")
	flag.Parse()

	if *pdfPath == "" || len(rules) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("[check] config: %v", err)
	}
	logging.InitFromEnv()

	data, err := os.ReadFile(*pdfPath)
	if err != nil {
		logging.Fatalf("[check] read %s: %v", *pdfPath, err)
	}

	client, err := llm.New(llm.Config{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		Timeout:     cfg.LLMTimeout,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	})
	if err != nil {
		logging.Fatalf("[check] llm client: %v", err)
	}
	analyzer, err := compliance.NewAnalyzer(compliance.AnalyzerConfig{LLM: client, MaxDocChars: cfg.MaxDocChars})
	if err != nil {
		logging.Fatalf("[check] analyzer: %v", err)
	}
	svc, err := compliance.NewService(compliance.Config{
		Extractor:   pdftext.New(),
		Analyzer:    analyzer,
		Concurrency: cfg.Concurrency,
	})
	if err != nil {
		logging.Fatalf("[check] service: %v", err)
	}

	report, err := svc.Check(ctx, compliance.Upload{Filename: filepath.Base(*pdfPath), Data: data}, rules)
	if err != nil {
		var inErr *compliance.InputError
		if errors.As(err, &inErr) {
			fmt.Fprintln(os.Stderr, inErr.Detail)
			os.Exit(1)
		}
		logging.Fatalf("[check] %v", err)
	}

	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logging.Fatalf("[check] encode report: %v", err)
	}
	fmt.Println(string(b))
}
