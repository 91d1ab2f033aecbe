package compliance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hetulpatel/pdfcompliance/internal/hashutil"
	"github.com/hetulpatel/pdfcompliance/internal/logging"
	"github.com/hetulpatel/pdfcompliance/internal/pdftext"
	"github.com/hetulpatel/pdfcompliance/internal/workers"
)

// MaxRules is the number of rules accepted per upload.
const MaxRules = 3

// Client input failures. Each *InputError matches exactly one of these.
var (
	ErrNotPDF       = errors.New("compliance: uploaded file is not a pdf")
	ErrInvalidPDF   = errors.New("compliance: invalid pdf")
	ErrNoText       = errors.New("compliance: no extractable text")
	ErrTooManyRules = errors.New("compliance: too many rules")
)

// InputError is a request the caller must fix. Detail is safe to show to users.
type InputError struct {
	Kind   error
	Detail string
	Cause  error
}

func (e *InputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v: %v", e.Kind, e.Cause)
	}
	return e.Kind.Error()
}

func (e *InputError) Unwrap() error { return e.Cause }

func (e *InputError) Is(target error) bool { return target == e.Kind }

// Config wires the service.
type Config struct {
	Extractor TextExtractor
	Analyzer  RuleAnalyzer
	// Concurrency caps in-flight rule analyses per upload; 1 is sequential.
	Concurrency int
}

// Service runs the full check: validate, extract, analyze each rule.
type Service struct {
	extractor   TextExtractor
	analyzer    RuleAnalyzer
	concurrency int
}

// NewService creates a compliance service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Extractor == nil {
		return nil, fmt.Errorf("compliance: extractor is required")
	}
	if cfg.Analyzer == nil {
		return nil, fmt.Errorf("compliance: analyzer is required")
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Service{
		extractor:   cfg.Extractor,
		analyzer:    cfg.Analyzer,
		concurrency: concurrency,
	}, nil
}

// Check validates the upload and analyzes every non-blank rule in order.
// Only *InputError is returned; per-rule failures become error verdicts.
func (s *Service) Check(ctx context.Context, upload Upload, rules []string) (*Report, error) {
	if s == nil {
		return nil, fmt.Errorf("compliance: service is nil")
	}
	if !strings.HasSuffix(upload.Filename, ".pdf") {
		return nil, &InputError{Kind: ErrNotPDF, Detail: "Uploaded file must be a PDF."}
	}
	if len(rules) > MaxRules {
		return nil, &InputError{Kind: ErrTooManyRules, Detail: fmt.Sprintf("At most %d rules can be checked per document.", MaxRules)}
	}

	start := time.Now()
	doc, err := s.extractor.Extract(upload.Data)
	if err != nil {
		logging.Errorf("[compliance] file=%q error reading PDF: %v", upload.Filename, err)
		return nil, &InputError{Kind: ErrInvalidPDF, Detail: "Invalid PDF file or unable to extract text.", Cause: err}
	}
	if strings.TrimSpace(doc.Text) == "" {
		return nil, &InputError{
			Kind:   ErrNoText,
			Detail: "Could not extract any readable text from the PDF. It might be an image-only (scanned) PDF.",
		}
	}

	active := activeRules(rules)
	logging.Infof("[compliance] file=%q sha=%s pages=%d text_pages=%d chars=%d rules=%d rules_sha=%s",
		upload.Filename, hashutil.Short(hashutil.HashBytes(upload.Data)), doc.PageCount, doc.TextPages, len(doc.Text),
		len(active), hashutil.Short(hashutil.HashStrings(active...)))

	verdicts := workers.RunOrdered(ctx, len(active), s.concurrency, func(ctx context.Context, i int) Verdict {
		return s.analyzer.Analyze(ctx, doc.Text, active[i])
	})

	logging.Infof("[compliance] file=%q done verdicts=%d elapsed=%s", upload.Filename, len(verdicts), time.Since(start).Round(time.Millisecond))
	return &Report{
		Result: verdicts,
		Meta: Meta{
			PagesCount: doc.PageCount,
			Filename:   upload.Filename,
		},
	}, nil
}

// activeRules drops blank rules; kept rules are passed on untrimmed.
func activeRules(rules []string) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		if strings.TrimSpace(r) != "" {
			out = append(out, r)
		}
	}
	return out
}

var _ TextExtractor = (*pdftext.Extractor)(nil)
var _ RuleAnalyzer = (*Analyzer)(nil)
