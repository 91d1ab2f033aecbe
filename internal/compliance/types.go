package compliance

import (
	"context"

	"github.com/hetulpatel/pdfcompliance/internal/pdftext"
)

// Status is the outcome of checking one rule.
type Status string

const (
	StatusPass  Status = "pass"
	StatusFail  Status = "fail"
	StatusError Status = "error"
)

// Verdict is the structured result for one rule.
type Verdict struct {
	Rule       string `json:"rule"`
	Status     Status `json:"status"`
	Evidence   string `json:"evidence"`
	Reasoning  string `json:"reasoning"`
	Confidence int    `json:"confidence"`
}

// Meta describes the analyzed upload.
type Meta struct {
	PagesCount int    `json:"pagesCount"`
	Filename   string `json:"filename"`
}

// Report is the consolidated response for one upload.
type Report struct {
	Result []Verdict `json:"result"`
	Meta   Meta      `json:"meta"`
}

// Upload is a received document. It is never persisted.
type Upload struct {
	Filename string
	Data     []byte
}

// Completer sends one system+user prompt pair and returns the model content,
// asking the provider for a JSON object reply.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// TextExtractor turns PDF bytes into page-annotated text.
type TextExtractor interface {
	Extract(data []byte) (pdftext.Document, error)
}

// RuleAnalyzer checks one rule against document text. It never fails;
// problems are reported as an error verdict.
type RuleAnalyzer interface {
	Analyze(ctx context.Context, documentText, rule string) Verdict
}
