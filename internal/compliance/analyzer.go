package compliance

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hetulpatel/pdfcompliance/internal/logging"
)

const (
	evidenceInvalidJSON     = "LLM response was not valid JSON."
	evidenceProcessingError = "LLM processing failed."
)

// AnalyzerConfig controls the analyzer behavior.
type AnalyzerConfig struct {
	LLM          Completer
	MaxDocChars  int
	SystemPrompt string
}

// Analyzer checks single rules against document text via the LLM.
type Analyzer struct {
	llm          Completer
	maxDocChars  int
	systemPrompt string
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(cfg AnalyzerConfig) (*Analyzer, error) {
	if cfg.LLM == nil {
		return nil, fmt.Errorf("compliance: llm client is required")
	}
	maxChars := cfg.MaxDocChars
	if maxChars <= 0 {
		maxChars = DefaultMaxDocChars
	}
	system := cfg.SystemPrompt
	if strings.TrimSpace(system) == "" {
		system = systemPrompt
	}
	return &Analyzer{
		llm:          cfg.LLM,
		maxDocChars:  maxChars,
		systemPrompt: system,
	}, nil
}

// Analyze runs one rule through the LLM. Every failure is folded into an
// error verdict so one rule can never abort the others.
func (a *Analyzer) Analyze(ctx context.Context, documentText, rule string) (verdict Verdict) {
	rid := uuid.NewString()
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logging.Errorf("[analyzer] req=%s panic: %v", rid, r)
			verdict = processingFailed(rule, fmt.Errorf("panic: %v", r))
		}
	}()

	text := truncateText(documentText, a.maxDocChars)
	logging.Debugf("[analyzer] req=%s start text_chars=%d rule_len=%d", rid, len([]rune(text)), len(rule))

	raw, err := a.llm.CompleteJSON(ctx, a.systemPrompt, buildUserPrompt(text, rule))
	if err != nil {
		logging.Errorf("[analyzer] req=%s llm error after %s: %v", rid, time.Since(start).Round(time.Millisecond), err)
		return processingFailed(rule, err)
	}
	logging.Debugf("[analyzer] req=%s raw=%s", rid, raw)

	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		logging.Errorf("[analyzer] req=%s LLM did not return valid JSON: %s", rid, raw)
		return Verdict{
			Rule:       rule,
			Status:     StatusError,
			Evidence:   evidenceInvalidJSON,
			Reasoning:  fmt.Sprintf("JSON parsing error: %v", err),
			Confidence: 0,
		}
	}

	verdict, err = buildVerdict(rule, decoded)
	if err != nil {
		logging.Errorf("[analyzer] req=%s invalid verdict: %v", rid, err)
		return processingFailed(rule, err)
	}

	logging.Infof("[analyzer] req=%s status=%s confidence=%d elapsed=%s",
		rid, verdict.Status, verdict.Confidence, time.Since(start).Round(time.Millisecond))
	return verdict
}

func processingFailed(rule string, err error) Verdict {
	return Verdict{
		Rule:       rule,
		Status:     StatusError,
		Evidence:   evidenceProcessingError,
		Reasoning:  fmt.Sprintf("An internal error occurred: %v", err),
		Confidence: 0,
	}
}

// buildVerdict validates the decoded reply and normalizes status and confidence.
func buildVerdict(rule string, decoded any) (Verdict, error) {
	if err := validateReply(decoded); err != nil {
		return Verdict{}, err
	}
	fields := decoded.(map[string]any)

	confidence, err := parseConfidence(fields["confidence"])
	if err != nil {
		return Verdict{}, err
	}

	v := Verdict{
		Rule:       rule,
		Status:     Status(strings.ToLower(strings.TrimSpace(fields["status"].(string)))),
		Evidence:   fields["evidence"].(string),
		Reasoning:  fields["reasoning"].(string),
		Confidence: confidence,
	}
	switch v.Status {
	case StatusPass, StatusFail, StatusError:
	default:
		v.Reasoning = strings.TrimSpace(fmt.Sprintf("Model returned unrecognized status %q. %s", fields["status"], v.Reasoning))
		v.Status = StatusError
		v.Confidence = 0
	}
	return v, nil
}

// parseConfidence rounds to an integer and clamps to [0,100].
func parseConfidence(raw any) (int, error) {
	var f float64
	switch t := raw.(type) {
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(t), "%"), 64)
		if err != nil {
			return 0, fmt.Errorf("confidence %q is not a number", t)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("confidence has unexpected type %T", raw)
	}
	if math.IsNaN(f) {
		return 0, fmt.Errorf("confidence is NaN")
	}
	f = math.Round(f)
	switch {
	case f < 0:
		return 0, nil
	case f > 100:
		return 100, nil
	}
	return int(f), nil
}
