// Package pdftext turns uploaded PDF bytes into page-annotated plain text.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/hetulpatel/pdfcompliance/internal/logging"
)

// ErrParse is matched by every *ParseError.
var ErrParse = errors.New("pdftext: unable to parse pdf")

// ParseError reports a buffer that is not a usable PDF.
type ParseError struct {
	Reason string
	Cause  error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("pdftext: %s: %v", e.Reason, e.Cause)
	}
	return "pdftext: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Cause }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// Document is the extraction output.
type Document struct {
	// Text holds one "\n--- PAGE n ---\n<text>" segment per page with text.
	Text string
	// PageCount is the total page count, including pages without text.
	PageCount int
	// TextPages counts the pages that contributed a segment.
	TextPages int
}

// PageCounter reports how many pages a PDF has.
type PageCounter interface {
	CountPages(data []byte) (int, error)
}

// TextOpener opens a PDF for per-page text extraction.
type TextOpener interface {
	Open(data []byte) (Pages, error)
}

// Pages gives 1-indexed access to page text.
type Pages interface {
	NumPage() int
	Text(pageNr int) (string, error)
}

// Extractor validates PDFs with pdfcpu and reads page text with ledongthuc/pdf.
type Extractor struct {
	counter PageCounter
	opener  TextOpener
}

// New returns an extractor backed by the real PDF libraries.
func New() *Extractor {
	return NewWith(PdfcpuCounter{}, PlainTextOpener{})
}

// NewWith wires custom collaborators.
func NewWith(counter PageCounter, opener TextOpener) *Extractor {
	return &Extractor{counter: counter, opener: opener}
}

// PageMarker returns the marker that prefixes page n's text.
func PageMarker(n int) string {
	return fmt.Sprintf("\n--- PAGE %d ---\n", n)
}

// Extract converts raw PDF bytes into page-annotated text.
func (e *Extractor) Extract(data []byte) (doc Document, err error) {
	if e == nil || e.counter == nil || e.opener == nil {
		return Document{}, fmt.Errorf("pdftext: extractor not configured")
	}
	defer func() {
		if r := recover(); r != nil {
			doc = Document{}
			err = &ParseError{Reason: "pdf library panic", Cause: fmt.Errorf("%v", r)}
		}
	}()

	if len(data) == 0 {
		return Document{}, &ParseError{Reason: "empty upload"}
	}

	pageCount, err := e.counter.CountPages(data)
	if err != nil {
		return Document{}, &ParseError{Reason: "invalid pdf", Cause: err}
	}
	if pageCount <= 0 {
		return Document{}, &ParseError{Reason: "pdf has no pages"}
	}

	pages, err := e.opener.Open(data)
	if err != nil {
		return Document{}, &ParseError{Reason: "unable to open pdf for text extraction", Cause: err}
	}

	last := pages.NumPage()
	if last > pageCount {
		last = pageCount
	}

	var b strings.Builder
	textPages := 0
	for pageNr := 1; pageNr <= last; pageNr++ {
		text := pageText(pages, pageNr)
		if strings.TrimSpace(text) == "" {
			continue
		}
		b.WriteString(PageMarker(pageNr))
		b.WriteString(text)
		textPages++
	}

	return Document{Text: b.String(), PageCount: pageCount, TextPages: textPages}, nil
}

// pageText isolates per-page failures so one bad page never fails the document.
func pageText(pages Pages, pageNr int) (text string) {
	defer func() {
		if r := recover(); r != nil {
			logging.Debugf("[pdftext] page=%d panic: %v", pageNr, r)
			text = ""
		}
	}()
	text, err := pages.Text(pageNr)
	if err != nil {
		logging.Debugf("[pdftext] page=%d text error: %v", pageNr, err)
		return ""
	}
	return text
}

var disableConfigDir sync.Once

// PdfcpuCounter validates the document structure and counts pages.
type PdfcpuCounter struct{}

func (PdfcpuCounter) CountPages(data []byte) (int, error) {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.PageCount(bytes.NewReader(data), conf)
}

// PlainTextOpener reads page text with github.com/ledongthuc/pdf.
type PlainTextOpener struct{}

func (PlainTextOpener) Open(data []byte) (Pages, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return plainTextPages{r: r}, nil
}

type plainTextPages struct {
	r *pdf.Reader
}

func (p plainTextPages) NumPage() int {
	return p.r.NumPage()
}

func (p plainTextPages) Text(pageNr int) (string, error) {
	page := p.r.Page(pageNr)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
