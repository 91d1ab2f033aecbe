package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hetulpatel/pdfcompliance/internal/compliance"
	"github.com/hetulpatel/pdfcompliance/internal/pdftext"
	"github.com/hetulpatel/pdfcompliance/internal/pdftext/pdftest"
)

type fakeChecker struct {
	report *compliance.Report
	err    error
	upload compliance.Upload
	rules  []string
	called int
}

func (f *fakeChecker) Check(_ context.Context, upload compliance.Upload, rules []string) (*compliance.Report, error) {
	f.called++
	f.upload = upload
	f.rules = rules
	return f.report, f.err
}

// recordingLLM answers every rule with a pass verdict, or with raw when the
// rule text is found in the prompt.
type recordingLLM struct {
	mu      sync.Mutex
	prompts []string
	raw     map[string]string
}

func (r *recordingLLM) CompleteJSON(_ context.Context, _, user string) (string, error) {
	r.mu.Lock()
	r.prompts = append(r.prompts, user)
	r.mu.Unlock()
	for key, reply := range r.raw {
		if strings.Contains(user, key) {
			return reply, nil
		}
	}
	return `{"status":"pass","evidence":"Found on Page 1: 'net 30'","reasoning":"Stated.","confidence":90}`, nil
}

type formFile struct {
	name string
	data []byte
}

func multipartRequest(t *testing.T, file *formFile, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if file != nil {
		fw, err := mw.CreateFormFile("pdf", file.name)
		require.NoError(t, err)
		_, err = fw.Write(file.data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func threeRules(r1, r2, r3 string) map[string]string {
	return map[string]string{"rule1": r1, "rule2": r2, "rule3": r3}
}

func newTestServer(t *testing.T, checker Checker) *Server {
	t.Helper()
	s, err := New(Config{Checker: checker, AllowedOrigins: []string{"http://localhost:5173"}})
	require.NoError(t, err)
	return s
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Detail
}

func TestNewRequiresChecker(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestHealthz(t *testing.T) {
	rec := serve(newTestServer(t, &fakeChecker{}), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAnalyzePassesUploadAndRules(t *testing.T) {
	checker := &fakeChecker{report: &compliance.Report{
		Result: []compliance.Verdict{{Rule: "A", Status: compliance.StatusPass, Evidence: "N/A", Reasoning: "ok", Confidence: 80}},
		Meta:   compliance.Meta{PagesCount: 2, Filename: "doc.pdf"},
	}}
	req := multipartRequest(t, &formFile{name: "doc.pdf", data: []byte("%PDF-1.4 body")}, threeRules("A", "", " C "))

	rec := serve(newTestServer(t, checker), req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"result":[{"rule":"A","status":"pass","evidence":"N/A","reasoning":"ok","confidence":80}],"meta":{"pagesCount":2,"filename":"doc.pdf"}}`, rec.Body.String())

	assert.Equal(t, "doc.pdf", checker.upload.Filename)
	assert.Equal(t, []byte("%PDF-1.4 body"), checker.upload.Data)
	assert.Equal(t, []string{"A", "", " C "}, checker.rules)
}

func TestAnalyzeMissingFields(t *testing.T) {
	s := newTestServer(t, &fakeChecker{})

	rec := serve(s, multipartRequest(t, nil, threeRules("a", "b", "c")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Field required: pdf", decodeDetail(t, rec))

	rec = serve(s, multipartRequest(t, &formFile{name: "a.pdf", data: []byte("x")}, map[string]string{"rule1": "a", "rule3": "c"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Field required: rule2", decodeDetail(t, rec))
}

func TestAnalyzeRejectsNonMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{"rule1":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(newTestServer(t, &fakeChecker{}), req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeUploadTooLarge(t *testing.T) {
	s, err := New(Config{Checker: &fakeChecker{}, MaxUploadBytes: 1024})
	require.NoError(t, err)
	req := multipartRequest(t, &formFile{name: "big.pdf", data: bytes.Repeat([]byte("x"), 4096)}, threeRules("a", "", ""))

	rec := serve(s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeMapsInputErrors(t *testing.T) {
	checker := &fakeChecker{err: &compliance.InputError{Kind: compliance.ErrNoText, Detail: "scanned pdf"}}
	rec := serve(newTestServer(t, checker), multipartRequest(t, &formFile{name: "a.pdf", data: []byte("x")}, threeRules("a", "", "")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "scanned pdf", decodeDetail(t, rec))
}

func TestAnalyzeUnexpectedErrorIs500(t *testing.T) {
	checker := &fakeChecker{err: assert.AnError}
	rec := serve(newTestServer(t, checker), multipartRequest(t, &formFile{name: "a.pdf", data: []byte("x")}, threeRules("a", "", "")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCORSAllowList(t *testing.T) {
	s := newTestServer(t, &fakeChecker{})

	req := httptest.NewRequest(http.MethodOptions, "/analyze", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "X-Custom-Header")
	rec := serve(s, req)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/analyze", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = serve(s, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func newRealServer(t *testing.T, llm *recordingLLM) *Server {
	t.Helper()
	analyzer, err := compliance.NewAnalyzer(compliance.AnalyzerConfig{LLM: llm})
	require.NoError(t, err)
	svc, err := compliance.NewService(compliance.Config{Extractor: pdftext.New(), Analyzer: analyzer})
	require.NoError(t, err)
	return newTestServer(t, svc)
}

func TestAnalyzeEndToEnd(t *testing.T) {
	llm := &recordingLLM{raw: map[string]string{"R-THREE": "not json at all"}}
	s := newRealServer(t, llm)
	pdf := pdftest.Build("Invoices are payable net 30.", "", "Both parties signed on page three.")

	rec := serve(s, multipartRequest(t, &formFile{name: "contract.pdf", data: pdf}, threeRules("R-ONE", "  ", "R-THREE")))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report compliance.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, compliance.Meta{PagesCount: 3, Filename: "contract.pdf"}, report.Meta)
	require.Len(t, report.Result, 2)
	assert.Equal(t, "R-ONE", report.Result[0].Rule)
	assert.Equal(t, compliance.StatusPass, report.Result[0].Status)
	assert.Equal(t, "R-THREE", report.Result[1].Rule)
	assert.Equal(t, compliance.StatusError, report.Result[1].Status)
	assert.Equal(t, "LLM response was not valid JSON.", report.Result[1].Evidence)

	require.Len(t, llm.prompts, 2)
	assert.Contains(t, llm.prompts[0], "--- PAGE 1 ---")
	assert.Contains(t, llm.prompts[0], "--- PAGE 3 ---")
	assert.NotContains(t, llm.prompts[0], "--- PAGE 2 ---")
}

func TestAnalyzeEndToEndClientErrors(t *testing.T) {
	cases := []struct {
		name   string
		file   formFile
		detail string
	}{
		{"wrong suffix", formFile{name: "contract.txt", data: pdftest.Build("text")}, "Uploaded file must be a PDF."},
		{"not a pdf", formFile{name: "fake.pdf", data: []byte("plain text pretending")}, "Invalid PDF file or unable to extract text."},
		{"no text", formFile{name: "scan.pdf", data: pdftest.Build("", "")}, "Could not extract any readable text from the PDF. It might be an image-only (scanned) PDF."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			llm := &recordingLLM{}
			file := tc.file
			rec := serve(newRealServer(t, llm), multipartRequest(t, &file, threeRules("R-ONE", "R-TWO", "R-THREE")))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.detail, decodeDetail(t, rec))
			assert.Empty(t, llm.prompts)
		})
	}
}
