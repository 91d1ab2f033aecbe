package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/hetulpatel/pdfcompliance/internal/compliance"
	"github.com/hetulpatel/pdfcompliance/internal/logging"
)

const fileField = "pdf"

var ruleFields = []string{"rule1", "rule2", "rule3"}

type errorBody struct {
	Detail string `json:"detail"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusBadRequest, "Uploaded file is too large.")
			return
		}
		writeDetail(w, http.StatusBadRequest, "Request must be multipart/form-data.")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(fileField)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Field required: pdf")
		return
	}
	defer file.Close()

	rules := make([]string, 0, len(ruleFields))
	for _, name := range ruleFields {
		values, ok := r.MultipartForm.Value[name]
		if !ok || len(values) == 0 {
			writeDetail(w, http.StatusBadRequest, "Field required: "+name)
			return
		}
		rules = append(rules, values[0])
	}

	data, err := io.ReadAll(file)
	if err != nil {
		logging.Errorf("[api] read upload %q: %v", header.Filename, err)
		writeDetail(w, http.StatusBadRequest, "Could not read uploaded file.")
		return
	}

	report, err := s.checker.Check(r.Context(), compliance.Upload{Filename: header.Filename, Data: data}, rules)
	if err != nil {
		var inErr *compliance.InputError
		if errors.As(err, &inErr) {
			writeDetail(w, http.StatusBadRequest, inErr.Detail)
			return
		}
		logging.Errorf("[api] check %q: %v", header.Filename, err)
		writeDetail(w, http.StatusInternalServerError, "Internal server error.")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Errorf("[api] encode response: %v", err)
	}
}
