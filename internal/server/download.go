package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const csvContentType = "text/csv; charset=utf-8"

// errorResponse is the JSON body for client-visible errors.
type errorResponse struct {
	Description string `json:"description"`
}

func writeJSONError(w http.ResponseWriter, status int, description string) {
	writeJSON(w, status, errorResponse{Description: description})
}

// csvHandler serves GET /csv/{filename}. The filename is only ever used as a
// catalog key; the catalog decides which file is opened.
func (s *Server) csvHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.PathValue("filename")
		rid := RequestIDFromContext(r.Context())

		path, err := s.catalog.Resolve(key)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				s.metrics.RecordNotFound()
				Debug("csv_not_found", map[string]any{"request_id": rid, "filename": key})
				writeJSONError(w, http.StatusNotFound, "File not found")
				return
			}
			s.fail(w, key, rid, err)
			return
		}

		f, err := os.Open(path)
		if err != nil {
			s.fail(w, key, rid, fmt.Errorf("open %s: %w", path, err))
			return
		}
		defer func() { _ = f.Close() }()

		info, err := f.Stat()
		if err != nil {
			s.fail(w, key, rid, fmt.Errorf("stat %s: %w", path, err))
			return
		}
		if !info.Mode().IsRegular() {
			s.fail(w, key, rid, fmt.Errorf("%s is not a regular file", path))
			return
		}

		h := w.Header()
		h.Set("Content-Type", contentTypeFor(key))
		h.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
		h.Set("Content-Disposition", attachmentDisposition(key))
		h.Set("Last-Modified", info.ModTime().UTC().Format(http.TimeFormat))
		h.Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)

		n, err := io.Copy(w, f)
		if err != nil {
			// Headers are gone; the client sees a truncated body.
			s.metrics.RecordDownloadError(key)
			Error("csv_stream_failed", map[string]any{
				"request_id": rid,
				"filename":   key,
				"bytes":      n,
			}, err)
			return
		}

		s.metrics.RecordDownload(key, n)
		Debug("csv_served", map[string]any{"request_id": rid, "filename": key, "bytes": n})
	})
}

// fail answers 500 for an allow-listed key whose file cannot be served.
func (s *Server) fail(w http.ResponseWriter, key, rid string, err error) {
	s.metrics.RecordDownloadError(key)
	Error("csv_read_failed", map[string]any{"request_id": rid, "filename": key}, err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// attachmentDisposition builds a Content-Disposition header suggesting name.
func attachmentDisposition(name string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "attachment"
}

func contentTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".csv" {
		return csvContentType
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
