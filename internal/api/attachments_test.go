package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/starford/ansuz/internal/storage"
)

func attachmentRouter(t *testing.T) http.Handler {
	t.Helper()
	fs, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	h := NewAttachmentHandler(fs)

	r := chi.NewRouter()
	r.Post("/attachments", h.Upload)
	r.Get("/attachments/{filename}", h.ServeFile)
	return r
}

func multipartUpload(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestUploadAndServe(t *testing.T) {
	h := attachmentRouter(t)

	body, contentType := multipartUpload(t, "file", "report.pdf", "pdf-bytes")
	req := httptest.NewRequest(http.MethodPost, "/attachments", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body)
	}
	var resp map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["filename"] != "report.pdf" || resp["url"] != "/attachments/report.pdf" {
		t.Errorf("resp = %v", resp)
	}
	if resp["size"] != float64(len("pdf-bytes")) {
		t.Errorf("size = %v", resp["size"])
	}

	req = httptest.NewRequest(http.MethodGet, "/attachments/report.pdf", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "pdf-bytes" {
		t.Errorf("serve status = %d, body %q", rec.Code, rec.Body)
	}
}

func TestUploadMissingFileField(t *testing.T) {
	h := attachmentRouter(t)

	body, contentType := multipartUpload(t, "wrong", "x.txt", "x")
	req := httptest.NewRequest(http.MethodPost, "/attachments", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestServeMissingFile(t *testing.T) {
	h := attachmentRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/attachments/ghost.pdf", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
