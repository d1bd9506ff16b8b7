package handlers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"docuchat/internal/extract"
	"docuchat/internal/services"
)

// MaxUploadBytes caps the upload body at 16 MiB.
const MaxUploadBytes = 16 << 20

// UploadHandler accepts a multipart document upload, persists it under the
// upload directory, and runs the processing pipeline.
type UploadHandler struct {
	documents *services.DocumentService
	registry  *extract.Registry
	uploadDir string
}

func NewUploadHandler(documents *services.DocumentService, registry *extract.Registry, uploadDir string) *UploadHandler {
	return &UploadHandler{
		documents: documents,
		registry:  registry,
		uploadDir: uploadDir,
	}
}

func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "No file part"})
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if filename == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "No selected file"})
		return
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !h.registry.Supported(ext) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "File type not allowed"})
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		slog.Error("Failed to create upload directory", "dir", h.uploadDir, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Failed to save file"})
		return
	}

	// Unique prefix keeps repeated uploads of the same filename apart.
	path := filepath.Join(h.uploadDir, fmt.Sprintf("%s_%s", uuid.New().String(), filename))
	written, err := saveUpload(path, file)
	if err != nil {
		slog.Error("Failed to save upload", "path", path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Failed to save file"})
		return
	}
	slog.Info("File saved", "path", path, "size", written)

	if err := h.documents.Process(path); err != nil {
		slog.Error("Document processing failed", "path", path, "error", err)
		status := http.StatusInternalServerError
		if errors.Is(err, extract.ErrUnsupportedFormat) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]any{
			"error":    fmt.Sprintf("Error processing document: %v", err),
			"filename": filename,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"message":  "Document uploaded and processed successfully",
		"filename": filename,
	})
}

func saveUpload(path string, src io.Reader) (int64, error) {
	dst, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer dst.Close()
	return io.Copy(dst, src)
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// sanitizeFilename strips path components and characters that are unsafe in
// a stored filename.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" || name == "-" {
		return ""
	}
	return name
}
