package services

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"docuchat/internal/chunker"
	"docuchat/internal/extract"
	"docuchat/internal/metrics"
	"docuchat/internal/store"
)

// DocumentService runs the upload pipeline: extract, chunk, replace the
// session store's contents.
type DocumentService struct {
	store      *store.Store
	extractors *extract.Registry
	chunker    *chunker.Chunker
}

func NewDocumentService(st *store.Store, registry *extract.Registry) *DocumentService {
	return &DocumentService{
		store:      st,
		extractors: registry,
		chunker:    chunker.New(chunker.DefaultChunkSize, chunker.DefaultOverlap),
	}
}

// Process extracts the file at path and replaces the store's contents with
// its whole text plus per-chunk entries. The store is only cleared after a
// successful extraction, so a failed upload never destroys the previously
// stored document.
func (d *DocumentService) Process(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	slog.Info("Processing document", "path", path, "type", ext)

	result, err := d.extractors.Extract(path)
	if err != nil {
		metrics.DocumentsProcessed.WithLabelValues(ext, "error").Inc()
		return fmt.Errorf("process document: %w", err)
	}

	chunks := d.chunker.Split(result.Text)
	docID := filepath.Base(path)

	d.store.Clear()
	if result.Text != "" {
		d.store.Put(docID, result.Text, map[string]any{
			"source": path,
			"type":   ext,
		})
	}
	for _, chunk := range chunks {
		d.store.Put(fmt.Sprintf("%s_chunk_%d", docID, chunk.Index), chunk.Content, map[string]any{
			"source":       path,
			"chunk_id":     chunk.Index,
			"total_chunks": len(chunks),
			"parent_doc":   docID,
		})
	}
	if result.Sheets != nil {
		d.store.SetSheets(result.Sheets)
	}

	metrics.DocumentsProcessed.WithLabelValues(ext, "success").Inc()
	metrics.StoredDocuments.Set(float64(d.store.Len()))

	slog.Info("Document stored",
		"id", docID,
		"text_length", len(result.Text),
		"chunks", len(chunks),
		"store_size", d.store.Len())
	return nil
}
