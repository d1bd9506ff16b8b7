package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"

	"docuchat/internal/extract"
	"docuchat/internal/metrics"
	"docuchat/internal/spreadsheet"
	"docuchat/internal/store"
)

// Character budgets used as token-budget proxies: the completion API bills
// by token, and capping raw character counts keeps prompts inside the
// model's context window without a tokenizer dependency.
const (
	// maxContextChars bounds the document text concatenated into a prompt.
	maxContextChars = 15000
	// maxSheetJSONChars bounds the structured-record serialization; past it
	// the records degrade to a per-sheet summary.
	maxSheetJSONChars = 12000
)

const (
	// defaultTopK is how many documents the (positional) relevance retrieval
	// returns. Retrieval is store-order only; see the package design notes.
	defaultTopK = 5
	// allDocsLimit caps the fall-back "all documents" retrieval.
	allDocsLimit = 10
	// historyWindow is how many history messages (5 exchanges) each request
	// carries.
	historyWindow = 10
	// historyLimit is how many messages (10 exchanges) are retained.
	historyLimit = 20
	// sheetSampleRecords is how many records per sheet survive in the
	// summarized serialization.
	sheetSampleRecords = 5
)

const (
	noInformationMessage    = "I don't have any information about that. Please upload documents first."
	extractionFailedMessage = "I couldn't extract content from the uploaded file. Please try uploading again or use a different file format."
	emptyCompletionMessage  = "I couldn't generate a response. Please try again."
)

// Markers the spreadsheet analyzer writes into its report. Their presence in
// the assembled context means the active document is spreadsheet-derived.
const (
	excelSummaryMarker = "EXCEL FILE SUMMARY"
	excelSheetMarker   = "SHEET:"
)

var errNoUploads = errors.New("no uploaded files found")

// Completer is the slice of the OpenAI client the chat service needs.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ChatService answers questions about the stored documents by assembling a
// context string, choosing a prompt template, and calling the completion
// API. It also owns the bounded conversation history.
type ChatService struct {
	client     Completer
	model      string
	store      *store.Store
	extractors *extract.Registry
	uploadDir  string

	mu      sync.Mutex
	history []openai.ChatCompletionMessage
}

func NewChatService(client Completer, model string, st *store.Store, registry *extract.Registry, uploadDir string) *ChatService {
	return &ChatService{
		client:     client,
		model:      model,
		store:      st,
		extractors: registry,
		uploadDir:  uploadDir,
	}
}

// Answer resolves a chat query against the stored documents. It always
// returns an answer-shaped string: collaborator failures and an empty store
// degrade to friendly messages rather than errors.
func (c *ChatService) Answer(ctx context.Context, query string) string {
	started := time.Now()
	defer func() {
		metrics.QueryDuration.Observe(time.Since(started).Seconds())
	}()

	slog.Info("Chat query started", "query", query)

	docs, earlyReply := c.relevantDocuments()
	if earlyReply != "" {
		metrics.QueriesProcessed.WithLabelValues("no_documents").Inc()
		return earlyReply
	}

	contextText := joinWithinBudget(docs)
	metrics.ContextSize.Observe(float64(len(contextText)))
	slog.Info("Context assembled", "length", len(contextText), "documents", len(docs))

	systemPrompt, userPrompt := c.buildPrompt(query, contextText)

	messages := make([]openai.ChatCompletionMessage, 0, historyWindow+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	messages = append(messages, c.recentHistory()...)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userPrompt,
	})

	slog.Info("Calling completion API", "model", c.model, "messages", len(messages))

	callStart := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	metrics.OpenAIAPICallDuration.Observe(time.Since(callStart).Seconds())
	if err != nil {
		metrics.OpenAIAPICalls.WithLabelValues("error").Inc()
		metrics.QueriesProcessed.WithLabelValues("error").Inc()
		slog.Error("Completion API call failed", "error", err)
		return fmt.Sprintf("Sorry, I encountered an error processing your question: %v", err)
	}
	metrics.OpenAIAPICalls.WithLabelValues("success").Inc()

	if len(resp.Choices) == 0 {
		metrics.QueriesProcessed.WithLabelValues("empty").Inc()
		return emptyCompletionMessage
	}
	answer := strings.TrimSpace(resp.Choices[0].Message.Content)

	// History records the raw query and answer, not the constructed prompt.
	c.appendHistory(query, answer)
	metrics.QueriesProcessed.WithLabelValues("answered").Inc()
	slog.Info("Chat query answered", "answer_length", len(answer))
	return answer
}

// relevantDocuments gathers the grounding texts for a query. Retrieval is
// positional, not semantic: up to defaultTopK documents in store order, then
// everything (capped) if that comes back empty. With an empty store it falls
// back to extracting the most recently modified file in the upload
// directory. A non-empty reply means the query is answered without calling
// the model.
func (c *ChatService) relevantDocuments() ([]string, string) {
	if c.store.IsEmpty() {
		slog.Info("Document store is empty, falling back to upload directory", "dir", c.uploadDir)
		text, err := c.extractLatestUpload()
		if err != nil {
			if errors.Is(err, errNoUploads) {
				return nil, noInformationMessage
			}
			slog.Warn("Fallback extraction failed", "error", err)
			return nil, extractionFailedMessage
		}
		return []string{text}, ""
	}

	docs := c.store.GetAll(defaultTopK)
	if len(docs) == 0 {
		// Unreachable while the store is non-empty (checked above); kept so
		// the retrieval chain still degrades to the capped full scan if the
		// primary retrieval ever becomes selective.
		docs = c.store.GetAll(allDocsLimit)
	}
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}
	return texts, ""
}

// extractLatestUpload extracts text from the most recently modified file in
// the upload directory, bypassing the store and chunking.
func (c *ChatService) extractLatestUpload() (string, error) {
	entries, err := os.ReadDir(c.uploadDir)
	if err != nil {
		return "", errNoUploads
	}

	var newest string
	var newestMod time.Time
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = filepath.Join(c.uploadDir, entry.Name())
			newestMod = info.ModTime()
		}
	}
	if newest == "" {
		return "", errNoUploads
	}

	slog.Info("Extracting fallback file", "path", newest)
	result, err := c.extractors.Extract(newest)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// joinWithinBudget concatenates documents with blank-line separators,
// stopping before the document that would push the total past
// maxContextChars. Documents are never cut mid-text.
func joinWithinBudget(docs []string) string {
	var b strings.Builder
	for _, doc := range docs {
		if b.Len()+len(doc) > maxContextChars {
			break
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(doc)
	}
	return b.String()
}

// buildPrompt picks the prompt template and system persona for the query:
// structured spreadsheet records when available, spreadsheet text otherwise,
// or the generic document prompt.
func (c *ChatService) buildPrompt(query, contextText string) (systemPrompt, userPrompt string) {
	isExcel := strings.Contains(contextText, excelSummaryMarker) ||
		strings.Contains(contextText, excelSheetMarker)
	sheets := c.store.Sheets()

	switch {
	case isExcel && len(sheets) > 0:
		return analystPersona, fmt.Sprintf(excelJSONTemplate, serializeSheets(sheets), query)
	case isExcel:
		return analystPersona, fmt.Sprintf(excelTextTemplate, contextText, query)
	default:
		return assistantPersona, fmt.Sprintf(documentTemplate, contextText, query)
	}
}

// serializeSheets renders the structured records as indented JSON. Past
// maxSheetJSONChars it degrades to a per-sheet summary: sample records, the
// total record count, and the column list.
func serializeSheets(sheets []spreadsheet.Sheet) string {
	full := make(map[string][]spreadsheet.Record, len(sheets))
	for _, s := range sheets {
		full[s.Name] = s.Records
	}
	data, err := json.MarshalIndent(full, "", "  ")
	if err == nil && len(data) <= maxSheetJSONChars {
		return string(data)
	}

	summary := make(map[string]map[string]any, len(sheets))
	for _, s := range sheets {
		sample := s.Records
		if len(sample) > sheetSampleRecords {
			sample = sample[:sheetSampleRecords]
		}
		summary[s.Name] = map[string]any{
			"sample_records": sample,
			"total_records":  len(s.Records),
			"columns":        s.Columns,
		}
	}
	data, err = json.MarshalIndent(summary, "", "  ")
	if err != nil {
		slog.Warn("Failed to serialize sheet summary", "error", err)
		return ""
	}
	return string(data)
}

// recentHistory returns up to the last historyWindow messages in original
// order.
func (c *ChatService) recentHistory() []openai.ChatCompletionMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := len(c.history) - historyWindow
	if start < 0 {
		start = 0
	}
	return append([]openai.ChatCompletionMessage(nil), c.history[start:]...)
}

// appendHistory records one exchange and trims retention to the last
// historyLimit messages.
func (c *ChatService) appendHistory(query, answer string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = append(c.history,
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: query},
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: answer},
	)
	if len(c.history) > historyLimit {
		c.history = append([]openai.ChatCompletionMessage(nil), c.history[len(c.history)-historyLimit:]...)
	}
}

// History returns a copy of the retained conversation turns.
func (c *ChatService) History() []openai.ChatCompletionMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]openai.ChatCompletionMessage(nil), c.history...)
}
