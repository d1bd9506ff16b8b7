package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"docuchat/internal/extract"
	"docuchat/internal/spreadsheet"
	"docuchat/internal/store"
)

// fakeCompleter records every request and plays back canned responses.
type fakeCompleter struct {
	answer   string
	err      error
	requests []openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.answer}},
		},
	}, nil
}

func newTestChat(t *testing.T, completer Completer) (*ChatService, *store.Store, string) {
	t.Helper()
	st := store.New()
	uploadDir := t.TempDir()
	return NewChatService(completer, "test-model", st, extract.Default(), uploadDir), st, uploadDir
}

func lastUserPrompt(t *testing.T, fake *fakeCompleter) string {
	t.Helper()
	if len(fake.requests) == 0 {
		t.Fatal("no completion requests were made")
	}
	messages := fake.requests[len(fake.requests)-1].Messages
	return messages[len(messages)-1].Content
}

func TestAnswerNoDocumentsNoUploads(t *testing.T) {
	fake := &fakeCompleter{answer: "should not be called"}
	chat, _, _ := newTestChat(t, fake)

	answer := chat.Answer(context.Background(), "what is this about?")
	if answer != noInformationMessage {
		t.Errorf("Answer = %q, want the no-information message", answer)
	}
	if len(fake.requests) != 0 {
		t.Error("the completion API must not be called with nothing to ground on")
	}
	if len(chat.History()) != 0 {
		t.Error("a no-information reply must not enter the history")
	}
}

func TestAnswerFallsBackToUploadDir(t *testing.T) {
	fake := &fakeCompleter{answer: "Paris"}
	chat, _, uploadDir := newTestChat(t, fake)

	content := "The capital of France is Paris."
	if err := os.WriteFile(filepath.Join(uploadDir, "notes.txt"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	answer := chat.Answer(context.Background(), "what is the capital of France?")
	if answer != "Paris" {
		t.Errorf("Answer = %q, want %q", answer, "Paris")
	}
	if prompt := lastUserPrompt(t, fake); !strings.Contains(prompt, content) {
		t.Errorf("prompt does not contain the fallback file's content:\n%s", prompt)
	}
}

func TestAnswerFallbackPicksMostRecentFile(t *testing.T) {
	fake := &fakeCompleter{answer: "ok"}
	chat, _, uploadDir := newTestChat(t, fake)

	older := filepath.Join(uploadDir, "older.txt")
	newer := filepath.Join(uploadDir, "newer.txt")
	if err := os.WriteFile(older, []byte("old content"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(newer, []byte("new content"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Make modification order unambiguous.
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, old, old); err != nil {
		t.Fatal(err)
	}

	chat.Answer(context.Background(), "question")
	prompt := lastUserPrompt(t, fake)
	if !strings.Contains(prompt, "new content") {
		t.Error("fallback should extract the most recently modified file")
	}
	if strings.Contains(prompt, "old content") {
		t.Error("fallback extracted the older file")
	}
}

func TestContextBudgetKeepsWholeDocuments(t *testing.T) {
	fake := &fakeCompleter{answer: "ok"}
	chat, st, _ := newTestChat(t, fake)

	st.Put("doc1", strings.Repeat("a", 7000), nil)
	st.Put("doc2", strings.Repeat("b", 7000), nil)
	st.Put("doc3", strings.Repeat("c", 7000), nil)

	chat.Answer(context.Background(), "question")
	prompt := lastUserPrompt(t, fake)

	if !strings.Contains(prompt, strings.Repeat("a", 7000)) {
		t.Error("prompt missing the first document")
	}
	if !strings.Contains(prompt, strings.Repeat("b", 7000)) {
		t.Error("prompt missing the second document")
	}
	// The third document would blow the budget; it must be absent entirely,
	// not truncated.
	if strings.Contains(prompt, strings.Repeat("c", 100)) {
		t.Error("prompt contains a document past the context budget")
	}
}

func TestHistoryTrimming(t *testing.T) {
	fake := &fakeCompleter{answer: "answer"}
	chat, st, _ := newTestChat(t, fake)
	st.Put("doc", "some grounding text", nil)

	for i := 1; i <= 11; i++ {
		chat.Answer(context.Background(), fmt.Sprintf("question %d", i))
	}

	history := chat.History()
	if len(history) != 20 {
		t.Fatalf("history length = %d, want 20", len(history))
	}
	// The oldest exchange (question 1) has been trimmed away.
	if history[0].Content != "question 2" {
		t.Errorf("history[0] = %q, want question 2", history[0].Content)
	}
	if history[18].Content != "question 11" {
		t.Errorf("history[18] = %q, want question 11", history[18].Content)
	}
	if history[19].Role != openai.ChatMessageRoleAssistant {
		t.Errorf("history[19].Role = %q, want assistant", history[19].Role)
	}
}

func TestHistoryRecordsRawQueryNotPrompt(t *testing.T) {
	fake := &fakeCompleter{answer: "answer"}
	chat, st, _ := newTestChat(t, fake)
	st.Put("doc", "grounding", nil)

	chat.Answer(context.Background(), "raw question")
	history := chat.History()
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].Content != "raw question" {
		t.Errorf("history[0] = %q, want the raw query", history[0].Content)
	}
	if strings.Contains(history[0].Content, "DOCUMENT CONTENT") {
		t.Error("history must not contain the constructed prompt")
	}
}

func TestHistoryWindowSentWithRequest(t *testing.T) {
	fake := &fakeCompleter{answer: "answer"}
	chat, st, _ := newTestChat(t, fake)
	st.Put("doc", "grounding", nil)

	for i := 1; i <= 8; i++ {
		chat.Answer(context.Background(), fmt.Sprintf("question %d", i))
	}

	// system + 10 history messages + new prompt
	last := fake.requests[len(fake.requests)-1]
	if len(last.Messages) != 12 {
		t.Fatalf("request carried %d messages, want 12", len(last.Messages))
	}
	if last.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Error("first message must be the system instruction")
	}
	if last.Messages[1].Content != "question 3" {
		t.Errorf("history window starts at %q, want question 3", last.Messages[1].Content)
	}
}

func TestCollaboratorFailureReturnsErrorString(t *testing.T) {
	fake := &fakeCompleter{err: fmt.Errorf("rate limit exceeded")}
	chat, st, _ := newTestChat(t, fake)
	st.Put("doc", "grounding", nil)

	answer := chat.Answer(context.Background(), "question")
	if !strings.Contains(answer, "Sorry, I encountered an error") {
		t.Errorf("Answer = %q, want an apology string", answer)
	}
	if !strings.Contains(answer, "rate limit exceeded") {
		t.Errorf("Answer = %q, want the underlying failure message", answer)
	}
	if len(chat.History()) != 0 {
		t.Error("a failed exchange must not enter the history")
	}
}

func TestPromptSelectionGenericDocument(t *testing.T) {
	fake := &fakeCompleter{answer: "ok"}
	chat, st, _ := newTestChat(t, fake)
	st.Put("doc", "plain prose about gophers", nil)

	chat.Answer(context.Background(), "question")
	req := fake.requests[0]
	if req.Messages[0].Content != assistantPersona {
		t.Error("generic document should use the assistant persona")
	}
	if !strings.Contains(lastUserPrompt(t, fake), "DOCUMENT CONTENT:") {
		t.Error("generic document should use the document template")
	}
}

func TestPromptSelectionExcelText(t *testing.T) {
	fake := &fakeCompleter{answer: "ok"}
	chat, st, _ := newTestChat(t, fake)
	st.Put("doc", "EXCEL FILE SUMMARY: sales.xlsx\nSHEET: Q1\nRows: 2", nil)

	chat.Answer(context.Background(), "question")
	req := fake.requests[0]
	if req.Messages[0].Content != analystPersona {
		t.Error("spreadsheet content should use the analyst persona")
	}
	if !strings.Contains(lastUserPrompt(t, fake), "EXCEL DATA:") {
		t.Error("spreadsheet content without records should use the text template")
	}
}

func TestPromptSelectionExcelStructured(t *testing.T) {
	fake := &fakeCompleter{answer: "ok"}
	chat, st, _ := newTestChat(t, fake)
	st.Put("doc", "EXCEL FILE SUMMARY: sales.xlsx", nil)
	st.SetSheets([]spreadsheet.Sheet{{
		Name:    "Q1",
		Columns: []string{"Product", "Profit"},
		Records: []spreadsheet.Record{{"Product": "widget", "Profit": 42.0}},
	}})

	chat.Answer(context.Background(), "question")
	prompt := lastUserPrompt(t, fake)
	if !strings.Contains(prompt, "EXCEL DATA (JSON FORMAT):") {
		t.Error("structured records should use the JSON template")
	}
	if !strings.Contains(prompt, "widget") {
		t.Error("JSON serialization missing record data")
	}
}

func TestSerializeSheetsSummarizesLargeData(t *testing.T) {
	records := make([]spreadsheet.Record, 500)
	for i := range records {
		records[i] = spreadsheet.Record{
			"Product": fmt.Sprintf("product-with-a-long-name-%d", i),
			"Profit":  float64(i) * 1.5,
		}
	}
	sheets := []spreadsheet.Sheet{{Name: "Big", Columns: []string{"Product", "Profit"}, Records: records}}

	out := serializeSheets(sheets)
	if len(out) > maxSheetJSONChars {
		t.Errorf("serialized output is %d chars, want at most %d", len(out), maxSheetJSONChars)
	}
	if !strings.Contains(out, "total_records") || !strings.Contains(out, "sample_records") {
		t.Error("oversized data should degrade to the per-sheet summary form")
	}
	if !strings.Contains(out, `"500"`) && !strings.Contains(out, "500") {
		t.Error("summary missing the total record count")
	}
}

func TestJoinWithinBudget(t *testing.T) {
	small := []string{"one", "two", "three"}
	if got := joinWithinBudget(small); got != "one\n\ntwo\n\nthree" {
		t.Errorf("joinWithinBudget = %q", got)
	}
	if got := joinWithinBudget(nil); got != "" {
		t.Errorf("joinWithinBudget(nil) = %q, want empty", got)
	}
}
