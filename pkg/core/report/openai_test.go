package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
)

func TestOpenAIGenerator_Generate(t *testing.T) {
	var got openai.ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: "summary---SIDEBAR---report"},
			}},
		})
	}))
	defer server.Close()

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = server.URL + "/v1"
	gen := &OpenAIGenerator{Client: openai.NewClientWithConfig(cfg)}

	text, err := gen.Generate(context.Background(), "sys", "hello")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "summary---SIDEBAR---report" {
		t.Fatalf("text = %q", text)
	}
	if got.Model != DefaultOpenAIModel {
		t.Fatalf("model = %q, want %q", got.Model, DefaultOpenAIModel)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != openai.ChatMessageRoleSystem || got.Messages[1].Content != "hello" {
		t.Fatalf("messages = %+v", got.Messages)
	}
}

func TestOpenAIGenerator_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = server.URL + "/v1"
	gen := &OpenAIGenerator{Client: openai.NewClientWithConfig(cfg)}
	if _, err := gen.Generate(context.Background(), "", "hello"); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}
