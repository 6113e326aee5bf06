package openaicompat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

func TestGenerateContentSendsSystemPromptAndJSONFormat(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"message\":\"hi\"}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	m := NewModel(Config{APIKey: "key", BaseURL: srv.URL})
	temp := float32(0.6)
	req := &model.LLMRequest{
		Contents: []*genai.Content{
			genai.NewContentFromText("привет", genai.RoleUser),
			genai.NewContentFromText("здравствуйте", genai.RoleModel),
		},
		Config: &genai.GenerateContentConfig{
			Temperature:       &temp,
			ResponseMIMEType:  "application/json",
			SystemInstruction: genai.NewContentFromText("system prompt", genai.RoleUser),
		},
	}

	var got *model.LLMResponse
	for resp, err := range m.GenerateContent(context.Background(), req, false) {
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		got = resp
	}

	if got == nil || got.Content == nil || got.Content.Parts[0].Text != `{"message":"hi"}` {
		t.Fatalf("unexpected response %+v", got)
	}
	if captured.Model != "gpt-4o-mini" {
		t.Fatalf("expected default model gpt-4o-mini, got %q", captured.Model)
	}
	if len(captured.Messages) != 3 || captured.Messages[0].Role != "system" || captured.Messages[2].Role != "assistant" {
		t.Fatalf("unexpected messages %+v", captured.Messages)
	}
	if captured.ResponseFormat == nil || captured.ResponseFormat.Type != "json_object" {
		t.Fatalf("expected json_object response format")
	}
}

func TestGenerateContentSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"auth"}}`))
	}))
	defer srv.Close()

	m := NewModel(Config{APIKey: "nope", BaseURL: srv.URL})
	for _, err := range m.GenerateContent(context.Background(), &model.LLMRequest{}, false) {
		if err == nil {
			t.Fatalf("expected api error")
		}
	}
}
