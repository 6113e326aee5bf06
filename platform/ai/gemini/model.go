// Package gemini adapts the Google GenAI SDK to the ADK model.LLM interface.
package gemini

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// Config for the Gemini API backend
type Config struct {
	APIKey string
	Model  string
}

// Model lazily creates the genai client on first use, since client creation
// needs a context.
type Model struct {
	config Config

	once    sync.Once
	client  *genai.Client
	initErr error
}

func NewModel(cfg Config) *Model {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	return &Model{config: cfg}
}

func (m *Model) Name() string {
	return m.config.Model
}

// GenerateContent performs one non-streaming GenerateContent call.
func (m *Model) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		resp, err := m.generate(ctx, req)
		yield(resp, err)
	}
}

func (m *Model) generate(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil llm request")
	}
	client, err := m.ensureClient(ctx)
	if err != nil {
		return nil, err
	}

	name := req.Model
	if name == "" {
		name = m.config.Model
	}

	result, err := client.Models.GenerateContent(ctx, name, req.Contents, req.Config)
	if err != nil {
		return nil, fmt.Errorf("gemini api call failed: %w", err)
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return nil, fmt.Errorf("empty response from gemini api")
	}

	candidate := result.Candidates[0]
	return &model.LLMResponse{
		Content:       candidate.Content,
		UsageMetadata: result.UsageMetadata,
		FinishReason:  candidate.FinishReason,
	}, nil
}

func (m *Model) ensureClient(ctx context.Context) (*genai.Client, error) {
	m.once.Do(func() {
		m.client, m.initErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  m.config.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if m.initErr != nil {
			m.initErr = fmt.Errorf("create gemini client: %w", m.initErr)
		}
	})
	return m.client, m.initErr
}

var _ model.LLM = (*Model)(nil)
