// Package classifier turns a lead's free text into a structured reply using
// an LLM. Failures never escape: every error path yields SafeDefault.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/mityademon-rgb/matveypt-bot/internal/session"
	"github.com/mityademon-rgb/matveypt-bot/platform/logger"
	"github.com/mityademon-rgb/matveypt-bot/platform/metrics"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// ContextWindow is how many trailing transcript entries are sent.
const ContextWindow = 12

const (
	defaultTimeout     = 15 * time.Second
	defaultTemperature = float32(0.6)
	// missingConfidence applies when the model omits or garbles the score.
	missingConfidence = 0.6
	// SafeConfidence is the score of the safe default reply.
	SafeConfidence = 0.2
)

// Field keys in Reply.Fields.
const (
	FieldCategory = "category"
	FieldCity     = "city"
	FieldTask     = "task"
	FieldSeason   = "season"
)

// Visual hints the model may ask for.
var visualKeys = map[string]struct{}{
	"ecosystem": {}, "structure": {}, "journey": {}, "route": {},
	"choice": {}, "hotel": {}, "levels": {},
}

// Request is one classification call.
type Request struct {
	ConversationID string
	Transcript     []session.Turn
	NewMessage     string
}

// Reply is the structured classifier output.
type Reply struct {
	Text string
	// Fields holds only present, non-empty extracted values.
	Fields        map[string]string
	Confidence    float64
	VisualHint    string
	ReadyForQuote bool
}

// SafeDefault is substituted for any classifier failure.
func SafeDefault() Reply {
	return Reply{
		Text:       fallbackUnparseable,
		Fields:     map[string]string{},
		Confidence: SafeConfidence,
	}
}

// Gateway calls an ADK model and parses its JSON answer.
type Gateway struct {
	llm         model.LLM
	timeout     time.Duration
	temperature float32
	log         *logger.Logger
	metrics     *metrics.Recorder
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithTimeout bounds each model call.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithMetrics records call outcomes.
func WithMetrics(m *metrics.Recorder) Option {
	return func(g *Gateway) { g.metrics = m }
}

func NewGateway(llm model.LLM, log *logger.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		llm:         llm,
		timeout:     defaultTimeout,
		temperature: defaultTemperature,
		log:         log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Classify never fails; problems are logged and mapped to SafeDefault.
func (g *Gateway) Classify(ctx context.Context, req Request) Reply {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.generate(ctx, req)
	if err != nil {
		outcome := "error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			outcome = "timeout"
		}
		g.metrics.Classifier(outcome, time.Since(start))
		g.log.ClassifierFallback(req.ConversationID, err.Error())
		return SafeDefault()
	}

	reply, ok := Parse(raw)
	if !ok {
		g.metrics.Classifier("malformed", time.Since(start))
		g.log.ClassifierFallback(req.ConversationID, "unparseable model output")
		return reply
	}
	g.metrics.Classifier("ok", time.Since(start))
	return reply
}

func (g *Gateway) generate(ctx context.Context, req Request) (string, error) {
	if g.llm == nil {
		return "", errors.New("classifier model not configured")
	}
	temp := g.temperature
	llmReq := &model.LLMRequest{
		Model:    g.llm.Name(),
		Contents: buildContents(req),
		Config: &genai.GenerateContentConfig{
			Temperature:       &temp,
			ResponseMIMEType:  "application/json",
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemPrompt}}},
		},
	}

	var text strings.Builder
	for resp, err := range g.llm.GenerateContent(ctx, llmReq, false) {
		if err != nil {
			return "", err
		}
		if resp == nil || resp.Content == nil {
			continue
		}
		for _, part := range resp.Content.Parts {
			if part != nil {
				text.WriteString(part.Text)
			}
		}
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if strings.TrimSpace(text.String()) == "" {
		return "", errors.New("empty model response")
	}
	return text.String(), nil
}

func buildContents(req Request) []*genai.Content {
	turns := req.Transcript
	if len(turns) > ContextWindow {
		turns = turns[len(turns)-ContextWindow:]
	}
	contents := make([]*genai.Content, 0, len(turns)+1)
	for _, turn := range turns {
		var role genai.Role = genai.RoleUser
		if turn.Role == session.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}
	return append(contents, genai.NewContentFromText(req.NewMessage, genai.RoleUser))
}

// rawReply mirrors the model's JSON. Pointers tell absent from zero.
type rawReply struct {
	Message            *string         `json:"message"`
	Brief              json.RawMessage `json:"brief"`
	Confidence         json.RawMessage `json:"confidence"`
	VisualKey          *string         `json:"visualKey"`
	ReadyForCalculator json.RawMessage `json:"readyForCalculator"`
}

type rawBrief struct {
	CompanyBusiness *string `json:"companyBusiness"`
	City            *string `json:"city"`
	Task            *string `json:"task"`
	Season          *string `json:"season"`
}

// Parse decodes model output. ok is false when the output was unusable and
// SafeDefault was returned. Missing individual fields get defaults instead.
func Parse(raw string) (Reply, bool) {
	var r rawReply
	if err := json.Unmarshal([]byte(stripFences(raw)), &r); err != nil {
		return SafeDefault(), false
	}

	reply := Reply{
		Text:       fallbackNoMessage,
		Fields:     map[string]string{},
		Confidence: missingConfidence,
	}
	if r.Message != nil && strings.TrimSpace(*r.Message) != "" {
		reply.Text = strings.TrimSpace(*r.Message)
	}

	var score float64
	if len(r.Confidence) > 0 && json.Unmarshal(r.Confidence, &score) == nil {
		reply.Confidence = clamp01(score)
	}

	var ready bool
	if len(r.ReadyForCalculator) > 0 && json.Unmarshal(r.ReadyForCalculator, &ready) == nil {
		reply.ReadyForQuote = ready
	}

	if r.VisualKey != nil {
		key := strings.ToLower(strings.TrimSpace(*r.VisualKey))
		if _, known := visualKeys[key]; known {
			reply.VisualHint = key
		}
	}

	var brief rawBrief
	if len(r.Brief) > 0 && json.Unmarshal(r.Brief, &brief) == nil {
		putField(reply.Fields, FieldCategory, brief.CompanyBusiness)
		putField(reply.Fields, FieldCity, brief.City)
		putField(reply.Fields, FieldTask, brief.Task)
		putField(reply.Fields, FieldSeason, brief.Season)
	}
	return reply, true
}

func putField(fields map[string]string, key string, value *string) {
	if value == nil {
		return
	}
	v := strings.TrimSpace(*value)
	if v == "" || strings.EqualFold(v, "null") {
		return
	}
	fields[key] = v
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
