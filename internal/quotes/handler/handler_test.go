package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mityademon-rgb/matveypt-bot/internal/escalation"
	"github.com/mityademon-rgb/matveypt-bot/internal/quotes/service"
	"github.com/mityademon-rgb/matveypt-bot/platform/apperr"
	"github.com/mityademon-rgb/matveypt-bot/platform/logger"
	"github.com/mityademon-rgb/matveypt-bot/platform/validator"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubSubmitter struct {
	calls int
	err   error
}

func (s *stubSubmitter) HandleQuoteSubmission(context.Context, escalation.QuoteSubmission) error {
	s.calls++
	return s.err
}

type stubVerifier struct{}

func (stubVerifier) Verify(token string) (string, error) {
	if token == "good" {
		return "555", nil
	}
	return "", service.ErrInvalidLinkToken
}

func newEngine(sub *stubSubmitter) *gin.Engine {
	svc := service.New(sub, stubVerifier{}, logger.NewWithWriter("production", io.Discard))
	h := New(svc, validator.New())
	engine := gin.New()
	engine.POST("/quote", h.SubmitQuote)
	engine.POST("/api/calculate", h.Calculate)
	return engine
}

func post(engine *gin.Engine, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rec, req)
	return rec
}

func TestSubmitQuoteSuccess(t *testing.T) {
	sub := &stubSubmitter{}
	rec := post(newEngine(sub), "/quote", `{"conversationId":"123","total":250000,"lineItems":[{"name":"Эфир","price":250000,"quantity":1}]}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"success":true`) {
		t.Fatalf("expected success body, got %s", rec.Body.String())
	}
	if sub.calls != 1 {
		t.Fatalf("expected one submission, got %d", sub.calls)
	}
}

func TestSubmitQuoteOperatorMissing(t *testing.T) {
	sub := &stubSubmitter{err: apperr.NotConfigured("operator chat is not configured")}
	rec := post(newEngine(sub), "/quote", `{"conversationId":"123","total":1}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Fatalf("expected success=false body, got %s", rec.Body.String())
	}
}

func TestSubmitQuoteRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"malformed json":   `{"total":`,
		"missing total":    `{"conversationId":"123"}`,
		"negative total":   `{"conversationId":"123","total":-5}`,
		"bad conversation": `{"conversationId":"abc","total":1}`,
		"bad token":        `{"token":"forged","total":1}`,
	}

	for name, body := range cases {
		sub := &stubSubmitter{}
		rec := post(newEngine(sub), "/quote", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d %s", name, rec.Code, rec.Body.String())
		}
		if sub.calls != 0 {
			t.Fatalf("%s: expected no submission, got %d", name, sub.calls)
		}
	}
}

func TestCalculate(t *testing.T) {
	engine := newEngine(&stubSubmitter{})

	rec := post(engine, "/api/calculate", `{"intent":"combo","duration":"3m","platforms":["air","web","social"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"discount":15`) {
		t.Fatalf("expected capped 15%% discount, got %s", rec.Body.String())
	}

	rec = post(engine, "/api/calculate", `{"intent":"combo","duration":"2w"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown duration, got %d", rec.Code)
	}
}
