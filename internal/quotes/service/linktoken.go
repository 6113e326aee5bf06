package service

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	linkAudience   = "calculator"
	calculatorPath = "/calculator.html"
)

// ErrInvalidLinkToken is returned for tokens that fail verification.
var ErrInvalidLinkToken = errors.New("invalid calculator link token")

// LinkSigner issues the calculator mini-app URL with a signed token that
// binds the submitted quote to a conversation.
type LinkSigner struct {
	secret  []byte
	ttl     time.Duration
	baseURL string
	now     func() time.Time
}

// NewLinkSigner returns a signer. With an empty secret links carry the
// conversation ID in the clear and tokens are rejected.
func NewLinkSigner(secret string, ttl time.Duration, webAppURL string) *LinkSigner {
	return &LinkSigner{
		secret:  []byte(secret),
		ttl:     ttl,
		baseURL: strings.TrimRight(webAppURL, "/"),
		now:     time.Now,
	}
}

// CalculatorURL returns "" when no web app URL is configured.
func (s *LinkSigner) CalculatorURL(conversationID string) string {
	if s.baseURL == "" {
		return ""
	}
	q := url.Values{}
	if len(s.secret) > 0 {
		token, err := s.Sign(conversationID)
		if err == nil {
			q.Set("token", token)
		}
	}
	if q.Get("token") == "" {
		q.Set("conversationId", conversationID)
	}
	return s.baseURL + calculatorPath + "?" + q.Encode()
}

// Sign issues an HS256 token for conversationID.
func (s *LinkSigner) Sign(conversationID string) (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("calculator link secret is not configured")
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   conversationID,
		Audience:  jwt.ClaimStrings{linkAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify returns the conversation ID a token was issued for.
func (s *LinkSigner) Verify(token string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrInvalidLinkToken
	}
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(linkAudience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidLinkToken, err)
	}
	if claims.Subject == "" {
		return "", ErrInvalidLinkToken
	}
	return claims.Subject, nil
}
