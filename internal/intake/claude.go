package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/trogers1052/trading-journal/internal/config"
	"github.com/trogers1052/trading-journal/internal/models"
)

const anthropicVersion = "2023-06-01"

// ClaudeCategorizer calls the Anthropic Messages API
type ClaudeCategorizer struct {
	apiKey    string
	endpoint  string
	model     string
	maxTokens int
	system    string
	client    *http.Client
	logger    zerolog.Logger
}

// NewClaudeCategorizer creates a categorizer whose system prompt carries the account rules
func NewClaudeCategorizer(cfg config.ClaudeConfig, rules []models.AccountPolicy, logger zerolog.Logger) *ClaudeCategorizer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &ClaudeCategorizer{
		apiKey:    cfg.APIKey,
		endpoint:  cfg.Endpoint,
		model:     cfg.Model,
		maxTokens: maxTokens,
		system:    PolicyText(rules),
		client:    &http.Client{Timeout: timeout},
		logger:    logger.With().Str("component", "intake").Logger(),
	}
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Categorize sends the journal text and parses the proposal out of the reply
func (c *ClaudeCategorizer) Categorize(ctx context.Context, text string) (Proposal, error) {
	if c.apiKey == "" {
		return Proposal{}, &IntakeError{Kind: KindMissingCredential, Err: fmt.Errorf("CLAUDE_API_KEY is not set")}
	}

	body, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    c.system,
		Messages:  []message{{Role: "user", Content: text}},
	})
	if err != nil {
		return Proposal{}, newIntakeError(KindTransport, "encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Proposal{}, newIntakeError(KindTransport, "build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Claude request failed")
		return Proposal{}, newIntakeError(KindTransport, "request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Proposal{}, newIntakeError(KindTransport, "read response: %w", err)
	}

	c.logger.Debug().
		Int("status", resp.StatusCode).
		Int64("latency_ms", time.Since(start).Milliseconds()).
		Msg("Claude responded")

	if resp.StatusCode >= 300 {
		return Proposal{}, newIntakeError(KindBadStatus, "claude http %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var parsed messagesResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Proposal{}, newIntakeError(KindMalformed, "decode response: %w", err)
	}

	var reply strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			reply.WriteString(block.Text)
		}
	}

	return ParseProposal(reply.String())
}

// ParseProposal extracts the JSON object embedded in a model reply
func ParseProposal(text string) (Proposal, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return Proposal{}, newIntakeError(KindMalformed, "no JSON object in reply: %s", truncate(text, 120))
	}

	var p Proposal
	if err := json.Unmarshal([]byte(text[start:end+1]), &p); err != nil {
		return Proposal{}, newIntakeError(KindMalformed, "decode proposal: %w", err)
	}

	p, reason := p.normalize()
	if reason != "" {
		return Proposal{}, newIntakeError(KindMalformed, "%s", reason)
	}
	return p, nil
}

// NoopCategorizer is used when no credential is configured
type NoopCategorizer struct{}

// Categorize always fails with a missing credential
func (NoopCategorizer) Categorize(ctx context.Context, text string) (Proposal, error) {
	return Proposal{}, &IntakeError{Kind: KindMissingCredential, Err: fmt.Errorf("AI intake is not configured")}
}

// PolicyText renders the fixed categorisation policy sent as the system prompt
func PolicyText(rules []models.AccountPolicy) string {
	var b strings.Builder
	b.WriteString("You categorise trading journal entries. Assign each entry to exactly one account:\n")
	for _, r := range rules {
		fmt.Fprintf(&b, "- %s:", r.Account)
		if r.MaxPositionPercent.IsPositive() {
			fmt.Fprintf(&b, " max position %s%% of the account;", r.MaxPositionPercent.String())
		}
		if r.AllowShort {
			b.WriteString(" short selling allowed;")
		} else {
			b.WriteString(" long only;")
		}
		if r.RequireStopLoss {
			b.WriteString(" stop loss required;")
		}
		if r.MaxOpenPositions > 0 {
			fmt.Fprintf(&b, " at most %d open positions;", r.MaxOpenPositions)
		}
		if r.CooldownDays > 0 {
			fmt.Fprintf(&b, " wait %d days before re-entering a ticker after a loss;", r.CooldownDays)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "emotionalState must be one of: %s.\n", strings.Join(models.EmotionalStates(), ", "))
	b.WriteString("When a rule is broken, add a short warning to validationFlags.\n")
	b.WriteString("Respond ONLY with one JSON object with the fields account, tradeType, ticker, ")
	b.WriteString("action (OPEN|CLOSE|ROLL), direction (Long|Short), quantity, entryPrice, positionSize, ")
	b.WriteString("thesis, stopLoss, emotionalState, validationFlags.")
	return b.String()
}

// truncate shortens s to at most n runes
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
