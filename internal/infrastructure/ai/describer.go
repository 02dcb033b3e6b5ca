// Package ai summarizes projects with the Anthropic messages API
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"

	"github.com/bravo68web/repolens/internal/config"
	"github.com/bravo68web/repolens/internal/domain/service"
	"github.com/bravo68web/repolens/pkg/logger"
)

const (
	maxTokens     = 200
	readmeExcerpt = 4000
	maxSentence   = 300
)

// Describer implements service.Describer. One limiter is shared by every
// extraction worker.
type Describer struct {
	send    func(ctx context.Context, prompt string) (string, error)
	limiter *rate.Limiter
	timeout time.Duration
	log     *logger.Logger
}

// NewDescriber creates a Describer from the ai config section
func NewDescriber(cfg *config.AIConfig) (*Describer, error) {
	if !cfg.IsConfigured() {
		return nil, fmt.Errorf("ai description is not configured")
	}

	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	model := cfg.Model

	send := func(ctx context.Context, prompt string) (string, error) {
		response, err := client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(model),
			MaxTokens: maxTokens,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if err != nil {
			return "", fmt.Errorf("API call failed: %w", err)
		}

		var text strings.Builder
		for _, block := range response.Content {
			if block.Type == "text" {
				text.WriteString(block.Text)
			}
		}
		return text.String(), nil
	}

	return newDescriber(send, cfg.RequestsPerMinute, cfg.Timeout()), nil
}

func newDescriber(send func(context.Context, string) (string, error), perMinute int, timeout time.Duration) *Describer {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return &Describer{
		send:    send,
		limiter: rate.NewLimiter(limit, 1),
		timeout: timeout,
		log:     logger.Get().WithFields(logger.Component("ai")),
	}
}

// Describe waits for the limiter, then asks for a one-sentence summary
func (d *Describer) Describe(ctx context.Context, in service.DescribeInput) (string, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return "", err
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := d.send(ctx, buildPrompt(in))
	if err != nil {
		return "", err
	}
	d.log.Debug("Project described", logger.String("project", in.Name), logger.Duration("took", time.Since(start)))

	return firstSentence(text), nil
}

func buildPrompt(in service.DescribeInput) string {
	var b strings.Builder
	b.WriteString("Summarize this software project in one plain sentence. ")
	b.WriteString("Reply with the sentence only.\n\n")
	fmt.Fprintf(&b, "Name: %s\n", in.Name)
	if len(in.TechStack) > 0 {
		fmt.Fprintf(&b, "Tech stack: %s\n", strings.Join(in.TechStack, ", "))
	}
	if in.ProjectType != "" {
		fmt.Fprintf(&b, "Type: %s\n", in.ProjectType)
	}
	if readme := strings.TrimSpace(in.Readme); readme != "" {
		runes := []rune(readme)
		if len(runes) > readmeExcerpt {
			readme = string(runes[:readmeExcerpt])
		}
		b.WriteString("\nREADME excerpt:\n")
		b.WriteString(readme)
		b.WriteString("\n")
	}
	return b.String()
}

// firstSentence keeps the first line, trimmed and bounded
func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}
	text = strings.Trim(text, `"`)
	if runes := []rune(text); len(runes) > maxSentence {
		text = string(runes[:maxSentence-3]) + "..."
	}
	return text
}

var _ service.Describer = (*Describer)(nil)
