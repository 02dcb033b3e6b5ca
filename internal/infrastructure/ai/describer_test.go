package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bravo68web/repolens/internal/config"
	"github.com/bravo68web/repolens/internal/domain/service"
)

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt(service.DescribeInput{
		Name:        "repolens",
		Readme:      "# repolens\n\nIndexes local projects.",
		TechStack:   []string{"go", "docker"},
		ProjectType: "cli",
	})

	assert.Contains(t, prompt, "Name: repolens\n")
	assert.Contains(t, prompt, "Tech stack: go, docker\n")
	assert.Contains(t, prompt, "Type: cli\n")
	assert.Contains(t, prompt, "Indexes local projects.")

	bare := buildPrompt(service.DescribeInput{Name: "x"})
	assert.NotContains(t, bare, "Tech stack")
	assert.NotContains(t, bare, "README")
}

func TestBuildPromptBoundsReadme(t *testing.T) {
	prompt := buildPrompt(service.DescribeInput{Name: "x", Readme: strings.Repeat("q", readmeExcerpt*2)})
	assert.Equal(t, readmeExcerpt, strings.Count(prompt, "q"))
}

func TestFirstSentence(t *testing.T) {
	assert.Equal(t, "A CLI that indexes projects.", firstSentence("  \"A CLI that indexes projects.\"\n\nMore text"))
	assert.Equal(t, "", firstSentence("   "))

	long := firstSentence(strings.Repeat("é", 500))
	assert.Len(t, []rune(long), maxSentence)
	assert.True(t, strings.HasSuffix(long, "..."))
}

func TestDescribe(t *testing.T) {
	var prompts []string
	d := newDescriber(func(_ context.Context, prompt string) (string, error) {
		prompts = append(prompts, prompt)
		return "Indexes projects.\nextra", nil
	}, 0, time.Second)

	got, err := d.Describe(context.Background(), service.DescribeInput{Name: "repolens"})
	require.NoError(t, err)
	assert.Equal(t, "Indexes projects.", got)
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "Name: repolens")
}

func TestDescribePropagatesErrors(t *testing.T) {
	d := newDescriber(func(context.Context, string) (string, error) {
		return "", errors.New("overloaded")
	}, 0, 0)

	_, err := d.Describe(context.Background(), service.DescribeInput{Name: "x"})
	assert.EqualError(t, err, "overloaded")
}

func TestDescribeWaitsForLimiter(t *testing.T) {
	calls := 0
	d := newDescriber(func(context.Context, string) (string, error) {
		calls++
		return "ok", nil
	}, 1, 0)

	_, err := d.Describe(context.Background(), service.DescribeInput{Name: "a"})
	require.NoError(t, err)

	// the single token is spent; the next call would wait a minute
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = d.Describe(ctx, service.DescribeInput{Name: "b"})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestNewDescriberRequiresKey(t *testing.T) {
	_, err := NewDescriber(&config.AIConfig{Enabled: true})
	assert.Error(t, err)

	d, err := NewDescriber(&config.AIConfig{Enabled: true, APIKey: "test-key", Model: "m", RequestsPerMinute: 10})
	require.NoError(t, err)
	assert.NotNil(t, d)
}
