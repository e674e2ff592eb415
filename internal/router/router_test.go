package router

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirigent/internal/config"
	"dirigent/internal/embedding"
)

func TestLexicalThresholdBoundary(t *testing.T) {
	c := NewLexicalClassifier()
	cfg := config.DefaultRoutingConfig()
	r := New(c, cfg)
	ctx := context.Background()

	// Two coding keyword hits in a short prompt score exactly at the
	// lexical threshold, so the coding model is selected.
	got := r.Route(ctx, "debug this function")
	assert.Equal(t, TaskCoding, got.TaskType)
	assert.InDelta(t, 0.2, got.Confidence, 1e-9)
	assert.Equal(t, cfg.ModelFor("coding"), got.SelectedModel)

	// A lone keyword scores below threshold and routes to default.
	got = r.Route(ctx, "debug")
	assert.InDelta(t, 0.05, got.Confidence, 1e-9)
	assert.Equal(t, cfg.DefaultModel, got.SelectedModel)
}

func TestLexicalClassifyCategories(t *testing.T) {
	c := NewLexicalClassifier()
	ctx := context.Background()

	tests := []struct {
		prompt string
		want   TaskType
	}{
		{"write a function to debug this algorithm", TaskCoding},
		{"analyze the argument and evaluate its logic", TaskReasoning},
		{"imagine a fantasy story with a new character", TaskCreative},
		{"how tall is Mount Everest", TaskGeneral},
	}
	for _, tt := range tests {
		got, err := c.Classify(ctx, tt.prompt)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.TaskType, "prompt: %s", tt.prompt)
	}
}

func TestLexicalTieFallsToGeneral(t *testing.T) {
	c := NewLexicalClassifier()

	// One coding hit and one reasoning hit with equal weight.
	got, err := c.Classify(context.Background(), "debug versus analyze approaches")
	require.NoError(t, err)
	assert.Equal(t, TaskGeneral, got.TaskType)
}

func TestLexicalPunctuationTolerant(t *testing.T) {
	c := NewLexicalClassifier()
	got, err := c.Classify(context.Background(), "Fix this bug, then refactor the code!")
	require.NoError(t, err)
	assert.Equal(t, TaskCoding, got.TaskType)
}

func TestEmbeddingClassifierDeterministic(t *testing.T) {
	c := NewEmbeddingClassifier(embedding.NewHashEngine())
	ctx := context.Background()

	first, err := c.Classify(ctx, "Write a function to calculate Fibonacci numbers")
	require.NoError(t, err)
	second, err := c.Classify(ctx, "Write a function to calculate Fibonacci numbers")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.GreaterOrEqual(t, first.Confidence, 0.0)
	assert.LessOrEqual(t, first.Confidence, 1.0)
}

func TestEmbeddingClassifierExactExample(t *testing.T) {
	// An exact example prompt should land in its own category with
	// high similarity even under the lexical hash engine.
	c := NewEmbeddingClassifier(embedding.NewHashEngine())
	got, err := c.Classify(context.Background(), "Can you help me debug this Python code?")
	require.NoError(t, err)
	assert.Contains(t, []TaskType{TaskCoding, TaskGeneral}, got.TaskType)
}

type failingClassifier struct{}

func (failingClassifier) Classify(context.Context, string) (Classification, error) {
	return Classification{}, errors.New("embedding service unreachable")
}
func (failingClassifier) Name() string { return "embedding" }

func TestRouterNeverFails(t *testing.T) {
	cfg := config.DefaultRoutingConfig()
	r := New(failingClassifier{}, cfg)

	model := r.SelectModel(context.Background(), "anything at all")
	assert.Equal(t, cfg.DefaultModel, model)
}

func TestRouterCodingOverride(t *testing.T) {
	cfg := config.DefaultRoutingConfig()
	cfg.EnableOverrides = true
	r := New(failingClassifier{}, cfg)

	// Classification failed, but the prompt plainly involves code.
	got := r.Route(context.Background(), "please fix the syntax in my program")
	assert.Equal(t, "coding_keywords_detected", got.OverrideReason)
	assert.Equal(t, cfg.ModelFor("coding"), got.SelectedModel)
}

func TestRouterLongPromptOverride(t *testing.T) {
	cfg := config.DefaultRoutingConfig()
	cfg.EnableOverrides = true
	r := New(NewLexicalClassifier(), cfg)

	prompt := strings.Repeat("considering every angle of the situation at hand ", 25)
	got := r.Route(context.Background(), prompt)
	assert.Equal(t, "long_complex_prompt", got.OverrideReason)
	assert.Equal(t, cfg.ModelFor("reasoning"), got.SelectedModel)
}

func TestRouterReasoningTermsOverride(t *testing.T) {
	cfg := config.DefaultRoutingConfig()
	cfg.EnableOverrides = true
	r := New(failingClassifier{}, cfg)

	got := r.Route(context.Background(), "what are the broader implications here")
	assert.Equal(t, "reasoning_terms_detected", got.OverrideReason)
	assert.Equal(t, cfg.ModelFor("reasoning"), got.SelectedModel)
}

type recordingSink struct {
	prompts []string
	last    Classification
}

func (s *recordingSink) RecordSelection(prompt string, c Classification) {
	s.prompts = append(s.prompts, prompt)
	s.last = c
}

func TestRouterRecordsSelections(t *testing.T) {
	sink := &recordingSink{}
	r := New(NewLexicalClassifier(), config.DefaultRoutingConfig()).WithRecorder(sink)

	r.SelectModel(context.Background(), "debug this function")

	require.Len(t, sink.prompts, 1)
	assert.Equal(t, TaskCoding, sink.last.TaskType)
	assert.NotEmpty(t, sink.last.SelectedModel)
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.DefaultRoutingConfig()

	cfg.Strategy = "lexical"
	r := NewFromConfig(cfg, nil)
	assert.Equal(t, "lexical", r.classifier.Name())

	cfg.Strategy = "embedding"
	r = NewFromConfig(cfg, embedding.NewHashEngine())
	assert.Equal(t, "embedding", r.classifier.Name())

	// Embedding strategy without an engine degrades to lexical.
	r = NewFromConfig(cfg, nil)
	assert.Equal(t, "lexical", r.classifier.Name())
}
