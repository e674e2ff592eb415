package router

import (
	"context"
	"strings"

	"dirigent/internal/config"
	"dirigent/internal/embedding"
	"dirigent/internal/logging"
)

// codingOverrideTerms force the coding model even when classification
// picked another category.
var codingOverrideTerms = []string{
	"code", "function", "programming", "debug", "algorithm", "class",
	"method", "variable", "compile", "syntax", "api",
}

// reasoningOverrideTerms pull analysis-heavy prompts to the reasoning
// model.
var reasoningOverrideTerms = []string{
	"analyze", "evaluate", "compare", "contrast", "implications",
	"reasoning", "logic", "argument", "debate", "philosophy",
}

// longPromptWords is the length past which a prompt is routed to the
// reasoning model regardless of category.
const longPromptWords = 100

// SelectionRecorder receives every routing decision, e.g. for the
// persistence layer. Implementations must not fail the routing path.
type SelectionRecorder interface {
	RecordSelection(prompt string, c Classification)
}

// Router turns a prompt into a model identifier. It never fails: any
// classification error degrades to the configured default model.
type Router struct {
	classifier Classifier
	cfg        config.RoutingConfig
	recorder   SelectionRecorder
}

// New creates a router over the given classifier.
func New(classifier Classifier, cfg config.RoutingConfig) *Router {
	return &Router{classifier: classifier, cfg: cfg}
}

// NewFromConfig builds the router with the configured strategy. The
// embedding strategy needs an engine; anything else (including an
// unknown strategy name) gets the lexical classifier, which has no
// external dependencies.
func NewFromConfig(cfg config.RoutingConfig, engine embedding.Engine) *Router {
	var classifier Classifier
	if cfg.Strategy == "embedding" && engine != nil {
		classifier = NewEmbeddingClassifier(engine)
	} else {
		classifier = NewLexicalClassifier()
	}
	return New(classifier, cfg)
}

// WithRecorder attaches a selection recorder.
func (r *Router) WithRecorder(rec SelectionRecorder) *Router {
	r.recorder = rec
	return r
}

// SelectModel classifies the prompt and returns the model to use.
func (r *Router) SelectModel(ctx context.Context, prompt string) string {
	return r.Route(ctx, prompt).SelectedModel
}

// Route classifies the prompt, applies the override rules, and returns
// the full decision. Errors never escape: a failed classification
// routes to the default model with zero confidence.
func (r *Router) Route(ctx context.Context, prompt string) Classification {
	c, err := r.classifier.Classify(ctx, prompt)
	if err != nil {
		logging.Routing("Classification failed, using default model: %v", err)
		c = Classification{TaskType: TaskGeneral, Confidence: 0}
	}

	threshold := r.cfg.ThresholdFor(r.classifier.Name())
	if c.Confidence >= threshold {
		c.SelectedModel = r.cfg.ModelFor(string(c.TaskType))
	} else {
		c.SelectedModel = r.cfg.DefaultModel
	}

	if r.cfg.EnableOverrides {
		r.applyOverrides(prompt, &c)
	}

	logging.Routing("Selected model %s for %s prompt (confidence %.2f, override=%s)",
		c.SelectedModel, c.TaskType, c.Confidence, c.OverrideReason)
	logging.Audit().ModelSelected(string(c.TaskType), c.SelectedModel, c.Confidence, c.OverrideReason)
	if r.recorder != nil {
		r.recorder.RecordSelection(prompt, c)
	}
	return c
}

// applyOverrides adjusts the selected model for signals the
// classifier tends to miss: explicit coding vocabulary, very long
// prompts, and explicit analysis vocabulary.
func (r *Router) applyOverrides(prompt string, c *Classification) {
	lower := strings.ToLower(prompt)

	switch {
	case c.TaskType != TaskCoding && containsAny(lower, codingOverrideTerms):
		c.OverrideReason = "coding_keywords_detected"
		c.SelectedModel = r.cfg.ModelFor(string(TaskCoding))

	case c.TaskType != TaskReasoning && len(strings.Fields(prompt)) > longPromptWords:
		c.OverrideReason = "long_complex_prompt"
		c.SelectedModel = r.cfg.ModelFor(string(TaskReasoning))

	case c.TaskType != TaskReasoning && containsAny(lower, reasoningOverrideTerms):
		c.OverrideReason = "reasoning_terms_detected"
		c.SelectedModel = r.cfg.ModelFor(string(TaskReasoning))
	}
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
