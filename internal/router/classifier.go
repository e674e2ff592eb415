// Package router scores incoming prompts against task categories and
// selects which backend model should answer. Lexical keyword scoring
// and embedding-centroid similarity are interchangeable strategies
// behind one Classifier interface; the Router wraps whichever is
// configured and guarantees a model is always returned.
package router

import "context"

// TaskType is a prompt category with a dedicated backend model.
type TaskType string

const (
	TaskCoding    TaskType = "coding"
	TaskReasoning TaskType = "reasoning"
	TaskCreative  TaskType = "creative"
	TaskGeneral   TaskType = "general"
)

// TaskTypes lists all categories in priority order; general is last
// and doubles as the tie-break and fallback category.
var TaskTypes = []TaskType{TaskCoding, TaskReasoning, TaskCreative, TaskGeneral}

// Classification is the outcome of scoring one prompt.
type Classification struct {
	TaskType TaskType `json:"task_type"`

	// Confidence is in [0,1]. Its distribution depends on the
	// strategy, which is why thresholds differ per classifier.
	Confidence float64 `json:"confidence"`

	SelectedModel string `json:"selected_model,omitempty"`

	// OverrideReason is set when a routing rule replaced the
	// classified category's model.
	OverrideReason string `json:"override_reason,omitempty"`
}

// Classifier scores a prompt into a task category.
type Classifier interface {
	Classify(ctx context.Context, prompt string) (Classification, error)
	Name() string
}
