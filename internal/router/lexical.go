package router

import (
	"context"
	"strings"

	"dirigent/internal/logging"
)

// categoryKeywords drive the lexical strategy. Matching is whole-word
// against the lowercased prompt.
var categoryKeywords = map[TaskType][]string{
	TaskCoding: {
		"code", "function", "programming", "script", "algorithm",
		"debug", "class", "method", "variable", "compile", "syntax",
		"api", "implement", "refactor", "bug", "regex", "database",
		"test", "library", "framework",
	},
	TaskReasoning: {
		"analyze", "evaluate", "compare", "contrast", "implications",
		"reasoning", "logic", "argument", "debate", "philosophy",
		"explain", "why", "ethical", "trade-offs", "framework",
	},
	TaskCreative: {
		"story", "creative", "imagine", "design", "poem", "song",
		"character", "fantasy", "fiction", "scenario", "concept",
		"slogan", "dialogue", "invent",
	},
	// general has no keywords: it wins only by default.
	TaskGeneral: {},
}

// LexicalClassifier scores prompts by whole-word keyword hits. Cheap,
// deterministic, and dependency-free; its confidence values cluster
// low, hence the low routing threshold.
type LexicalClassifier struct {
	keywords map[TaskType]map[string]struct{}
}

// NewLexicalClassifier builds the classifier from the built-in
// keyword sets.
func NewLexicalClassifier() *LexicalClassifier {
	kw := make(map[TaskType]map[string]struct{}, len(categoryKeywords))
	for task, words := range categoryKeywords {
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[w] = struct{}{}
		}
		kw[task] = set
	}
	return &LexicalClassifier{keywords: kw}
}

// Classify scores each category by keyword hits normalized per ten
// words of prompt (with a ten-word floor so short prompts are not
// inflated). A single isolated hit is halved: one keyword alone is
// weak evidence. The best score wins; ties fall to general.
func (c *LexicalClassifier) Classify(_ context.Context, prompt string) (Classification, error) {
	words := strings.Fields(strings.ToLower(prompt))

	denom := float64(len(words))
	if denom < 10 {
		denom = 10
	}

	best := Classification{TaskType: TaskGeneral, Confidence: 0}
	tied := false
	for _, task := range TaskTypes {
		set := c.keywords[task]
		if len(set) == 0 {
			continue
		}

		hits := 0
		for _, w := range words {
			if _, ok := set[trimWordPunct(w)]; ok {
				hits++
			}
		}
		if hits == 0 {
			continue
		}

		score := float64(hits) / denom
		if hits == 1 {
			score /= 2
		}
		if score > 1 {
			score = 1
		}

		switch {
		case score > best.Confidence:
			best = Classification{TaskType: task, Confidence: score}
			tied = false
		case score == best.Confidence && best.Confidence > 0:
			tied = true
		}
	}

	// An exact tie between categories is ambiguous: fall back to
	// the default category rather than picking one arbitrarily.
	if tied {
		best.TaskType = TaskGeneral
	}

	logging.RoutingDebug("Lexical classification: %s (%.2f) for %d-word prompt", best.TaskType, best.Confidence, len(words))
	return best, nil
}

// Name returns the strategy name.
func (c *LexicalClassifier) Name() string {
	return "lexical"
}

// trimWordPunct strips leading/trailing punctuation so "debug," still
// counts as a whole-word match.
func trimWordPunct(w string) string {
	return strings.Trim(w, ".,;:!?\"'()[]{}")
}
