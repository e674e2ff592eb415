package router

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"dirigent/internal/embedding"
	"dirigent/internal/logging"
)

// ambiguityGap is the minimum lead the best category must have over a
// runner-up general classification when it misses its own threshold.
const ambiguityGap = 0.1

// lowConfidenceFloor demotes any classification below it to general.
const lowConfidenceFloor = 0.55

// perCategoryThresholds gate how similar a prompt must be before a
// specialized category is trusted. General is deliberately permissive.
var perCategoryThresholds = map[TaskType]float64{
	TaskCoding:    0.65,
	TaskReasoning: 0.60,
	TaskCreative:  0.65,
	TaskGeneral:   0.50,
}

// EmbeddingClassifier scores prompts by cosine similarity to one
// centroid vector per category. Centroids are built lazily on first
// use and reused for the classifier's lifetime.
type EmbeddingClassifier struct {
	engine embedding.Engine

	initOnce  sync.Once
	initErr   error
	centroids map[TaskType][]float32
}

// NewEmbeddingClassifier creates a classifier over the given engine.
func NewEmbeddingClassifier(engine embedding.Engine) *EmbeddingClassifier {
	return &EmbeddingClassifier{engine: engine}
}

// init builds the per-category centroids, embedding each category's
// example set concurrently.
func (c *EmbeddingClassifier) init(ctx context.Context) error {
	c.initOnce.Do(func() {
		timer := logging.StartTimer(logging.CategoryRouting, "centroid-init")
		defer timer.Stop()

		centroids := make(map[TaskType][]float32, len(taskExamples))
		var mu sync.Mutex

		g, gctx := errgroup.WithContext(ctx)
		for task, examples := range taskExamples {
			task, examples := task, examples
			g.Go(func() error {
				vecs, err := c.engine.EmbedBatch(gctx, examples)
				if err != nil {
					return fmt.Errorf("embed %s examples: %w", task, err)
				}
				centroid, err := embedding.Mean(vecs)
				if err != nil {
					return fmt.Errorf("average %s examples: %w", task, err)
				}
				mu.Lock()
				centroids[task] = centroid
				mu.Unlock()
				return nil
			})
		}

		if c.initErr = g.Wait(); c.initErr == nil {
			c.centroids = centroids
			logging.Routing("Initialized %d category centroids via %s", len(centroids), c.engine.Name())
		}
	})
	return c.initErr
}

// Classify embeds the prompt and picks the closest centroid.
// Confidence maps cosine similarity from [-1,1] into [0,1]. An
// under-threshold winner trailing a general runner-up by less than the
// ambiguity gap is reclassified as general, and anything below the
// low-confidence floor falls to general outright.
func (c *EmbeddingClassifier) Classify(ctx context.Context, prompt string) (Classification, error) {
	if err := c.init(ctx); err != nil {
		return Classification{}, err
	}

	vec, err := c.engine.Embed(ctx, prompt)
	if err != nil {
		return Classification{}, fmt.Errorf("embed prompt: %w", err)
	}

	type scored struct {
		task TaskType
		sim  float64
	}
	scores := make([]scored, 0, len(c.centroids))
	for task, centroid := range c.centroids {
		sim, err := embedding.CosineSimilarity(vec, centroid)
		if err != nil {
			return Classification{}, err
		}
		scores = append(scores, scored{task, sim})
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].sim > scores[j].sim })

	best := scores[0]
	confidence := (best.sim + 1) / 2
	taskType := best.task

	if len(scores) > 1 && confidence < perCategoryThresholds[taskType] {
		runnerUp := scores[1]
		runnerUpConf := (runnerUp.sim + 1) / 2
		if confidence-runnerUpConf < ambiguityGap && runnerUp.task == TaskGeneral {
			logging.RoutingDebug("Ambiguous prompt (gap %.3f), reclassifying %s as general", confidence-runnerUpConf, taskType)
			taskType = TaskGeneral
			confidence = runnerUpConf
		}
	}

	if confidence < lowConfidenceFloor {
		logging.RoutingDebug("Low confidence %.2f for %s, defaulting to general", confidence, taskType)
		taskType = TaskGeneral
	}

	return Classification{TaskType: taskType, Confidence: confidence}, nil
}

// Name returns the strategy name.
func (c *EmbeddingClassifier) Name() string {
	return "embedding"
}
