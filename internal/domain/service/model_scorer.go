package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"

	"github.com/bibbank/scamshield/internal/domain/model"
	"github.com/bibbank/scamshield/internal/domain/port"
	"github.com/bibbank/scamshield/internal/domain/valueobject"
)

// DefaultMaxTokens is the token budget used when none is configured.
const DefaultMaxTokens = 512

// ModelHandle bundles a loaded tokenizer and classifier. It is immutable after
// construction and shared read-only by every concurrent call.
type ModelHandle struct {
	tokenizer  port.Tokenizer
	classifier port.SequenceClassifier
	modelID    string
	maxTokens  int
}

// NewModelHandle creates a handle. A non-positive maxTokens selects DefaultMaxTokens.
func NewModelHandle(tokenizer port.Tokenizer, classifier port.SequenceClassifier, modelID string, maxTokens int) (*ModelHandle, error) {
	if tokenizer == nil {
		return nil, fmt.Errorf("%w: tokenizer is required", ErrInitialization)
	}
	if classifier == nil {
		return nil, fmt.Errorf("%w: classifier is required", ErrInitialization)
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &ModelHandle{
		tokenizer:  tokenizer,
		classifier: classifier,
		modelID:    modelID,
		maxTokens:  maxTokens,
	}, nil
}

// ModelID returns the identifier of the loaded model.
func (h *ModelHandle) ModelID() string { return h.modelID }

// MaxTokens returns the truncation budget.
func (h *ModelHandle) MaxTokens() int { return h.maxTokens }

// ModelScorer classifies text with a pretrained 3-class sequence classifier.
// It serves nothing until a ModelHandle is installed with Initialize.
type ModelScorer struct {
	handle atomic.Pointer[ModelHandle]
	logger *slog.Logger
}

// NewModelScorer creates a scorer that is not yet ready.
func NewModelScorer(logger *slog.Logger) *ModelScorer {
	return &ModelScorer{logger: logger}
}

// Initialize installs the loaded model. It succeeds once; the model is never reloaded.
func (s *ModelScorer) Initialize(h *ModelHandle) error {
	if h == nil {
		return fmt.Errorf("%w: model handle is nil", ErrInitialization)
	}
	if !s.handle.CompareAndSwap(nil, h) {
		return errors.New("model scorer already initialized")
	}
	s.logger.Info("model scorer ready",
		slog.String("model_id", h.modelID),
		slog.Int("max_tokens", h.maxTokens),
	)
	return nil
}

// Ready reports whether a model has been installed.
func (s *ModelScorer) Ready() bool {
	return s.handle.Load() != nil
}

// Name returns the strategy name.
func (s *ModelScorer) Name() string {
	return StrategyModel
}

// Score tokenizes text, runs the classifier and turns its logits into a distribution.
// The risk score is always the mass assigned to HIGH. Any failure yields no result.
func (s *ModelScorer) Score(ctx context.Context, text string) (result model.ClassificationResult, err error) {
	h := s.handle.Load()
	if h == nil {
		return model.ClassificationResult{}, fmt.Errorf("%w: no model loaded", ErrNotReady)
	}
	if err := ctx.Err(); err != nil {
		return model.ClassificationResult{}, fmt.Errorf("%w: %w", ErrPrediction, err)
	}

	// A panic inside the runtime must not take the process down.
	defer func() {
		if r := recover(); r != nil {
			result = model.ClassificationResult{}
			err = fmt.Errorf("%w: inference panicked: %v", ErrPrediction, r)
		}
	}()

	enc, err := h.tokenizer.Encode(text, h.maxTokens)
	if err != nil {
		return model.ClassificationResult{}, fmt.Errorf("%w: tokenize: %w", ErrPrediction, err)
	}

	logits, err := h.classifier.Logits(ctx, enc)
	if err != nil {
		return model.ClassificationResult{}, fmt.Errorf("%w: inference: %w", ErrPrediction, err)
	}
	if len(logits) != valueobject.LabelCount {
		return model.ClassificationResult{}, fmt.Errorf("%w: expected %d logits, got %d",
			ErrPrediction, valueobject.LabelCount, len(logits))
	}

	probs := Softmax(logits)
	for _, p := range probs {
		if math.IsNaN(p) {
			return model.ClassificationResult{}, fmt.Errorf("%w: non-finite logits %v", ErrPrediction, logits)
		}
	}

	dist, err := valueobject.RiskDistributionFromSlice(probs)
	if err != nil {
		return model.ClassificationResult{}, fmt.Errorf("%w: %w", ErrPrediction, err)
	}

	if err := ctx.Err(); err != nil {
		return model.ClassificationResult{}, fmt.Errorf("%w: %w", ErrPrediction, err)
	}

	return model.NewClassificationResult(
		dist,
		dist.Argmax(),
		dist.Probability(valueobject.RiskLabelHigh),
		StrategyModel,
		nil,
	), nil
}
