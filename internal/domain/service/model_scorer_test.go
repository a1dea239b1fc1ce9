package service_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/scamshield/internal/domain/port"
	"github.com/bibbank/scamshield/internal/domain/service"
	"github.com/bibbank/scamshield/internal/domain/valueobject"
)

// --- Mock implementations ---

type mockTokenizer struct {
	err       error
	mu        sync.Mutex
	maxTokens int
}

func (m *mockTokenizer) Encode(text string, maxTokens int) (port.Encoding, error) {
	m.mu.Lock()
	m.maxTokens = maxTokens
	m.mu.Unlock()
	if m.err != nil {
		return port.Encoding{}, m.err
	}
	// [CLS] one id per byte (truncated) [SEP]
	ids := []int64{101}
	for i := 0; i < len(text) && len(ids) < maxTokens-1; i++ {
		ids = append(ids, int64(text[i]))
	}
	ids = append(ids, 102)
	mask := make([]int64, len(ids))
	for i := range mask {
		mask[i] = 1
	}
	return port.Encoding{InputIDs: ids, AttentionMask: mask}, nil
}

type mockClassifier struct {
	err      error
	logits   []float32
	panicMsg string
	lastEnc  port.Encoding
}

func (m *mockClassifier) Logits(_ context.Context, enc port.Encoding) ([]float32, error) {
	if m.panicMsg != "" {
		panic(m.panicMsg)
	}
	m.lastEnc = enc
	if m.err != nil {
		return nil, m.err
	}
	out := make([]float32, len(m.logits))
	copy(out, m.logits)
	return out, nil
}

// --- Helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func readyModelScorer(t *testing.T, tok port.Tokenizer, clf port.SequenceClassifier, maxTokens int) *service.ModelScorer {
	t.Helper()
	h, err := service.NewModelHandle(tok, clf, "test-model", maxTokens)
	require.NoError(t, err)
	s := service.NewModelScorer(testLogger())
	require.NoError(t, s.Initialize(h))
	return s
}

// --- Tests ---

func TestModelScorer_NotReadyBeforeInitialize(t *testing.T) {
	s := service.NewModelScorer(testLogger())

	assert.False(t, s.Ready())
	r, err := s.Score(context.Background(), "anything")

	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrNotReady)
	assert.True(t, r.IsZero())
}

func TestModelScorer_Initialize(t *testing.T) {
	t.Run("nil handle is an initialization failure", func(t *testing.T) {
		s := service.NewModelScorer(testLogger())
		err := s.Initialize(nil)
		assert.ErrorIs(t, err, service.ErrInitialization)
		assert.False(t, s.Ready())
	})

	t.Run("second initialization is rejected", func(t *testing.T) {
		s := readyModelScorer(t, &mockTokenizer{}, &mockClassifier{logits: []float32{0, 0, 0}}, 0)
		h, err := service.NewModelHandle(&mockTokenizer{}, &mockClassifier{}, "other", 16)
		require.NoError(t, err)

		require.Error(t, s.Initialize(h))
		assert.True(t, s.Ready())
	})

	t.Run("handle requires tokenizer and classifier", func(t *testing.T) {
		_, err := service.NewModelHandle(nil, &mockClassifier{}, "m", 8)
		assert.ErrorIs(t, err, service.ErrInitialization)
		_, err = service.NewModelHandle(&mockTokenizer{}, nil, "m", 8)
		assert.ErrorIs(t, err, service.ErrInitialization)
	})

	t.Run("default token budget is 512", func(t *testing.T) {
		h, err := service.NewModelHandle(&mockTokenizer{}, &mockClassifier{}, "m", 0)
		require.NoError(t, err)
		assert.Equal(t, 512, h.MaxTokens())
		assert.Equal(t, "m", h.ModelID())
	})
}

func TestModelScorer_SoftmaxDistribution(t *testing.T) {
	clf := &mockClassifier{logits: []float32{0.5, 1.0, 3.0}}
	s := readyModelScorer(t, &mockTokenizer{}, clf, 0)

	r, err := s.Score(context.Background(), "Your account has been suspended")
	require.NoError(t, err)

	den := math.Exp(0.5) + math.Exp(1.0) + math.Exp(3.0)
	d := r.Distribution()
	assert.InDelta(t, math.Exp(0.5)/den, d.Probability(valueobject.RiskLabelLow), 1e-9)
	assert.InDelta(t, math.Exp(1.0)/den, d.Probability(valueobject.RiskLabelMedium), 1e-9)
	assert.InDelta(t, math.Exp(3.0)/den, d.Probability(valueobject.RiskLabelHigh), 1e-9)
	assert.InDelta(t, 1.0, r.Distribution().Sum(), 1e-9)

	assert.True(t, valueobject.RiskLabelHigh.Equal(r.PredictedLabel()))
	assert.Equal(t, r.Distribution().Probability(valueobject.RiskLabelHigh), r.RiskScore())
	assert.Equal(t, service.StrategyModel, r.Strategy())
}

func TestModelScorer_RiskScoreIsAlwaysHighMass(t *testing.T) {
	tests := []struct {
		name   string
		logits []float32
		label  valueobject.RiskLabel
	}{
		{"LOW wins", []float32{4, 1, -2}, valueobject.RiskLabelLow},
		{"MEDIUM wins", []float32{0, 2, 1}, valueobject.RiskLabelMedium},
		{"HIGH wins", []float32{-1, 0, 5}, valueobject.RiskLabelHigh},
		{"uniform ties go to LOW", []float32{1, 1, 1}, valueobject.RiskLabelLow},
		{"huge logits do not overflow", []float32{1000, 999, 998}, valueobject.RiskLabelLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := readyModelScorer(t, &mockTokenizer{}, &mockClassifier{logits: tt.logits}, 0)

			r, err := s.Score(context.Background(), "text")
			require.NoError(t, err)
			assert.True(t, tt.label.Equal(r.PredictedLabel()), "got %s", r.PredictedLabel())
			assert.Equal(t, r.Distribution().Probability(valueobject.RiskLabelHigh), r.RiskScore())
			require.NoError(t, r.Distribution().Validate())
		})
	}
}

func TestModelScorer_EmptyTextYieldsDegenerateDistribution(t *testing.T) {
	clf := &mockClassifier{logits: []float32{0.1, 0.2, 0.3}}
	s := readyModelScorer(t, &mockTokenizer{}, clf, 0)

	r, err := s.Score(context.Background(), "")

	require.NoError(t, err)
	require.NoError(t, r.Distribution().Validate())
	assert.Equal(t, []int64{101, 102}, clf.lastEnc.InputIDs)
}

func TestModelScorer_PassesTokenBudget(t *testing.T) {
	tok := &mockTokenizer{}
	clf := &mockClassifier{logits: []float32{0, 0, 0}}
	s := readyModelScorer(t, tok, clf, 8)

	_, err := s.Score(context.Background(), "a very long message that must be truncated silently")

	require.NoError(t, err)
	assert.Equal(t, 8, tok.maxTokens)
	assert.Equal(t, 8, clf.lastEnc.Len())
}

func TestModelScorer_PredictionFailures(t *testing.T) {
	tests := []struct {
		name string
		tok  *mockTokenizer
		clf  *mockClassifier
	}{
		{"tokenizer error", &mockTokenizer{err: fmt.Errorf("bad vocab")}, &mockClassifier{logits: []float32{0, 0, 0}}},
		{"inference error", &mockTokenizer{}, &mockClassifier{err: fmt.Errorf("onnx run failed")}},
		{"wrong logit count", &mockTokenizer{}, &mockClassifier{logits: []float32{0, 1}}},
		{"NaN logits", &mockTokenizer{}, &mockClassifier{logits: []float32{float32(math.NaN()), 0, 0}}},
		{"infinite logits", &mockTokenizer{}, &mockClassifier{logits: []float32{float32(math.Inf(1)), 0, 0}}},
		{"runtime panic", &mockTokenizer{}, &mockClassifier{panicMsg: "segfault in runtime"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := readyModelScorer(t, tt.tok, tt.clf, 0)

			r, err := s.Score(context.Background(), "text")

			require.Error(t, err)
			assert.ErrorIs(t, err, service.ErrPrediction)
			assert.True(t, r.IsZero())
			// The scorer keeps serving after a per-request failure.
			assert.True(t, s.Ready())
		})
	}
}

func TestModelScorer_CancelledContext(t *testing.T) {
	s := readyModelScorer(t, &mockTokenizer{}, &mockClassifier{logits: []float32{0, 0, 1}}, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Score(ctx, "text")

	assert.ErrorIs(t, err, service.ErrPrediction)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestModelScorer_Idempotent(t *testing.T) {
	s := readyModelScorer(t, &mockTokenizer{}, &mockClassifier{logits: []float32{0.3, -0.2, 0.9}}, 0)

	first, err := s.Score(context.Background(), "claim your prize")
	require.NoError(t, err)
	second, err := s.Score(context.Background(), "claim your prize")
	require.NoError(t, err)

	assert.True(t, first.PredictedLabel().Equal(second.PredictedLabel()))
	assert.True(t, first.Distribution().Equal(second.Distribution()))
	assert.Equal(t, first.RiskScore(), second.RiskScore())
}

// fixedLogitsClassifier holds no per-call state, so concurrent calls never race.
type fixedLogitsClassifier struct {
	logits []float32
	calls  atomic.Int64
}

func (c *fixedLogitsClassifier) Logits(_ context.Context, enc port.Encoding) ([]float32, error) {
	c.calls.Add(1)
	out := make([]float32, len(c.logits))
	for i, l := range c.logits {
		// Depend on the input so a mixed-up encoding would change the result.
		out[i] = l + float32(enc.Len()%7)*0.01*float32(i)
	}
	return out, nil
}

func TestModelScorer_ConcurrentScoresShareHandle(t *testing.T) {
	clf := &fixedLogitsClassifier{logits: []float32{0.2, 1.1, 2.4}}
	s := readyModelScorer(t, &mockTokenizer{}, clf, 64)
	texts := []string{"claim your prize now", "see you at dinner", "verify your bank account"}

	want := make([]float64, len(texts))
	for i, text := range texts {
		r, err := s.Score(context.Background(), text)
		require.NoError(t, err)
		want[i] = r.RiskScore()
	}

	const workers = 64
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			i := w % len(texts)
			r, err := s.Score(context.Background(), texts[i])
			if err != nil {
				errs <- err
				return
			}
			if r.RiskScore() != want[i] {
				errs <- fmt.Errorf("text %q: risk score %v, want %v", texts[i], r.RiskScore(), want[i])
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int64(workers+len(texts)), clf.calls.Load())
}

func TestModelScorer_ConcurrentInitializeHasOneWinner(t *testing.T) {
	s := service.NewModelScorer(testLogger())

	const initializers = 16
	const scorers = 32
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int64
		start     = make(chan struct{})
		scoreErrs = make(chan error, scorers)
	)

	for i := 0; i < initializers; i++ {
		h, err := service.NewModelHandle(&mockTokenizer{},
			&fixedLogitsClassifier{logits: []float32{float32(i), 0, 0}}, fmt.Sprintf("model-%d", i), 32)
		require.NoError(t, err)

		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if s.Initialize(h) == nil {
				succeeded.Add(1)
			}
		}()
	}
	for i := 0; i < scorers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := s.Score(context.Background(), "racing"); err != nil && !errors.Is(err, service.ErrNotReady) {
				scoreErrs <- err
			}
		}()
	}

	close(start)
	wg.Wait()
	close(scoreErrs)

	assert.Equal(t, int64(1), succeeded.Load())
	assert.True(t, s.Ready())
	for err := range scoreErrs {
		assert.NoError(t, err)
	}

	// The winning handle stays installed.
	first, err := s.Score(context.Background(), "after the race")
	require.NoError(t, err)
	for i := 0; i < 8; i++ {
		r, err := s.Score(context.Background(), "after the race")
		require.NoError(t, err)
		assert.True(t, first.Distribution().Equal(r.Distribution()))
	}
}

func TestSoftmax(t *testing.T) {
	assert.Nil(t, service.Softmax(nil))

	p := service.Softmax([]float32{1, 2, 3})
	require.Len(t, p, 3)
	assert.InDelta(t, 1.0, p[0]+p[1]+p[2], 1e-12)
	assert.Less(t, p[0], p[1])
	assert.Less(t, p[1], p[2])

	shifted := service.Softmax([]float32{101, 102, 103})
	for i := range p {
		assert.InDelta(t, p[i], shifted[i], 1e-9)
	}

	single := service.Softmax([]float32{-7})
	assert.Equal(t, []float64{1}, single)
}
