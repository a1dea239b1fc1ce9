package service_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/scamshield/internal/domain/service"
	"github.com/bibbank/scamshield/internal/domain/valueobject"
)

var (
	lowDist    = valueobject.NewRiskDistribution(0.70, 0.25, 0.05)
	mediumDist = valueobject.NewRiskDistribution(0.20, 0.60, 0.20)
	highDist   = valueobject.NewRiskDistribution(0.05, 0.15, 0.80)
)

func fixedRandom(v float64) func() float64 {
	return func() float64 { return v }
}

func TestLexicalScorer_AppointmentReminderIsLow(t *testing.T) {
	scorer := service.NewLexicalScorer()

	r, err := scorer.Score(context.Background(), "Hello, this is a reminder about your upcoming appointment.")

	require.NoError(t, err)
	assert.True(t, valueobject.RiskLabelLow.Equal(r.PredictedLabel()))
	assert.True(t, lowDist.Equal(r.Distribution()))
	assert.GreaterOrEqual(t, r.RiskScore(), 0.1)
	assert.Less(t, r.RiskScore(), 0.3)
	assert.Empty(t, r.Signals())
	assert.Equal(t, service.StrategyLexical, r.Strategy())
}

func TestLexicalScorer_AccountSuspensionIsHigh(t *testing.T) {
	scorer := service.NewLexicalScorer()

	r, err := scorer.Score(context.Background(), "Your account has been suspended. Verify immediately!")

	require.NoError(t, err)
	assert.True(t, valueobject.RiskLabelHigh.Equal(r.PredictedLabel()))
	assert.True(t, highDist.Equal(r.Distribution()))
	// 4 indicators in 7 words: min(0.9, 0.3 + 4/7*2) = 0.9
	assert.InDelta(t, 0.9, r.RiskScore(), 1e-9)
	assert.ElementsMatch(t, []string{"account", "suspended", "verify", "immediately"}, r.Signals())
}

func TestLexicalScorer_EmptyTextIsLow(t *testing.T) {
	scorer := service.NewLexicalScorer(service.WithRandomSource(fixedRandom(0.5)))

	r, err := scorer.Score(context.Background(), "")

	require.NoError(t, err)
	assert.True(t, valueobject.RiskLabelLow.Equal(r.PredictedLabel()))
	assert.True(t, lowDist.Equal(r.Distribution()))
	assert.InDelta(t, 0.2, r.RiskScore(), 1e-9)
}

func TestLexicalScorer_Rules(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		expectedLabel valueobject.RiskLabel
		expectedDist  valueobject.RiskDistribution
		expectedScore float64
	}{
		{
			name:          "single indicator in a short text is HIGH by density",
			text:          "urgent call me",
			expectedLabel: valueobject.RiskLabelHigh,
			expectedDist:  highDist,
			expectedScore: 0.9, // density 1/3
		},
		{
			name:          "single indicator in a long text is MEDIUM by count",
			text:          "urgent " + strings.Repeat("alpha ", 29),
			expectedLabel: valueobject.RiskLabelMedium,
			expectedDist:  mediumDist,
			expectedScore: 0.3, // 0.2 + 1/30*3
		},
		{
			name:          "three indicators in a long text is HIGH by count",
			text:          "urgent prize password " + strings.Repeat("alpha ", 97),
			expectedLabel: valueobject.RiskLabelHigh,
			expectedDist:  highDist,
			expectedScore: 0.36, // 0.3 + 3/100*2
		},
		{
			name:          "overlapping indicators both count",
			text:          "please verify identity " + strings.Repeat("alpha ", 37),
			expectedLabel: valueobject.RiskLabelMedium,
			expectedDist:  mediumDist,
			expectedScore: 0.35, // "verify" + "verify identity" = 2 in 40 words
		},
		{
			name:          "punctuation-adjacent indicator still matches",
			text:          "(PASSWORD) " + strings.Repeat("alpha ", 49),
			expectedLabel: valueobject.RiskLabelMedium,
			expectedDist:  mediumDist,
			expectedScore: 0.26, // 0.2 + 1/50*3
		},
		{
			name:          "repeated indicator counts once",
			text:          "scam scam scam " + strings.Repeat("alpha ", 47),
			expectedLabel: valueobject.RiskLabelMedium,
			expectedDist:  mediumDist,
			expectedScore: 0.26, // 1 distinct indicator in 50 words
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := service.NewLexicalScorer()
			r, err := scorer.Score(context.Background(), tt.text)

			require.NoError(t, err)
			assert.True(t, tt.expectedLabel.Equal(r.PredictedLabel()), "got %s", r.PredictedLabel())
			assert.True(t, tt.expectedDist.Equal(r.Distribution()))
			assert.InDelta(t, tt.expectedScore, r.RiskScore(), 1e-9)
		})
	}
}

func TestLexicalScorer_IndicatorsDoNotSpanWhitespaceRuns(t *testing.T) {
	filler := strings.Repeat("alpha ", 28)
	tests := []struct {
		name string
		sep  string
	}{
		{"newline", "\n"},
		{"double space", "  "},
		{"tab", "\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scorer := service.NewLexicalScorer()
			text := filler + "bank" + tt.sep + "account verify"

			ev := scorer.Evaluate(text)
			assert.ElementsMatch(t, []string{"account", "verify"}, ev.Matched)
			assert.Equal(t, 31, ev.WordCount)

			r, err := scorer.Score(context.Background(), text)
			require.NoError(t, err)
			assert.True(t, valueobject.RiskLabelMedium.Equal(r.PredictedLabel()), "got %s", r.PredictedLabel())
			assert.InDelta(t, 0.2+2.0/31*3, r.RiskScore(), 1e-9)
		})
	}

	ev := service.NewLexicalScorer().Evaluate(filler + "bank account verify")
	assert.Contains(t, ev.Matched, "bank account")
}

func TestLexicalScorer_DistributionInvariants(t *testing.T) {
	scorer := service.NewLexicalScorer()
	texts := []string{
		"",
		"hi",
		"Congratulations, you WON a prize! Click here to claim.",
		"Security alert: your login was locked. Unlock with your password.",
		"lunch at noon?",
		"urgent " + strings.Repeat("alpha ", 40),
	}

	for _, text := range texts {
		r, err := scorer.Score(context.Background(), text)
		require.NoError(t, err)

		assert.Equal(t, 1.0, r.Distribution().Sum(), "text %q", text)
		assert.True(t, r.Distribution().Argmax().Equal(r.PredictedLabel()), "text %q", text)
		assert.GreaterOrEqual(t, r.RiskScore(), 0.0)
		assert.LessOrEqual(t, r.RiskScore(), 1.0)
	}
}

func TestLexicalScorer_MonotonicInKeywordCount(t *testing.T) {
	const words = 40
	keywords := []string{"urgent", "prize", "password", "scam", "fraud", "locked", "claim", "security"}
	scorer := service.NewLexicalScorer(service.WithRandomSource(fixedRandom(0)))

	prev := -1.0
	for k := 0; k <= len(keywords); k++ {
		parts := append([]string{}, keywords[:k]...)
		for len(parts) < words {
			parts = append(parts, "alpha")
		}

		ev := scorer.Evaluate(strings.Join(parts, " "))
		require.Equal(t, k, ev.FraudCount)
		require.Equal(t, words, ev.WordCount)

		r, err := scorer.Score(context.Background(), strings.Join(parts, " "))
		require.NoError(t, err)
		assert.GreaterOrEqual(t, r.RiskScore(), prev, "score decreased at %d keywords", k)
		prev = r.RiskScore()
	}
}

func TestLexicalScorer_LowScoreRange(t *testing.T) {
	scorer := service.NewLexicalScorer()

	for i := 0; i < 500; i++ {
		r, err := scorer.Score(context.Background(), "see you at dinner")
		require.NoError(t, err)
		assert.True(t, valueobject.RiskLabelLow.Equal(r.PredictedLabel()))
		assert.GreaterOrEqual(t, r.RiskScore(), 0.1)
		assert.Less(t, r.RiskScore(), 0.3)
	}
}

func TestLexicalScorer_DeterministicLabelAndDistribution(t *testing.T) {
	scorer := service.NewLexicalScorer()
	text := "Your bank account is locked, login now"

	first, err := scorer.Score(context.Background(), text)
	require.NoError(t, err)
	second, err := scorer.Score(context.Background(), text)
	require.NoError(t, err)

	assert.True(t, first.PredictedLabel().Equal(second.PredictedLabel()))
	assert.True(t, first.Distribution().Equal(second.Distribution()))
	assert.Equal(t, first.RiskScore(), second.RiskScore())
}

func TestLexicalScorer_ConcurrentUse(t *testing.T) {
	scorer := service.NewLexicalScorer()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := scorer.Score(context.Background(), "meeting notes attached")
			assert.NoError(t, err)
			assert.True(t, valueobject.RiskLabelLow.Equal(r.PredictedLabel()))
		}()
	}
	wg.Wait()
}

func TestLexicalScorer_ReadyAndName(t *testing.T) {
	scorer := service.NewLexicalScorer()
	assert.True(t, scorer.Ready())
	assert.Equal(t, "lexical", scorer.Name())
}

func TestIndicators(t *testing.T) {
	ind := service.Indicators()
	assert.Len(t, ind, 24)

	ind[0] = "changed"
	assert.NotEqual(t, "changed", service.Indicators()[0])
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		text      string
		words     int
		densityAt int
	}{
		{"empty", "", "", 0, 1},
		{"whitespace only", " \t\n ", "", 0, 1},
		{"lowercases and keeps whitespace", "  Click\tHERE\n\nnow ", "  click\there\n\nnow ", 3, 3},
		{"keeps punctuation", "Verify, NOW!", "verify, now!", 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := service.Normalize(tt.input)
			assert.Equal(t, tt.text, n.Text)
			assert.Equal(t, tt.words, n.WordCount())
			assert.Equal(t, tt.densityAt, n.DensityBase())
		})
	}
}
