package port

import (
	"context"
)

// Encoding is a tokenized text ready for a sequence classifier (batch size 1).
// InputIDs and AttentionMask always have the same length.
type Encoding struct {
	InputIDs      []int64
	AttentionMask []int64
}

// Len returns the sequence length.
func (e Encoding) Len() int {
	return len(e.InputIDs)
}

// Tokenizer turns raw text into model input, truncating to at most maxTokens positions.
type Tokenizer interface {
	Encode(text string, maxTokens int) (Encoding, error)
}

// SequenceClassifier runs a pretrained classifier in inference-only mode.
// Implementations must be safe for concurrent use and return raw logits ordered
// [LOW, MEDIUM, HIGH].
type SequenceClassifier interface {
	Logits(ctx context.Context, enc Encoding) ([]float32, error)
}
