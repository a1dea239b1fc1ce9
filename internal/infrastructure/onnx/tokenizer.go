package onnx

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"

	"github.com/bibbank/scamshield/internal/domain/port"
)

const (
	clsToken = "[CLS]"
	sepToken = "[SEP]"
	padToken = "[PAD]"
	unkToken = "[UNK]"

	continuationPrefix = "##"
	maxCharsPerWord    = 100
)

// WordPieceTokenizer implements the BERT uncased tokenizer: lowercasing, whitespace and
// punctuation splitting, then greedy longest-match-first WordPiece.
// It holds no mutable state and is safe for concurrent use.
type WordPieceTokenizer struct {
	vocab    map[string]int64
	clsID    int64
	sepID    int64
	padID    int64
	unkID    int64
	padToMax bool
}

// TokenizerOption configures a WordPieceTokenizer.
type TokenizerOption func(*WordPieceTokenizer)

// WithPadToMax pads every encoding to the full token budget. Models exported with a
// static sequence dimension need this.
func WithPadToMax() TokenizerOption {
	return func(t *WordPieceTokenizer) { t.padToMax = true }
}

// LoadWordPieceTokenizer builds the tokenizer from a BERT vocab.txt (one token per line,
// id = line number).
func LoadWordPieceTokenizer(path string, opts ...TokenizerOption) (*WordPieceTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab: %w", err)
	}
	defer f.Close()

	vocab := make(map[string]int64)
	sc := bufio.NewScanner(f)
	var idx int64
	for sc.Scan() {
		token := strings.TrimRight(sc.Text(), "\r")
		if token != "" {
			vocab[token] = idx
		}
		idx++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan vocab: %w", err)
	}

	return NewWordPieceTokenizer(vocab, opts...)
}

// NewWordPieceTokenizer builds a tokenizer from an in-memory vocabulary. The four BERT
// special tokens must be present.
func NewWordPieceTokenizer(vocab map[string]int64, opts ...TokenizerOption) (*WordPieceTokenizer, error) {
	ids := make(map[string]int64, 4)
	for _, special := range []string{clsToken, sepToken, padToken, unkToken} {
		id, ok := vocab[special]
		if !ok {
			return nil, fmt.Errorf("vocab missing special token %s", special)
		}
		ids[special] = id
	}

	t := &WordPieceTokenizer{
		vocab: vocab,
		clsID: ids[clsToken],
		sepID: ids[sepToken],
		padID: ids[padToken],
		unkID: ids[unkToken],
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// VocabSize returns the number of known tokens.
func (t *WordPieceTokenizer) VocabSize() int {
	return len(t.vocab)
}

// Encode produces [CLS] pieces... [SEP] truncated to maxTokens positions. Truncation is
// silent. Empty text yields [CLS][SEP].
func (t *WordPieceTokenizer) Encode(text string, maxTokens int) (port.Encoding, error) {
	if maxTokens < 2 {
		return port.Encoding{}, fmt.Errorf("token budget %d too small for [CLS] and [SEP]", maxTokens)
	}

	budget := maxTokens - 2
	ids := make([]int64, 0, min(maxTokens, len(text)+2))
	ids = append(ids, t.clsID)

	for _, word := range basicTokenize(text) {
		if len(ids)-1 >= budget {
			break
		}
		for _, id := range t.wordPiece(word) {
			if len(ids)-1 >= budget {
				break
			}
			ids = append(ids, id)
		}
	}
	ids = append(ids, t.sepID)

	mask := make([]int64, len(ids), maxTokens)
	for i := range mask {
		mask[i] = 1
	}

	if t.padToMax {
		for len(ids) < maxTokens {
			ids = append(ids, t.padID)
			mask = append(mask, 0)
		}
	}

	return port.Encoding{InputIDs: ids, AttentionMask: mask}, nil
}

func (t *WordPieceTokenizer) wordPiece(word string) []int64 {
	if len([]rune(word)) > maxCharsPerWord {
		return []int64{t.unkID}
	}
	if id, ok := t.vocab[word]; ok {
		return []int64{id}
	}

	var pieces []int64
	start := 0
	for start < len(word) {
		end := len(word)
		found := false
		for end > start {
			sub := word[start:end]
			if start > 0 {
				sub = continuationPrefix + sub
			}
			if id, ok := t.vocab[sub]; ok {
				pieces = append(pieces, id)
				found = true
				break
			}
			end--
		}
		if !found {
			return []int64{t.unkID}
		}
		start = end
	}
	return pieces
}

// basicTokenize lowercases text, drops control characters, and splits on whitespace and
// around every punctuation rune.
func basicTokenize(text string) []string {
	var (
		words []string
		cur   strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}

	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsSpace(r):
			flush()
		case r == 0 || r == unicode.ReplacementChar || unicode.IsControl(r):
			continue
		case isPunct(r):
			flush()
			words = append(words, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return words
}

// isPunct treats every non-alphanumeric ASCII symbol as punctuation, like BERT does.
func isPunct(r rune) bool {
	if (r >= 33 && r <= 47) || (r >= 58 && r <= 64) || (r >= 91 && r <= 96) || (r >= 123 && r <= 126) {
		return true
	}
	return unicode.IsPunct(r)
}
