package service

import "strings"

// NormalizedText is the lowercased text plus its whitespace-separated tokens.
// Text keeps the original whitespace and punctuation, so indicator matching never
// joins words across line breaks or repeated spaces.
type NormalizedText struct {
	Text   string
	Tokens []string
}

// Normalize lowercases text and splits it into word tokens.
func Normalize(text string) NormalizedText {
	lower := strings.ToLower(text)
	return NormalizedText{
		Text:   lower,
		Tokens: strings.Fields(lower),
	}
}

// WordCount returns the number of whitespace-separated tokens.
func (n NormalizedText) WordCount() int {
	return len(n.Tokens)
}

// DensityBase returns the word count floored at 1, safe to divide by.
func (n NormalizedText) DensityBase() int {
	return max(len(n.Tokens), 1)
}
