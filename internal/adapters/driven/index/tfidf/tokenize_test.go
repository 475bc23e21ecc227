package tfidf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty", "", []string{}},
		{"lower-cases", "Hello World", []string{"hello", "world"}},
		{"strips punctuation", "what's up? (v2.0)", []string{"what", "up", "v2"}},
		{"drops single runes", "a b cd 7", []string{"cd"}},
		{"folds plurals", "refunds days bags", []string{"refund", "day", "bag"}},
		{"keeps double s", "business class", []string{"business", "class"}},
		{"keeps short words", "bus is", []string{"bus", "is"}},
		{"keeps CJK runs", "退款 政策", []string{"退款", "政策"}},
		{"drops other scripts", "café naïve", []string{"caf", "na", "ve"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if len(tt.expected) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestTermFrequency(t *testing.T) {
	tf, total := termFrequency([]string{"refund", "policy", "refund"})
	assert.Equal(t, 3, total)
	assert.Equal(t, map[string]int{"refund": 2, "policy": 1}, tf)
}
