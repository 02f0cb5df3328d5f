package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestClassifier() *LexiconClassifier {
	return NewLexiconClassifier(
		[]string{"territory", "revenue realization", "partner performance", "migration status", "engagement id"},
		[]string{"explain", "how to", "what is", "best practices", "challenges"},
	)
}

func TestClassify(t *testing.T) {
	c := newTestClassifier()

	tests := []struct {
		name     string
		question string
		expected Decision
	}{
		{
			name:     "structured phrases only",
			question: "Show migration status by customer territory",
			expected: DecisionStructured,
		},
		{
			name:     "semantic phrases only",
			question: "Explain the best practices for cloud migration",
			expected: DecisionSemantic,
		},
		{
			name:     "empty question",
			question: "",
			expected: DecisionBoth,
		},
		{
			name:     "no phrases at all",
			question: "Hello there",
			expected: DecisionBoth,
		},
		{
			name:     "equal scores",
			question: "Explain the territory assignments",
			expected: DecisionBoth,
		},
		{
			name:     "matching is case insensitive",
			question: "EXPLAIN MIGRATION CHALLENGES",
			expected: DecisionSemantic,
		},
		{
			name:     "repeated phrase counts once",
			question: "territory territory territory, explain and what is this",
			expected: DecisionSemantic,
		},
		{
			name:     "structured outweighs semantic",
			question: "What is the revenue realization and partner performance by territory?",
			expected: DecisionStructured,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.Classify(tt.question))
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := newTestClassifier()
	question := "Explain the territory performance"

	first := c.Classify(question)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, c.Classify(question))
	}
}

func TestClassify_PhraseListOrderIndependent(t *testing.T) {
	forward := NewLexiconClassifier(
		[]string{"territory", "migration status"},
		[]string{"explain", "best practices"},
	)
	reversed := NewLexiconClassifier(
		[]string{"migration status", "territory"},
		[]string{"best practices", "explain"},
	)

	questions := []string{
		"Show migration status",
		"Explain best practices",
		"territory and explain",
		"",
	}
	for _, q := range questions {
		assert.Equal(t, forward.Classify(q), reversed.Classify(q), "question: %q", q)
	}
}
