// Package router decides which answering backend(s) a question goes to.
package router

import "strings"

// Decision is the routing outcome for one question.
type Decision string

const (
	DecisionStructured Decision = "structured"
	DecisionSemantic   Decision = "semantic"
	DecisionBoth       Decision = "both"
)

// Classifier maps a raw question to a Decision. It is a pure strategy so a
// learned classifier can replace the lexicon scorer without touching the
// orchestrator.
type Classifier interface {
	Classify(question string) Decision
}

// LexiconClassifier scores a question against two fixed phrase lists.
// Score = number of distinct phrases present as substrings of the
// lower-cased question; repeated occurrences of one phrase count once.
type LexiconClassifier struct {
	structured []string
	semantic   []string
}

// NewLexiconClassifier builds a classifier from configured phrase lists.
// Phrases are normalized to lower case once, at construction.
func NewLexiconClassifier(structured, semantic []string) *LexiconClassifier {
	return &LexiconClassifier{
		structured: lowerAll(structured),
		semantic:   lowerAll(semantic),
	}
}

func (c *LexiconClassifier) Classify(question string) Decision {
	q := strings.ToLower(question)

	structuredScore := countMatches(q, c.structured)
	semanticScore := countMatches(q, c.semantic)

	switch {
	case structuredScore > semanticScore:
		return DecisionStructured
	case semanticScore > structuredScore:
		return DecisionSemantic
	default:
		// Ties, including two zero scores, consult both backends.
		return DecisionBoth
	}
}

func countMatches(question string, phrases []string) int {
	count := 0
	for _, phrase := range phrases {
		if phrase != "" && strings.Contains(question, phrase) {
			count++
		}
	}
	return count
}

func lowerAll(phrases []string) []string {
	out := make([]string, len(phrases))
	for i, p := range phrases {
		out[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return out
}
