package orchestrator

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"migration-assistant/internal/assistant/backend"
	"migration-assistant/internal/assistant/cache"
	"migration-assistant/internal/assistant/router"
	"migration-assistant/internal/assistant/session"
	apperrors "migration-assistant/internal/common/errors"
	"migration-assistant/internal/common/logger"
	"migration-assistant/internal/common/observability"
)

// fakeBackend records every call so tests can assert on token flow and
// call counts.
type fakeBackend struct {
	id     string
	source backend.Source
	answer backend.AnswerResult
	fail   bool

	mu     sync.Mutex
	calls  int
	tokens []string
}

func (f *fakeBackend) ID() string { return f.id }

func (f *fakeBackend) Ask(ctx context.Context, question, token string) backend.AnswerResult {
	f.mu.Lock()
	f.calls++
	f.tokens = append(f.tokens, token)
	f.mu.Unlock()

	if f.fail {
		return backend.AnswerResult{Source: f.source, Text: "The backend is currently unavailable.", Failed: true}
	}
	result := f.answer
	result.Source = f.source
	return result
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeBackend) seenTokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.tokens...)
}

func newStructuredFake() *fakeBackend {
	return &fakeBackend{
		id:     backend.StructuredID,
		source: backend.SourceStructured,
		answer: backend.AnswerResult{Text: "structured answer", ConversationToken: "conv-1"},
	}
}

func newSemanticFake() *fakeBackend {
	return &fakeBackend{
		id:     backend.SemanticID,
		source: backend.SourceSemantic,
		answer: backend.AnswerResult{Text: "semantic answer"},
	}
}

func defaultTestConfig() Config {
	return Config{
		ListingVerbs:           []string{"show", "list", "compare"},
		MaxCitations:           3,
		MaxQuestionLength:      2000,
		CarryConversationToken: true,
	}
}

func newTestOrchestrator(t *testing.T, structured, semantic backend.Backend, cfg Config) *Orchestrator {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	classifier := router.NewLexiconClassifier(
		[]string{"territory", "migration status", "revenue realization", "partner performance"},
		[]string{"explain", "best practices", "what is", "challenges"},
	)

	answerCache := cache.New(client, "assistant:answer", 10*time.Minute, logger.NewNoOpLogger())

	return New(classifier, structured, semantic, answerCache, session.NewStore(),
		cfg, &observability.Observability{}, logger.NewTestLogger(t))
}

func TestAnswer_RoutesToSingleBackend(t *testing.T) {
	structured := newStructuredFake()
	semantic := newSemanticFake()
	o := newTestOrchestrator(t, structured, semantic, defaultTestConfig())

	result, err := o.Answer(context.Background(), "s1", "migration status by territory")
	require.NoError(t, err)

	assert.Equal(t, router.DecisionStructured, result.Decision)
	require.Len(t, result.Sections, 1)
	assert.Equal(t, backend.SourceStructured, result.Sections[0].Source)
	assert.Equal(t, "structured answer", result.Sections[0].Text)
	assert.Equal(t, 1, structured.callCount())
	assert.Equal(t, 0, semantic.callCount())
}

func TestAnswer_BothBackendsQueried(t *testing.T) {
	structured := newStructuredFake()
	semantic := newSemanticFake()
	o := newTestOrchestrator(t, structured, semantic, defaultTestConfig())

	result, err := o.Answer(context.Background(), "s1", "good morning")
	require.NoError(t, err)

	assert.Equal(t, router.DecisionBoth, result.Decision)
	require.Len(t, result.Sections, 2)
	// Attribution is preserved and stable: structured first, semantic second.
	assert.Equal(t, backend.SourceStructured, result.Sections[0].Source)
	assert.Equal(t, backend.SourceSemantic, result.Sections[1].Source)
	assert.Equal(t, 1, structured.callCount())
	assert.Equal(t, 1, semantic.callCount())
}

func TestAnswer_PartialSuccessWhenOneBackendFails(t *testing.T) {
	structured := newStructuredFake()
	structured.fail = true
	semantic := newSemanticFake()
	o := newTestOrchestrator(t, structured, semantic, defaultTestConfig())

	result, err := o.Answer(context.Background(), "s1", "good morning")
	require.NoError(t, err)

	require.Len(t, result.Sections, 2)
	assert.True(t, result.Sections[0].Failed)
	assert.NotEmpty(t, result.Sections[0].Text)
	assert.False(t, result.Sections[1].Failed)
	assert.Equal(t, "semantic answer", result.Sections[1].Text)
}

func TestAnswer_ConversationTokenRoundTrip(t *testing.T) {
	structured := newStructuredFake()
	semantic := newSemanticFake()
	o := newTestOrchestrator(t, structured, semantic, defaultTestConfig())

	_, err := o.Answer(context.Background(), "s1", "migration status overview report")
	require.NoError(t, err)

	// A different question in the same session carries the stored token.
	_, err = o.Answer(context.Background(), "s1", "revenue realization by territory")
	require.NoError(t, err)

	tokens := structured.seenTokens()
	require.Len(t, tokens, 2)
	assert.Empty(t, tokens[0])
	assert.Equal(t, "conv-1", tokens[1])
}

func TestAnswer_TokenNeverReachesSemanticBackend(t *testing.T) {
	structured := newStructuredFake()
	semantic := newSemanticFake()
	o := newTestOrchestrator(t, structured, semantic, defaultTestConfig())

	_, err := o.Answer(context.Background(), "s1", "migration status by territory")
	require.NoError(t, err)
	_, err = o.Answer(context.Background(), "s1", "explain the remaining challenges")
	require.NoError(t, err)

	for _, token := range semantic.seenTokens() {
		assert.Empty(t, token)
	}
}

func TestAnswer_TokenIsolatedPerSession(t *testing.T) {
	structured := newStructuredFake()
	semantic := newSemanticFake()
	o := newTestOrchestrator(t, structured, semantic, defaultTestConfig())

	_, err := o.Answer(context.Background(), "s1", "migration status overview report")
	require.NoError(t, err)
	_, err = o.Answer(context.Background(), "s2", "revenue realization by territory")
	require.NoError(t, err)

	tokens := structured.seenTokens()
	require.Len(t, tokens, 2)
	assert.Empty(t, tokens[0])
	assert.Empty(t, tokens[1], "a fresh session must not inherit another session's token")
}

func TestAnswer_CacheHitDoesNotShareTokenAcrossSessions(t *testing.T) {
	structured := newStructuredFake()
	semantic := newSemanticFake()
	o := newTestOrchestrator(t, structured, semantic, defaultTestConfig())

	// Session s1 populates the cache entry and its own token.
	_, err := o.Answer(context.Background(), "s1", "migration status overview report")
	require.NoError(t, err)

	// Session s2 asks the same question and is served from the cache.
	_, err = o.Answer(context.Background(), "s2", "migration status overview report")
	require.NoError(t, err)

	// s2's next question must start a fresh conversation, not resume s1's.
	_, err = o.Answer(context.Background(), "s2", "revenue realization by territory")
	require.NoError(t, err)

	tokens := structured.seenTokens()
	require.Len(t, tokens, 2)
	assert.Empty(t, tokens[1], "a cached answer must not hand one session another session's conversation token")
}

func TestAnswer_CarryTokenDisabled(t *testing.T) {
	structured := newStructuredFake()
	semantic := newSemanticFake()
	cfg := defaultTestConfig()
	cfg.CarryConversationToken = false
	o := newTestOrchestrator(t, structured, semantic, cfg)

	_, err := o.Answer(context.Background(), "s1", "migration status overview report")
	require.NoError(t, err)
	_, err = o.Answer(context.Background(), "s1", "revenue realization by territory")
	require.NoError(t, err)

	for _, token := range structured.seenTokens() {
		assert.Empty(t, token)
	}
}

func TestAnswer_CachedAnswerSkipsBackend(t *testing.T) {
	structured := newStructuredFake()
	semantic := newSemanticFake()
	o := newTestOrchestrator(t, structured, semantic, defaultTestConfig())

	_, err := o.Answer(context.Background(), "s1", "migration status by territory")
	require.NoError(t, err)
	_, err = o.Answer(context.Background(), "s1", "migration status by territory")
	require.NoError(t, err)

	assert.Equal(t, 1, structured.callCount())
}

func TestAnswer_ListingIntentExtractsTable(t *testing.T) {
	structured := newStructuredFake()
	structured.answer = backend.AnswerResult{
		Text:              "Customer | Status\nAcme | Green\nGlobex | Red",
		ConversationToken: "conv-1",
	}
	semantic := newSemanticFake()
	o := newTestOrchestrator(t, structured, semantic, defaultTestConfig())

	result, err := o.Answer(context.Background(), "s1", "show migration status by territory")
	require.NoError(t, err)

	require.Len(t, result.Sections, 1)
	table := result.Sections[0].Table
	require.NotNil(t, table)
	assert.Equal(t, []string{"Customer", "Status"}, table.Headers)
	assert.Len(t, table.Rows, 2)
	assert.Empty(t, strings.TrimSpace(result.Sections[0].Text))
}

func TestAnswer_NoListingIntentKeepsProse(t *testing.T) {
	structured := newStructuredFake()
	structured.answer = backend.AnswerResult{
		Text: "Customer | Status\nAcme | Green\nGlobex | Red",
	}
	semantic := newSemanticFake()
	o := newTestOrchestrator(t, structured, semantic, defaultTestConfig())

	result, err := o.Answer(context.Background(), "s1", "migration status by territory")
	require.NoError(t, err)

	require.Len(t, result.Sections, 1)
	assert.Nil(t, result.Sections[0].Table)
	assert.Contains(t, result.Sections[0].Text, "Acme | Green")
}

func TestAnswer_CitationsCapped(t *testing.T) {
	structured := newStructuredFake()
	structured.answer = backend.AnswerResult{
		Text: "answer",
		Citations: []backend.Citation{
			{Title: "one"}, {Title: "two"}, {Title: "three"}, {Title: "four"}, {Title: "five"},
		},
	}
	semantic := newSemanticFake()
	o := newTestOrchestrator(t, structured, semantic, defaultTestConfig())

	result, err := o.Answer(context.Background(), "s1", "migration status by territory")
	require.NoError(t, err)

	require.Len(t, result.Sections, 1)
	require.Len(t, result.Sections[0].Citations, 3)
	assert.Equal(t, "one", result.Sections[0].Citations[0].Title)
}

func TestAnswer_ValidationShortCircuits(t *testing.T) {
	structured := newStructuredFake()
	semantic := newSemanticFake()
	o := newTestOrchestrator(t, structured, semantic, defaultTestConfig())

	tests := []struct {
		name     string
		question string
	}{
		{name: "too long", question: strings.Repeat("x", 2001)},
		{name: "control characters", question: "show status\x00; drop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := o.Answer(context.Background(), "s1", tt.question)
			require.Error(t, err)
			assert.Nil(t, result)

			var stdErr *apperrors.StandardError
			require.ErrorAs(t, err, &stdErr)
			assert.Equal(t, apperrors.ErrCodeQuestionValidationFailed, stdErr.Code)
		})
	}

	// No backend was consulted for rejected input.
	assert.Equal(t, 0, structured.callCount())
	assert.Equal(t, 0, semantic.callCount())
}

func TestAnswer_EmptyQuestionRoutesBoth(t *testing.T) {
	structured := newStructuredFake()
	semantic := newSemanticFake()
	o := newTestOrchestrator(t, structured, semantic, defaultTestConfig())

	result, err := o.Answer(context.Background(), "s1", "")
	require.NoError(t, err)

	assert.Equal(t, router.DecisionBoth, result.Decision)
	assert.Len(t, result.Sections, 2)
}

func TestEndSession_DiscardsToken(t *testing.T) {
	structured := newStructuredFake()
	semantic := newSemanticFake()
	o := newTestOrchestrator(t, structured, semantic, defaultTestConfig())

	_, err := o.Answer(context.Background(), "s1", "migration status overview report")
	require.NoError(t, err)

	o.EndSession("s1")

	_, err = o.Answer(context.Background(), "s1", "revenue realization by territory")
	require.NoError(t, err)

	tokens := structured.seenTokens()
	require.Len(t, tokens, 2)
	assert.Empty(t, tokens[1])
}
