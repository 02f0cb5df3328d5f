// Package orchestrator composes the router, cache-wrapped backend adapters
// and the tabular extractor into one answer per question.
package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"migration-assistant/internal/assistant/backend"
	"migration-assistant/internal/assistant/cache"
	"migration-assistant/internal/assistant/router"
	"migration-assistant/internal/assistant/session"
	"migration-assistant/internal/assistant/tabular"
	apperrors "migration-assistant/internal/common/errors"
	"migration-assistant/internal/common/logger"
	"migration-assistant/internal/common/metrics"
	"migration-assistant/internal/common/observability"
)

type Config struct {
	ListingVerbs           []string
	MaxCitations           int
	MaxQuestionLength      int
	CarryConversationToken bool
}

// Section is one backend's contribution to the combined answer.
type Section struct {
	Source    backend.Source     `json:"source"`
	Text      string             `json:"text"`
	Table     *tabular.Table     `json:"table,omitempty"`
	Citations []backend.Citation `json:"citations,omitempty"`
	Failed    bool               `json:"failed,omitempty"`
}

// Result is the merged outcome of one orchestration cycle: one section per
// consulted backend, attribution preserved.
type Result struct {
	Decision router.Decision `json:"decision"`
	Sections []Section       `json:"sections"`
}

type Orchestrator struct {
	classifier router.Classifier
	structured backend.Backend
	semantic   backend.Backend
	cache      *cache.Cache
	sessions   *session.Store
	config     Config
	obs        *observability.Observability
	logger     logger.Logger
}

func New(
	classifier router.Classifier,
	structured backend.Backend,
	semantic backend.Backend,
	answerCache *cache.Cache,
	sessions *session.Store,
	config Config,
	obs *observability.Observability,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		classifier: classifier,
		structured: structured,
		semantic:   semantic,
		cache:      answerCache,
		sessions:   sessions,
		config:     config,
		obs:        obs,
		logger: log.With(map[string]interface{}{
			"component": "orchestrator",
		}),
	}
}

// Answer routes the question, consults the selected backend(s) and merges
// their replies. Validation failures short-circuit before any backend call
// and come back as a *errors.StandardError refusal. A backend failure never
// produces an error here: it arrives as a Failed section with safe text, so
// a combined dispatch keeps the healthy backend's answer.
func (o *Orchestrator) Answer(ctx context.Context, sessionID, question string) (*Result, error) {
	start := time.Now()

	if err := o.validateQuestion(question); err != nil {
		o.logger.Warn("question rejected", map[string]interface{}{
			"sessionID": sessionID,
			"reason":    err.Message,
		})
		return nil, err
	}

	decision := o.classifier.Classify(question)
	metrics.RouteDecisions.WithLabelValues(string(decision)).Inc()

	wantTable := o.listingIntent(question)

	var sections []Section
	switch decision {
	case router.DecisionStructured:
		sections = []Section{o.askStructured(ctx, sessionID, question, wantTable)}
	case router.DecisionSemantic:
		sections = []Section{o.askSemantic(ctx, question, wantTable)}
	default:
		// Both backends, independently and concurrently. The merged result
		// waits for both; there is no partial streaming.
		sections = make([]Section, 2)
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			sections[0] = o.askStructured(ctx, sessionID, question, wantTable)
		}()
		go func() {
			defer wg.Done()
			sections[1] = o.askSemantic(ctx, question, wantTable)
		}()
		wg.Wait()
	}

	status := "success"
	failed := 0
	for _, s := range sections {
		if s.Failed {
			failed++
		}
	}
	switch {
	case failed == len(sections):
		status = "failed"
	case failed > 0:
		status = "partial"
	}

	o.obs.RecordQueryProcessed(ctx, string(decision), status)
	o.obs.RecordQueryDuration(ctx, time.Since(start), string(decision))

	o.logger.Info("question answered", map[string]interface{}{
		"sessionID": sessionID,
		"decision":  string(decision),
		"status":    status,
		"durationMs": time.Since(start).Milliseconds(),
	})

	return &Result{Decision: decision, Sections: sections}, nil
}

// EndSession discards the session's conversation state.
func (o *Orchestrator) EndSession(sessionID string) {
	o.sessions.End(sessionID)
}

func (o *Orchestrator) askStructured(ctx context.Context, sessionID, question string, wantTable bool) Section {
	token := ""
	if o.config.CarryConversationToken {
		token = o.sessions.Token(sessionID)
	}

	result := o.callThroughCache(ctx, o.structured, question, token)

	if o.config.CarryConversationToken && !result.Failed && result.ConversationToken != "" {
		o.sessions.SetToken(sessionID, result.ConversationToken)
	}

	return o.section(result, wantTable)
}

func (o *Orchestrator) askSemantic(ctx context.Context, question string, wantTable bool) Section {
	// The semantic backend is stateless per call; no token is passed.
	result := o.callThroughCache(ctx, o.semantic, question, "")
	return o.section(result, wantTable)
}

func (o *Orchestrator) callThroughCache(ctx context.Context, b backend.Backend, question, token string) backend.AnswerResult {
	return o.cache.GetOrCompute(ctx, b.ID(), question, func(ctx context.Context) backend.AnswerResult {
		callStart := time.Now()
		result := b.Ask(ctx, question, token)
		metrics.BackendCallDuration.WithLabelValues(b.ID()).Observe(time.Since(callStart).Seconds())

		status := "success"
		if result.Failed {
			status = "error"
		}
		metrics.BackendCalls.WithLabelValues(b.ID(), status).Inc()

		return result
	})
}

func (o *Orchestrator) section(result backend.AnswerResult, wantTable bool) Section {
	s := Section{
		Source:    result.Source,
		Text:      result.Text,
		Citations: capCitations(result.Citations, o.config.MaxCitations),
		Failed:    result.Failed,
	}

	if wantTable && !result.Failed {
		if table, remainder := tabular.Extract(result.Text); table != nil {
			s.Table = table
			s.Text = remainder
			metrics.TablesExtracted.WithLabelValues("table").Inc()
		} else {
			metrics.TablesExtracted.WithLabelValues("prose").Inc()
		}
	}

	return s
}

// validateQuestion rejects oversized or control-character input before any
// backend is consulted. An empty question is allowed; it routes to both
// backends by the tie rule.
func (o *Orchestrator) validateQuestion(question string) *apperrors.StandardError {
	if len(question) > o.config.MaxQuestionLength {
		return apperrors.NewQuestionValidationError("Question exceeds the maximum allowed length.")
	}
	for _, r := range question {
		if r < 0x20 && r != '\n' && r != '\t' && r != '\r' {
			return apperrors.NewQuestionValidationError("Question contains disallowed characters.")
		}
	}
	return nil
}

// listingIntent reports whether the question asks for an enumeration, which
// is when tabular extraction is worth attempting.
func (o *Orchestrator) listingIntent(question string) bool {
	for _, word := range strings.Fields(strings.ToLower(question)) {
		word = strings.Trim(word, ".,;:!?")
		for _, verb := range o.config.ListingVerbs {
			if word == verb {
				return true
			}
		}
	}
	return false
}

func capCitations(citations []backend.Citation, max int) []backend.Citation {
	if max <= 0 || len(citations) <= max {
		return citations
	}
	return citations[:max]
}
