// Package backend normalizes the two external answering services behind a
// single AnswerResult shape, so nothing above the adapters branches on
// service-specific response types.
package backend

import "context"

// Source identifies which answering service produced a result.
type Source string

const (
	SourceStructured Source = "Q Business"
	SourceSemantic   Source = "Bedrock Knowledge Base"
)

// Citation points at the evidence backing part of an answer. Order matters;
// the most relevant reference comes first.
type Citation struct {
	Title   string `json:"title,omitempty"`
	URI     string `json:"uri,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// AnswerResult is the uniform reply of one adapter call. It is immutable
// once returned. Failed results carry user-safe text, never raw errors.
type AnswerResult struct {
	Source            Source     `json:"source"`
	Text              string     `json:"text"`
	Citations         []Citation `json:"citations,omitempty"`
	ConversationToken string     `json:"conversationToken,omitempty"`
	Failed            bool       `json:"failed,omitempty"`
}

// Backend is one external answering service. Ask never returns an error:
// transport and service failures come back as a Failed AnswerResult with a
// safe message, so one broken backend cannot abort a combined dispatch.
type Backend interface {
	ID() string
	Ask(ctx context.Context, question, conversationToken string) AnswerResult
}
