package backend

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/qbusiness"
	qbtypes "github.com/aws/aws-sdk-go-v2/service/qbusiness/types"

	apperrors "migration-assistant/internal/common/errors"
	"migration-assistant/internal/common/logger"
)

// StructuredID is the cache/metrics identifier of the structured backend.
const StructuredID = "structured"

// ChatSyncAPI is the slice of the Q Business client the adapter needs.
type ChatSyncAPI interface {
	ChatSync(ctx context.Context, params *qbusiness.ChatSyncInput, optFns ...func(*qbusiness.Options)) (*qbusiness.ChatSyncOutput, error)
}

// StructuredBackend answers questions from the business-data assistant via
// Q Business chat-sync. It forwards the session's conversation token when
// present and surfaces the one the service returns, so a later call can
// resume the same multi-turn context.
type StructuredBackend struct {
	api           ChatSyncAPI
	applicationID string
	logger        logger.Logger
}

func NewStructuredBackend(api ChatSyncAPI, applicationID string, log logger.Logger) *StructuredBackend {
	return &StructuredBackend{
		api:           api,
		applicationID: applicationID,
		logger: log.With(map[string]interface{}{
			"backend": StructuredID,
		}),
	}
}

func (b *StructuredBackend) ID() string {
	return StructuredID
}

func (b *StructuredBackend) Ask(ctx context.Context, question, conversationToken string) AnswerResult {
	input := &qbusiness.ChatSyncInput{
		ApplicationId: aws.String(b.applicationID),
		UserMessage:   aws.String(question),
	}
	if conversationToken != "" {
		input.ConversationId = aws.String(conversationToken)
	}

	out, err := b.api.ChatSync(ctx, input)
	if err != nil {
		safe := apperrors.NewStructuredBackendUnavailableError(err)
		b.logger.WithError(err).Error("chat sync call failed", map[string]interface{}{
			"errorCode": string(safe.Code),
		})
		return AnswerResult{
			Source: SourceStructured,
			Text:   safe.Message,
			Failed: true,
		}
	}

	result := AnswerResult{
		Source:            SourceStructured,
		Text:              aws.ToString(out.SystemMessage),
		Citations:         citationsFromQBusiness(out.SourceAttributions),
		ConversationToken: aws.ToString(out.ConversationId),
	}
	if result.Text == "" {
		result.Text = "No response"
	}

	b.logger.Info("chat sync answered", map[string]interface{}{
		"citationCount":   len(result.Citations),
		"hasConversation": result.ConversationToken != "",
	})

	return result
}

func citationsFromQBusiness(attributions []*qbtypes.SourceAttribution) []Citation {
	var out []Citation
	for _, a := range attributions {
		if a == nil {
			continue
		}
		citation := Citation{
			Title:   aws.ToString(a.Title),
			URI:     aws.ToString(a.Url),
			Snippet: aws.ToString(a.Snippet),
		}
		if citation.Title == "" && citation.URI == "" && citation.Snippet == "" {
			continue
		}
		out = append(out, citation)
	}
	return out
}
