package backend

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"

	apperrors "migration-assistant/internal/common/errors"
	"migration-assistant/internal/common/logger"
)

// SemanticID is the cache/metrics identifier of the semantic backend.
const SemanticID = "semantic"

// RetrieveAndGenerateAPI is the slice of the Bedrock agent-runtime client
// the adapter needs.
type RetrieveAndGenerateAPI interface {
	RetrieveAndGenerate(ctx context.Context, params *bedrockagentruntime.RetrieveAndGenerateInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.RetrieveAndGenerateOutput, error)
}

// SemanticConfig carries the knowledge-base identifiers for one deployment.
type SemanticConfig struct {
	KnowledgeBaseID string
	ModelARN        string
	NumberOfResults int32
	SearchMode      string // SEMANTIC or HYBRID; empty keeps the KB default
}

// SemanticBackend answers questions from the document index via Bedrock
// knowledge-base retrieve-and-generate. It is stateless per call and never
// receives a conversation token.
type SemanticBackend struct {
	api    RetrieveAndGenerateAPI
	config SemanticConfig
	logger logger.Logger
}

func NewSemanticBackend(api RetrieveAndGenerateAPI, config SemanticConfig, log logger.Logger) *SemanticBackend {
	return &SemanticBackend{
		api:    api,
		config: config,
		logger: log.With(map[string]interface{}{
			"backend": SemanticID,
		}),
	}
}

func (b *SemanticBackend) ID() string {
	return SemanticID
}

func (b *SemanticBackend) Ask(ctx context.Context, question, _ string) AnswerResult {
	vectorSearch := &brtypes.KnowledgeBaseVectorSearchConfiguration{
		NumberOfResults: aws.Int32(b.config.NumberOfResults),
	}
	if b.config.SearchMode != "" {
		vectorSearch.OverrideSearchType = brtypes.SearchType(b.config.SearchMode)
	}

	out, err := b.api.RetrieveAndGenerate(ctx, &bedrockagentruntime.RetrieveAndGenerateInput{
		Input: &brtypes.RetrieveAndGenerateInput{
			Text: aws.String(question),
		},
		RetrieveAndGenerateConfiguration: &brtypes.RetrieveAndGenerateConfiguration{
			Type: brtypes.RetrieveAndGenerateTypeKnowledgeBase,
			KnowledgeBaseConfiguration: &brtypes.KnowledgeBaseRetrieveAndGenerateConfiguration{
				KnowledgeBaseId:        aws.String(b.config.KnowledgeBaseID),
				ModelArn:               aws.String(b.config.ModelARN),
				RetrievalConfiguration: &brtypes.KnowledgeBaseRetrievalConfiguration{VectorSearchConfiguration: vectorSearch},
			},
		},
	})
	if err != nil {
		safe := apperrors.NewSemanticBackendUnavailableError(err)
		b.logger.WithError(err).Error("knowledge base call failed", map[string]interface{}{
			"errorCode": string(safe.Code),
		})
		return AnswerResult{
			Source: SourceSemantic,
			Text:   safe.Message,
			Failed: true,
		}
	}

	result := AnswerResult{
		Source:    SourceSemantic,
		Citations: citationsFromBedrock(out.Citations),
	}
	if out.Output != nil {
		result.Text = aws.ToString(out.Output.Text)
	}
	if result.Text == "" {
		result.Text = "No response"
	}

	b.logger.Info("knowledge base answered", map[string]interface{}{
		"citationCount": len(result.Citations),
	})

	return result
}

func citationsFromBedrock(citations []brtypes.Citation) []Citation {
	var out []Citation
	for _, c := range citations {
		for _, ref := range c.RetrievedReferences {
			citation := Citation{}
			if ref.Content != nil {
				citation.Snippet = aws.ToString(ref.Content.Text)
			}
			if ref.Location != nil && ref.Location.S3Location != nil {
				citation.URI = aws.ToString(ref.Location.S3Location.Uri)
				citation.Title = citation.URI
			}
			if citation.Snippet == "" && citation.URI == "" {
				continue
			}
			out = append(out, citation)
		}
	}
	return out
}
