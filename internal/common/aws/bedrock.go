// internal/common/aws/bedrock.go
package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
)

// NewBedrockAgentClient builds the Bedrock agent-runtime client used for
// knowledge-base retrieve-and-generate calls.
func NewBedrockAgentClient(ctx context.Context, region string) (*bedrockagentruntime.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return bedrockagentruntime.NewFromConfig(cfg), nil
}
