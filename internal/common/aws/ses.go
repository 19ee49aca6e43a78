// internal/common/aws/ses.go
package aws

import (
	"context"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
)

// LoadConfig resolves credentials from the default chain for region.
func LoadConfig(ctx context.Context, region string) (sdkaws.Config, error) {
	return config.LoadDefaultConfig(ctx, config.WithRegion(region))
}

// NewSESClient returns an SES client for region. The client satisfies
// notify.SESAPI.
func NewSESClient(ctx context.Context, region string) (*ses.Client, error) {
	cfg, err := LoadConfig(ctx, region)
	if err != nil {
		return nil, err
	}
	return ses.NewFromConfig(cfg), nil
}
