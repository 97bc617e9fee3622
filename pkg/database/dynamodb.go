package database

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

const (
	// offlineRegion and the static credentials below are what DynamoDB Local
	// and serverless-offline expect; the values are not checked.
	offlineRegion       = "localhost"
	offlineAccessKey    = "local"
	offlineSecretKey    = "local"
	defaultLocalAddress = "http://localhost:8000"
)

// DynamoConfig selects the DynamoDB endpoint.
type DynamoConfig struct {
	Region        string
	Offline       bool
	LocalEndpoint string
}

// DefaultDynamoConfig returns the hosted-service configuration for us-east-1.
func DefaultDynamoConfig() DynamoConfig {
	return DynamoConfig{
		Region:        "us-east-1",
		LocalEndpoint: defaultLocalAddress,
	}
}

// loadOptions returns the aws config options for cfg. Offline mode pins the
// region and credentials so a developer machine needs no AWS profile.
func (c DynamoConfig) loadOptions() []func(*awsconfig.LoadOptions) error {
	if c.Offline {
		return []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(offlineRegion),
			awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(offlineAccessKey, offlineSecretKey, ""),
			),
		}
	}

	var opts []func(*awsconfig.LoadOptions) error
	if c.Region != "" {
		opts = append(opts, awsconfig.WithRegion(c.Region))
	}
	return opts
}

// endpoint returns the base endpoint override, or "" for the hosted service.
func (c DynamoConfig) endpoint() string {
	if !c.Offline {
		return ""
	}
	if c.LocalEndpoint == "" {
		return defaultLocalAddress
	}
	return c.LocalEndpoint
}

// NewDynamoClient builds a DynamoDB client once per process. The client is
// safe for concurrent use and is shared by every request.
func NewDynamoClient(ctx context.Context, cfg DynamoConfig) (*dynamodb.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, cfg.loadOptions()...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := cfg.endpoint()
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}
