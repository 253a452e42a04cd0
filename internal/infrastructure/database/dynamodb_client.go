package database

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// AWSSettings selects the region and the optional local endpoints.
//
// Local stacks (DynamoDB Local, MinIO, LocalStack) do not validate credentials,
// but the SDK requires them; AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY default
// to "local" when an endpoint override is set.
type AWSSettings struct {
	Region           string
	DynamoDBEndpoint string
	S3Endpoint       string
}

func NewAWSConfig(ctx context.Context, s AWSSettings) (aws.Config, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(s.Region),
	}
	if s.DynamoDBEndpoint != "" || s.S3Endpoint != "" {
		creds := credentials.NewStaticCredentialsProvider(
			getenvDefault("AWS_ACCESS_KEY_ID", "local"),
			getenvDefault("AWS_SECRET_ACCESS_KEY", "local"),
			"",
		)
		loadOpts = append(loadOpts, config.WithCredentialsProvider(creds))
	}
	return config.LoadDefaultConfig(ctx, loadOpts...)
}

// ConnectDynamoDB creates a DynamoDB client, pointed at DynamoDBEndpoint when set.
func ConnectDynamoDB(cfg aws.Config, s AWSSettings) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if s.DynamoDBEndpoint != "" {
			log.Printf("[database][dynamodb] using endpoint=%s", s.DynamoDBEndpoint)
			o.BaseEndpoint = aws.String(s.DynamoDBEndpoint)
		}
	})
}

// ConnectS3 creates an S3 client. Custom endpoints use path-style addressing.
func ConnectS3(cfg aws.Config, s AWSSettings) *s3.Client {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if s.S3Endpoint != "" {
			log.Printf("[database][s3] using endpoint=%s", s.S3Endpoint)
			o.BaseEndpoint = aws.String(s.S3Endpoint)
			o.UsePathStyle = true
		}
	})
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
