package fetcher

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/krisalay/fetchcache/types"
)

var _ types.Fetcher = (*S3Fetcher)(nil)

// GetObjectAPI is the slice of the S3 client the fetcher needs.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3v2.GetObjectInput, optFns ...func(*s3v2.Options)) (*s3v2.GetObjectOutput, error)
}

// S3Fetcher reads JSON documents addressed as s3://bucket/key.
type S3Fetcher struct {
	Client GetObjectAPI
}

func NewS3Fetcher(client GetObjectAPI) *S3Fetcher {
	return &S3Fetcher{Client: client}
}

// NewS3FetcherFromEnv builds a client from the shell's AWS setup
// (AWS_PROFILE, shared config, env, IMDS). region overrides when non-empty.
func NewS3FetcherFromEnv(ctx context.Context, region string) (*S3Fetcher, error) {
	var loadOpts []func(*config.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3Fetcher(s3v2.NewFromConfig(cfg)), nil
}

func (f *S3Fetcher) Fetch(ctx context.Context, key string) (any, error) {
	bucket, objKey, err := parseS3URL(key)
	if err != nil {
		return nil, err
	}

	out, err := f.Client.GetObject(ctx, &s3v2.GetObjectInput{
		Bucket: awsv2.String(bucket),
		Key:    awsv2.String(objKey),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	return decodeJSON(out.Body)
}

func parseS3URL(raw string) (bucket, key string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid s3 URL: %w", err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("invalid s3 URL %q", raw)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("s3 URL %q has no object key", raw)
	}
	return u.Host, key, nil
}
