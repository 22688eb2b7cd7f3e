package s3

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/go-logr/logr"

	magnetconfig "github.com/imamik/magnet/internal/config"
	"github.com/imamik/magnet/internal/util/naming"
)

const defaultRegion = "us-east-1"

// Client deletes prefix-matched buckets.
type Client struct {
	s3  *s3.Client
	log logr.Logger
}

// NewClient creates a client for the configured S3 endpoint.
func NewClient(ctx context.Context, creds magnetconfig.S3Credentials, log logr.Logger) (*Client, error) {
	if creds.Endpoint == "" {
		return nil, errors.New("s3 endpoint is required")
	}

	region := creds.Region
	if region == "" {
		region = defaultRegion
	}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(creds.AccessKey, creds.SecretKey, "")),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(creds.Endpoint)
		o.UsePathStyle = true
	})

	return &Client{s3: client, log: log.WithName("s3")}, nil
}

// DeleteBucketsByPrefix empties and deletes every bucket whose name starts
// with prefix. Buckets that vanish mid-sweep count as deleted by someone
// else and are skipped.
func (c *Client) DeleteBucketsByPrefix(ctx context.Context, prefix string) (int, error) {
	buckets, err := c.listBuckets(ctx, prefix)
	if err != nil {
		return 0, err
	}

	deleted := 0
	var errs []error
	for _, bucket := range buckets {
		c.log.Info("[Teardown] Deleting bucket", "bucket", bucket)

		if err := c.emptyBucket(ctx, bucket); err != nil {
			if isNotFoundError(err) {
				continue
			}
			errs = append(errs, err)
			continue
		}

		if err := c.DeleteBucket(ctx, bucket); err != nil {
			if isNotFoundError(err) {
				continue
			}
			errs = append(errs, err)
			continue
		}
		deleted++
	}

	return deleted, errors.Join(errs...)
}

func (c *Client) listBuckets(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	paginator := s3.NewListBucketsPaginator(c.s3, &s3.ListBucketsInput{
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list buckets: %w", err)
		}
		for _, b := range page.Buckets {
			// Some S3-compatible services ignore the prefix parameter.
			if b.Name != nil && naming.Owned(*b.Name, prefix) {
				names = append(names, *b.Name)
			}
		}
	}
	return names, nil
}

func (c *Client) emptyBucket(ctx context.Context, bucketName string) error {
	paginator := s3.NewListObjectsV2Paginator(c.s3, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucketName),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list objects in bucket %s: %w", bucketName, err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			if err := c.DeleteObject(ctx, bucketName, *obj.Key); err != nil {
				return err
			}
		}
	}
	return nil
}

// DeleteObject deletes an object from a bucket.
func (c *Client) DeleteObject(ctx context.Context, bucketName, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s from bucket %s: %w", key, bucketName, err)
	}
	return nil
}

// DeleteBucket deletes a bucket. The bucket must be empty.
func (c *Client) DeleteBucket(ctx context.Context, bucketName string) error {
	_, err := c.s3.DeleteBucket(ctx, &s3.DeleteBucketInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		return fmt.Errorf("failed to delete bucket %s: %w", bucketName, err)
	}
	return nil
}

// isNotFoundError checks if the error is a not found error.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}

	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}

	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	// S3-compatible services may not return the exact SDK error types.
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchBucket" || code == "404"
	}

	return false
}
