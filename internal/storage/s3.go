package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// s3API is the subset of *s3.Client used by S3Gateway
type s3API interface {
	s3.ListObjectsV2APIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	RestoreObject(ctx context.Context, params *s3.RestoreObjectInput, optFns ...func(*s3.Options)) (*s3.RestoreObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
}

// S3Gateway implements Gateway using the AWS SDK
type S3Gateway struct {
	client s3API
}

// NewS3Gateway creates a gateway for AWS S3. Empty keys fall back to the
// default credential chain.
func NewS3Gateway(ctx context.Context, cfg Config) (*S3Gateway, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Gateway{client: client}, nil
}

// List lists all objects under prefix, following continuation tokens
func (g *S3Gateway) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	paginator := s3.NewListObjectsV2Paginator(g.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})

	var objects []ObjectInfo
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return objects, fmt.Errorf("failed to list objects in %s/%s: %w", bucket, prefix, err)
		}

		for _, obj := range page.Contents {
			objects = append(objects, ObjectInfo{
				Key:          aws.ToString(obj.Key),
				StorageClass: string(obj.StorageClass),
			})
		}
	}

	return objects, nil
}

// HeadStatus reads the x-amz-restore header of key
func (g *S3Gateway) HeadStatus(ctx context.Context, bucket, key string) (RestoreStatus, error) {
	out, err := g.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return RestoreStatus{}, err
	}

	return parseRestoreHeader(aws.ToString(out.Restore)), nil
}

// parseRestoreHeader parses values such as
//
//	ongoing-request="true"
//	ongoing-request="false", expiry-date="Fri, 23 Dec 2012 00:00:00 GMT"
func parseRestoreHeader(header string) RestoreStatus {
	switch {
	case strings.Contains(header, `ongoing-request="true"`):
		return RestoreStatus{Requested: true, Ongoing: true}
	case strings.Contains(header, `ongoing-request="false"`):
		return RestoreStatus{Requested: true}
	default:
		return RestoreStatus{}
	}
}

// RestoreRequest asks S3 to stage a temporary copy of an archived object
func (g *S3Gateway) RestoreRequest(ctx context.Context, bucket, key string, opts RestoreOptions) error {
	_, err := g.client.RestoreObject(ctx, &s3.RestoreObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		RestoreRequest: &types.RestoreRequest{
			Days: aws.Int32(int32(opts.Days)),
			GlacierJobParameters: &types.GlacierJobParameters{
				Tier: types.Tier(opts.Tier),
			},
		},
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == restoreInProgressCode {
			return fmt.Errorf("%s: %w", key, ErrRestoreInProgress)
		}
		return err
	}
	return nil
}

// CopyInPlace rewrites key onto itself with a new storage class
func (g *S3Gateway) CopyInPlace(ctx context.Context, bucket, key, storageClass string) error {
	_, err := g.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(bucket),
		Key:               aws.String(key),
		CopySource:        aws.String(copySource(bucket, key)),
		StorageClass:      types.StorageClass(storageClass),
		MetadataDirective: types.MetadataDirectiveCopy,
	})
	return err
}

// copySource builds the URL-encoded "bucket/key" copy source
func copySource(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return bucket + "/" + strings.Join(segments, "/")
}
