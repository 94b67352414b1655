package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOGateway implements Gateway for S3-compatible endpoints using minio-go
type MinIOGateway struct {
	client *minio.Client
}

// NewMinIOGateway creates a new MinIO gateway
func NewMinIOGateway(cfg Config) (*MinIOGateway, error) {
	endpoint, err := endpointHost(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	return &MinIOGateway{client: client}, nil
}

// endpointHost reduces an endpoint such as "https://minio:9000" to the
// host:port form minio.New expects
func endpointHost(endpoint string) (string, error) {
	if endpoint == "" {
		return "", errors.New("endpoint is required")
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("endpoint %q has no host", endpoint)
	}
	if strings.Trim(u.Path, "/") != "" {
		return "", fmt.Errorf("endpoint %q must not include a path", endpoint)
	}
	return u.Host, nil
}

// List lists objects with prefix
func (g *MinIOGateway) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo

	for obj := range g.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return objects, fmt.Errorf("failed to list objects in %s/%s: %w", bucket, prefix, obj.Err)
		}

		objects = append(objects, ObjectInfo{
			Key:          obj.Key,
			StorageClass: obj.StorageClass,
		})
	}

	return objects, nil
}

// HeadStatus gets the restore state of an object
func (g *MinIOGateway) HeadStatus(ctx context.Context, bucket, key string) (RestoreStatus, error) {
	info, err := g.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return RestoreStatus{}, err
	}

	if info.Restore == nil {
		return RestoreStatus{}, nil
	}
	return RestoreStatus{Requested: true, Ongoing: info.Restore.OngoingRestore}, nil
}

// RestoreRequest initiates a restore of an archived object
func (g *MinIOGateway) RestoreRequest(ctx context.Context, bucket, key string, opts RestoreOptions) error {
	req := minio.RestoreRequest{}
	req.SetDays(opts.Days)
	req.SetGlacierJobParameters(minio.GlacierJobParameters{Tier: minio.TierType(opts.Tier)})

	err := g.client.RestoreObject(ctx, bucket, key, "", req)
	if err != nil {
		if minio.ToErrorResponse(err).Code == restoreInProgressCode {
			return fmt.Errorf("%s: %w", key, ErrRestoreInProgress)
		}
		return err
	}
	return nil
}

// CopyInPlace copies an object onto itself with a new storage class.
// Core.CopyObject forwards the metadata map as raw request headers.
func (g *MinIOGateway) CopyInPlace(ctx context.Context, bucket, key, storageClass string) error {
	headers := map[string]string{
		"X-Amz-Storage-Class":      storageClass,
		"X-Amz-Metadata-Directive": "COPY",
	}

	core := &minio.Core{Client: g.client}
	_, err := core.CopyObject(ctx, bucket, key, bucket, key, headers,
		minio.CopySrcOptions{Bucket: bucket, Object: key}, minio.PutObjectOptions{})
	return err
}
