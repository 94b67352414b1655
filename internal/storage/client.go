package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrRestoreInProgress is returned by RestoreRequest when the provider already
// has a restore running for the object
var ErrRestoreInProgress = errors.New("restore already in progress")

// Gateway defines the object store operations the converter needs
type Gateway interface {
	// List returns every object under prefix. On failure it returns the
	// objects gathered before the error alongside it.
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	HeadStatus(ctx context.Context, bucket, key string) (RestoreStatus, error)
	RestoreRequest(ctx context.Context, bucket, key string, opts RestoreOptions) error
	// CopyInPlace copies key onto itself with storageClass, keeping its metadata
	CopyInPlace(ctx context.Context, bucket, key, storageClass string) error
}

// ObjectInfo is a listed object
type ObjectInfo struct {
	Key          string
	StorageClass string
}

// RestoreStatus describes the restore state reported for an object
type RestoreStatus struct {
	// Requested is false when the object carries no restore metadata
	Requested bool
	Ongoing   bool
}

// Restored reports whether a temporary restored copy is available
func (s RestoreStatus) Restored() bool {
	return s.Requested && !s.Ongoing
}

// RestoreOptions contains restore request parameters
type RestoreOptions struct {
	Days int
	// Tier is the retrieval speed: Bulk, Standard or Expedited
	Tier string
}

// Retrieval tiers accepted by RestoreOptions
const (
	RetrievalBulk      = "Bulk"
	RetrievalStandard  = "Standard"
	RetrievalExpedited = "Expedited"
)

// ValidRetrievalTier reports whether tier is a known retrieval tier
func ValidRetrievalTier(tier string) bool {
	switch tier {
	case RetrievalBulk, RetrievalStandard, RetrievalExpedited:
		return true
	}
	return false
}

// Providers supported by New
const (
	ProviderAWS   = "aws"
	ProviderMinIO = "minio"
)

// Config contains client configuration
type Config struct {
	Provider  string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Secure    bool
}

// New creates the gateway for cfg.Provider
func New(ctx context.Context, cfg Config) (Gateway, error) {
	switch cfg.Provider {
	case ProviderAWS, "":
		return NewS3Gateway(ctx, cfg)
	case ProviderMinIO:
		return NewMinIOGateway(cfg)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

const restoreInProgressCode = "RestoreAlreadyInProgress"
