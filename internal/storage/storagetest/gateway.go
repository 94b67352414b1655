// Package storagetest provides an in-memory storage.Gateway for tests.
package storagetest

import (
	"context"

	"tierconvert/internal/storage"
)

// CopyCall records one CopyInPlace invocation
type CopyCall struct {
	Bucket       string
	Key          string
	StorageClass string
}

// Gateway is a scriptable storage.Gateway. The zero value lists nothing and
// succeeds every call.
type Gateway struct {
	Objects []storage.ObjectInfo
	// ListErr, when set, is returned after the first ListFailAfter objects
	ListErr       error
	ListFailAfter int

	RestoreErrs map[string]error
	CopyErrs    map[string]error
	// RestoredAfter makes HeadStatus report key as restored on the Nth call.
	// Keys without an entry are restored on the first call; values <= 0
	// never restore.
	RestoredAfter map[string]int
	// HeadErrs is returned by HeadStatus for key until cleared
	HeadErrs map[string]error

	Restores []string
	Heads    map[string]int
	Copies   []CopyCall
}

var _ storage.Gateway = (*Gateway)(nil)

func (g *Gateway) List(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	if g.ListErr != nil {
		n := g.ListFailAfter
		if n > len(g.Objects) {
			n = len(g.Objects)
		}
		return append([]storage.ObjectInfo(nil), g.Objects[:n]...), g.ListErr
	}
	return append([]storage.ObjectInfo(nil), g.Objects...), nil
}

func (g *Gateway) HeadStatus(ctx context.Context, bucket, key string) (storage.RestoreStatus, error) {
	if g.Heads == nil {
		g.Heads = make(map[string]int)
	}
	g.Heads[key]++

	if err := g.HeadErrs[key]; err != nil {
		return storage.RestoreStatus{}, err
	}

	after, ok := g.RestoredAfter[key]
	if !ok {
		after = 1
	}
	if after > 0 && g.Heads[key] >= after {
		return storage.RestoreStatus{Requested: true}, nil
	}
	return storage.RestoreStatus{Requested: true, Ongoing: true}, nil
}

func (g *Gateway) RestoreRequest(ctx context.Context, bucket, key string, opts storage.RestoreOptions) error {
	g.Restores = append(g.Restores, key)
	return g.RestoreErrs[key]
}

func (g *Gateway) CopyInPlace(ctx context.Context, bucket, key, storageClass string) error {
	g.Copies = append(g.Copies, CopyCall{Bucket: bucket, Key: key, StorageClass: storageClass})
	return g.CopyErrs[key]
}

// CopiedKeys returns the keys passed to CopyInPlace in call order
func (g *Gateway) CopiedKeys() []string {
	keys := make([]string, 0, len(g.Copies))
	for _, c := range g.Copies {
		keys = append(keys, c.Key)
	}
	return keys
}
