// Package sinks holds the destinations a waitlist entry is written to.
package sinks

import (
	"context"

	"github.com/bloomcare/bloom-waitlist/internal/localcache"
	"github.com/bloomcare/bloom-waitlist/internal/models"
	apperrors "github.com/bloomcare/bloom-waitlist/pkg/errors"
)

const LocalCacheName = "local_cache"

// LocalCache appends every entry to the on-host backup list. It is registered as critical.
type LocalCache struct {
	store localcache.Store
}

func NewLocalCache(store localcache.Store) *LocalCache {
	return &LocalCache{store: store}
}

func (s *LocalCache) Name() string {
	return LocalCacheName
}

func (s *LocalCache) Write(ctx context.Context, entry *models.WaitlistEntry) error {
	if err := s.store.Append(ctx, entry); err != nil {
		return apperrors.NewStorageError("failed to save waitlist entry locally", err)
	}
	return nil
}
