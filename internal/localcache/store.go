// Package localcache keeps the on-host backup list of every waitlist submission.
// The list lives under a single key as a JSON array and every append rewrites it whole.
package localcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bloomcare/bloom-waitlist/internal/models"
)

//go:generate mockgen -source=store.go -destination=mock_store.go -package=localcache

type Store interface {
	Append(ctx context.Context, entry *models.WaitlistEntry) error
	Entries(ctx context.Context) ([]models.WaitlistEntry, error)
	Ping(ctx context.Context) error
}

// ErrCorrupt is returned when the stored list cannot be decoded.
var ErrCorrupt = errors.New("local cache: stored list is corrupt")

func decode(raw []byte) ([]models.WaitlistEntry, error) {
	if len(raw) == 0 {
		return []models.WaitlistEntry{}, nil
	}

	var entries []models.WaitlistEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if entries == nil {
		entries = []models.WaitlistEntry{}
	}
	return entries, nil
}

func appendEncoded(raw []byte, entry *models.WaitlistEntry) ([]byte, error) {
	entries, err := decode(raw)
	if err != nil {
		return nil, err
	}
	return json.Marshal(append(entries, *entry))
}
