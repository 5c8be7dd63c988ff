// Package hostdb talks to the hosted Postgres that mirrors the waitlist, either through
// its PostgREST endpoint or directly over SQL.
package hostdb

import (
	"context"
	"encoding/json"
)

//go:generate mockgen -source=client.go -destination=mock_client.go -package=hostdb

// Client is the narrow surface the adapter and the database sink need.
type Client interface {
	// Configured reports whether connection settings are present. No I/O.
	Configured() bool
	Select(ctx context.Context, table string, columns string, limit int) ([]map[string]any, error)
	Insert(ctx context.Context, table string, row map[string]any) error
	DeleteWhere(ctx context.Context, table string, column string, value any) error
	RPC(ctx context.Context, fn string, args map[string]any) (json.RawMessage, error)
}

// Settings are the values the REST client needs. Both must be non-empty.
type Settings struct {
	URL string
	Key string
}

func (s Settings) Configured() bool {
	return s.URL != "" && s.Key != ""
}

// Missing names the settings that are empty.
func (s Settings) Missing() []string {
	var missing []string
	if s.URL == "" {
		missing = append(missing, "SUPABASE_URL")
	}
	if s.Key == "" {
		missing = append(missing, "SUPABASE_ANON_KEY")
	}
	return missing
}

type unconfigured struct{}

// Unconfigured returns a client that fails every call without touching the network.
func Unconfigured() Client {
	return unconfigured{}
}

func (unconfigured) Configured() bool { return false }

func (unconfigured) Select(context.Context, string, string, int) ([]map[string]any, error) {
	return nil, ErrNotConfigured
}

func (unconfigured) Insert(context.Context, string, map[string]any) error {
	return ErrNotConfigured
}

func (unconfigured) DeleteWhere(context.Context, string, string, any) error {
	return ErrNotConfigured
}

func (unconfigured) RPC(context.Context, string, map[string]any) (json.RawMessage, error) {
	return nil, ErrNotConfigured
}
