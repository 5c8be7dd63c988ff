package constants

import "time"

// RFC 3339 date-time format string.
// Use this format for all date-time serialization and communication with external systems.
const RFC3339DateTimeFormat = "2006-01-02T15:04:05Z07:00"

// Default rate limiting configuration
const (
	// DefaultRateLimitRequests is the default number of requests allowed per time window
	DefaultRateLimitRequests = 100
	// DefaultRateLimitWindowMinutes is the default time window for rate limiting
	DefaultRateLimitWindowMinutes = 1
	// WaitlistSubmissionsPerMinute caps sign-ups per client address.
	WaitlistSubmissionsPerMinute = 30
)

// DefaultRateLimitWindow returns the default rate limit window duration
func DefaultRateLimitWindow() time.Duration {
	return time.Duration(DefaultRateLimitWindowMinutes) * time.Minute
}

// Canonical remote schema (version 1). The SQL lives in migrations/000001_*.
const (
	WaitlistTable           = "waitlist_interest"
	WaitlistSchemaVersion   = 1
	ColumnEmail             = "email"
	ColumnPricingPreference = "pricing_preference"
	ColumnCreatedAt         = "created_at"
	ColumnSchemaVersion     = "schema_version"
)

// Local backup list and form webhook defaults.
const (
	LocalCacheKey              = "waitlistEntries"
	DefaultLocalCachePath      = "data/waitlistEntries.json"
	DefaultFormWebhookURL      = "https://docs.google.com/forms/d/e/1FAIpQLSfbK1J8223gzS7RfLSu9ZNX-YXUjqXt46puFjMJI3vZV39C3g/formResponse"
	DefaultFormEmailField      = "entry.1776647972"
	DefaultFormPreferenceField = "entry.1442464782"
	NoPreferenceLabel          = "No option selected"
)

// DefaultConnectionTestTimeout bounds a single hosted database probe.
const DefaultConnectionTestTimeout = 5 * time.Second
