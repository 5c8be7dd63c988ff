// Package capture fans a waitlist submission out to an ordered list of sinks.
package capture

import (
	"context"
	"errors"

	"github.com/bloomcare/bloom-waitlist/internal/models"
)

//go:generate mockgen -source=sink.go -destination=mock_sink.go -package=capture

// Sink is one destination for a waitlist entry.
type Sink interface {
	Name() string
	Write(ctx context.Context, entry *models.WaitlistEntry) error
}

// Mode decides what a sink failure does to the submission.
type Mode int

const (
	// BestEffort failures are logged and recorded only.
	BestEffort Mode = iota
	// Critical failures abort the submission before later sinks run.
	Critical
)

func (m Mode) String() string {
	if m == Critical {
		return "critical"
	}
	return "best_effort"
}

var (
	// ErrSinkSkipped means the sink chose not to write, e.g. it is not configured.
	ErrSinkSkipped = errors.New("sink skipped")
	// ErrDuplicate means the destination already holds this email.
	ErrDuplicate = errors.New("entry already present")
)

type Status string

const (
	StatusWritten   Status = "written"
	StatusSkipped   Status = "skipped"
	StatusDuplicate Status = "duplicate"
	StatusFailed    Status = "failed"
)
