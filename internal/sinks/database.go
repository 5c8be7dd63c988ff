package sinks

import (
	"context"
	"errors"
	"fmt"

	"github.com/bloomcare/bloom-waitlist/internal/capture"
	"github.com/bloomcare/bloom-waitlist/internal/hostdb"
	"github.com/bloomcare/bloom-waitlist/internal/models"
	"github.com/bloomcare/bloom-waitlist/pkg/circuitbreaker"
	apperrors "github.com/bloomcare/bloom-waitlist/pkg/errors"
)

const HostedDBName = "hosted_db"

// HostedDB inserts the entry through the hosted-database adapter behind a circuit breaker.
type HostedDB struct {
	adapter *hostdb.Adapter
	breaker circuitbreaker.CircuitBreaker
}

func NewHostedDB(adapter *hostdb.Adapter, breaker circuitbreaker.CircuitBreaker) *HostedDB {
	if breaker == nil {
		breaker = circuitbreaker.NewCircuitBreaker(nil)
	}
	return &HostedDB{adapter: adapter, breaker: breaker}
}

func (s *HostedDB) Name() string {
	return HostedDBName
}

func (s *HostedDB) Write(ctx context.Context, entry *models.WaitlistEntry) error {
	if !s.adapter.CheckConfiguration(ctx) {
		return fmt.Errorf("%w: hosted database not configured", capture.ErrSinkSkipped)
	}

	var insertErr error
	err := s.breaker.Call(func() error {
		insertErr = s.adapter.InsertEntry(ctx, entry)
		// Rejections prove the backend is alive; only transport-style failures trip the breaker.
		if hostdb.IsUniqueViolation(insertErr) || hostdb.IsPermissionDenied(insertErr) {
			return nil
		}
		return insertErr
	})

	switch {
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		return fmt.Errorf("%w: circuit open", capture.ErrSinkSkipped)
	case insertErr == nil:
		return nil
	case hostdb.IsUniqueViolation(insertErr):
		return apperrors.NewConflictError("email already on the waitlist", insertErr)
	default:
		return insertErr
	}
}
