// Package clockstore is the durable key-value store backing the timer engine.
// It holds absolute deadlines and identifiers so a restarted process can
// reconcile its countdowns against wall-clock time instead of trusting any
// in-process elapsed counter.
package clockstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Store persists JSON-serializable values under string keys. Get reports
// found=false for absent keys rather than an error.
type Store interface {
	Get(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Remove(ctx context.Context, key string) error
}

func ActiveSessionKey(ownerID uuid.UUID) string {
	return fmt.Sprintf("focus:%s:active_session", ownerID)
}

func RotationKey(ownerID uuid.UUID) string {
	return fmt.Sprintf("focus:%s:rotation", ownerID)
}

func PendingResolutionKey(ownerID uuid.UUID) string {
	return fmt.Sprintf("focus:%s:pending_resolution", ownerID)
}
