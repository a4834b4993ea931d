// File: backend/services/integrity-service/internal/domain/repository/revalidation_queue.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wizarding-anonymous/attendance_platform/backend/services/integrity-service/internal/domain/models"
)

// RevalidationItem is a user whose new role must be revalidated before its
// privileges may be exercised.
type RevalidationItem struct {
	TenantID   uuid.UUID       `json:"tenant_id"`
	UserID     uuid.UUID       `json:"user_id"`
	Role       models.RoleID   `json:"role"`
	Severity   models.Severity `json:"severity"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// RevalidationQueue is a severity-prioritized queue consumed by an external
// revalidation worker. Priority mirrors severity; FIFO within one severity.
type RevalidationQueue interface {
	Enqueue(ctx context.Context, item RevalidationItem) error
	Dequeue(ctx context.Context) (*RevalidationItem, error)
	Len(ctx context.Context) (int64, error)
}
