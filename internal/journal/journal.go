// Package journal persists confirmed sales and publishes sale-completed
// events through a transactional outbox. The journal is a local record for
// receipts and reporting; the backend remains the system of record for
// the sale itself.
package journal

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDuplicateDraft means a sale with this draft id was already
	// journaled. Safe to ignore: the same confirmed draft was recorded
	// twice.
	ErrDuplicateDraft = errors.New("draft already journaled")

	// ErrSaleNotFound is returned for lookups of unknown sales.
	ErrSaleNotFound = errors.New("sale not found")
)

// OutboxEvent is one pending sale-completed event, written in the same
// transaction as the sale row it describes.
type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

// OutboxStore is the slice of the journal the publisher drains.
type OutboxStore interface {
	GetUnpublishedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventPublished(ctx context.Context, id int64) error
}
