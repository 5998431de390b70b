// Package store holds the authoritative, insert-only record of every
// exchange. Rows are never updated; ordering relies on timestamps rather
// than write serialization.
package store

import (
	"context"

	"github.com/lumichat/lumichat/internal/model/chat"
)

// ExchangeStore is the durable tier's read/write contract.
type ExchangeStore interface {
	// Record appends one exchange. Insert-only; an exchange is never
	// mutated after this returns.
	Record(ctx context.Context, ex chat.Exchange) error

	// ListBySession returns at most limit of the session's most recent
	// exchanges, ordered by timestamp ascending.
	ListBySession(ctx context.Context, sessionID string, limit int) ([]chat.Exchange, error)

	// Count reports how many exchanges the session has accumulated.
	Count(ctx context.Context, sessionID string) (int, error)

	// DeleteBySession removes the session's full history.
	DeleteBySession(ctx context.Context, sessionID string) error
}
