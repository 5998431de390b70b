// Package cache holds the ephemeral per-session history tier: a short-lived,
// file-backed record of the most recent exchanges, expired on a sliding
// max-age and reclaimed by a background sweep. The durable store remains the
// system of record; losing a cache record never loses data.
package cache

import (
	"errors"
	"time"

	"github.com/lumichat/lumichat/internal/model/chat"
)

var (
	// ErrNotFound means the session has no cache record.
	ErrNotFound = errors.New("session record not found")

	// ErrExpired means a record existed but outlived its max-age and has
	// been removed. Distinct from ErrNotFound so callers can tell a cold
	// session from a lapsed one.
	ErrExpired = errors.New("session record expired")
)

const (
	// MaxExchanges bounds a record to the most recent turns; oldest entries
	// are evicted first.
	MaxExchanges = 50

	// DefaultMaxAge is the sliding expiration window, measured from
	// LastAccessedAt.
	DefaultMaxAge = 72 * time.Hour

	// DefaultSweepInterval is how often the reclaimer runs.
	DefaultSweepInterval = time.Hour
)

// Record is the ephemeral view of one session: its recent exchanges plus the
// access timestamps driving expiry.
type Record struct {
	SessionID      string          `json:"sessionId"`
	Exchanges      []chat.Exchange `json:"exchanges"`
	CreatedAt      time.Time       `json:"createdAt"`
	LastAccessedAt time.Time       `json:"lastAccessedAt"`
}

func (r Record) expiredAt(now time.Time, maxAge time.Duration) bool {
	return now.Sub(r.LastAccessedAt) > maxAge
}
