// Package history merges the two persistence tiers into one transcript.
//
// The ephemeral cache and the durable store are written independently and do
// not share a row identifier at write time, so entries are matched by exact
// (input, output) content. Two genuinely distinct turns with identical text
// therefore collapse into one, a known limitation of content-based matching.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/lumichat/lumichat/internal/cache"
	"github.com/lumichat/lumichat/internal/model/chat"
	"github.com/lumichat/lumichat/internal/store"
)

const (
	// durableFetchDepth matches the cache bound so neither tier can crowd
	// the other out of the merged window.
	durableFetchDepth = cache.MaxExchanges

	// historyWindow is how many merged turns callers receive.
	historyWindow = 20
)

// Reconciler owns both the merged read path and the dual write path across
// the cache and durable tiers.
type Reconciler struct {
	cache *cache.FileCache
	store store.ExchangeStore
}

func NewReconciler(c *cache.FileCache, s store.ExchangeStore) *Reconciler {
	return &Reconciler{cache: c, store: s}
}

// History returns the session's merged, deduplicated transcript in ascending
// timestamp order, at most historyWindow entries. Cache entries override
// same-content durable entries (the cache copy is fresher). A failing source
// is skipped; when both fail the result is simply empty, never an error, so
// the caller can proceed without history.
func (r *Reconciler) History(ctx context.Context, sessionID string) []chat.HistoryEntry {
	var (
		cached  cache.Record
		durable []chat.Exchange
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		record, err := r.cache.Read(sessionID)
		if err != nil {
			if !errors.Is(err, cache.ErrNotFound) && !errors.Is(err, cache.ErrExpired) {
				slog.Warn("history: cache read failed", "session_id", sessionID, "error", err)
			}
			return nil
		}
		cached = record
		return nil
	})
	g.Go(func() error {
		exchanges, err := r.store.ListBySession(gctx, sessionID, durableFetchDepth)
		if err != nil {
			slog.Warn("history: durable read failed", "session_id", sessionID, "error", err)
			return nil
		}
		durable = exchanges
		return nil
	})
	_ = g.Wait()

	merged := make(map[string]chat.HistoryEntry, len(durable)+len(cached.Exchanges))
	for _, ex := range durable {
		merged[contentKey(ex)] = chat.HistoryEntry{
			InputText:  ex.InputText,
			OutputText: ex.OutputText,
			Timestamp:  ex.Timestamp,
			Origin:     chat.OriginDurable,
		}
	}
	for _, ex := range cached.Exchanges {
		merged[contentKey(ex)] = chat.HistoryEntry{
			InputText:  ex.InputText,
			OutputText: ex.OutputText,
			Timestamp:  ex.Timestamp,
			Origin:     chat.OriginCache,
		}
	}

	entries := make([]chat.HistoryEntry, 0, len(merged))
	for _, entry := range merged {
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	if len(entries) > historyWindow {
		entries = entries[len(entries)-historyWindow:]
	}
	return entries
}

// Persist writes one exchange to both tiers. Each tier fails independently;
// failures are logged and joined into the returned error for the caller's
// log line, never surfaced to the user.
func (r *Reconciler) Persist(ctx context.Context, ex chat.Exchange) error {
	var errs []error
	if err := r.cache.Append(ex.SessionID, ex); err != nil {
		slog.Warn("history: cache write failed", "session_id", ex.SessionID, "error", err)
		errs = append(errs, fmt.Errorf("cache: %w", err))
	}
	if err := r.store.Record(ctx, ex); err != nil {
		slog.Warn("history: durable write failed", "session_id", ex.SessionID, "error", err)
		errs = append(errs, fmt.Errorf("durable: %w", err))
	}
	return errors.Join(errs...)
}

// Clear wipes the session's transcript from both tiers. The cache record is
// removed too, not left to age out, so a cleared session cannot resurface
// through the merged read path. Partial failure is reported to the caller.
func (r *Reconciler) Clear(ctx context.Context, sessionID string) error {
	var errs []error
	if err := r.cache.Delete(sessionID); err != nil {
		slog.Warn("history: cache delete failed", "session_id", sessionID, "error", err)
		errs = append(errs, fmt.Errorf("cache: %w", err))
	}
	if err := r.store.DeleteBySession(ctx, sessionID); err != nil {
		slog.Warn("history: durable delete failed", "session_id", sessionID, "error", err)
		errs = append(errs, fmt.Errorf("durable: %w", err))
	}
	return errors.Join(errs...)
}

func contentKey(ex chat.Exchange) string {
	return ex.InputText + "\x1f" + ex.OutputText
}
