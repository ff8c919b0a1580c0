package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/skylog-app/skylog/internal/locks"
	"github.com/skylog-app/skylog/internal/metrics"
	"github.com/skylog-app/skylog/internal/model"
	"github.com/skylog-app/skylog/internal/store"
)

// DefaultMaxBatch bounds one offline sync request.
const DefaultMaxBatch = 100

// SyncService drives a batch sync: size validation, per-item conflict
// resolution and persistence, then exactly one stats recomputation for the
// user. The whole batch runs inside the per-user serialization scope so a
// concurrent single-entry mutation cannot interleave with it.
type SyncService struct {
	store    store.Store
	resolver *ConflictResolver
	stats    *StatsService
	locks    *locks.UserLocker
	maxBatch int
	log      zerolog.Logger
}

func NewSyncService(s store.Store, resolver *ConflictResolver, stats *StatsService, l *locks.UserLocker, maxBatch int, log zerolog.Logger) *SyncService {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatch
	}
	return &SyncService{store: s, resolver: resolver, stats: stats, locks: l, maxBatch: maxBatch, log: log}
}

// Sync processes a batch of client-queued entries. An empty or over-limit
// batch fails whole with ErrBatchSize before any write. Items are otherwise
// independent: a rejected or failed item never aborts its neighbors, and
// items already written stay committed if the store degrades mid-batch; the
// result list says exactly which items need resubmission. Resubmitting an
// applied item is a harmless Merge, so retries are idempotent.
// The result list always has one element per input item, in input order.
func (s *SyncService) Sync(ctx context.Context, userID string, items []model.SyncItem) (*model.SyncResult, error) {
	if len(items) == 0 {
		metrics.SyncBatchesTotal.WithLabelValues("size_rejected").Inc()
		return nil, fmt.Errorf("%w: batch is empty", model.ErrBatchSize)
	}
	if len(items) > s.maxBatch {
		metrics.SyncBatchesTotal.WithLabelValues("size_rejected").Inc()
		return nil, fmt.Errorf("%w: batch of %d exceeds maximum %d", model.ErrBatchSize, len(items), s.maxBatch)
	}

	results := make([]model.SyncItemResult, len(items))

	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	for i, item := range items {
		results[i] = s.processItem(ctx, userID, item)
		metrics.SyncItemsTotal.WithLabelValues(string(results[i].Outcome)).Inc()
	}

	// One recompute for the whole batch, after every item write has been
	// applied and while the batch still holds the user's lock. Failure here
	// never undoes item writes.
	if _, err := s.stats.recompute(ctx, userID); err != nil {
		s.log.Error().Stack().Err(err).
			Str("user_id", userID).
			Msg("stats recompute after sync failed; repair via forced recompute")
	}

	res := &model.SyncResult{
		Results:        results,
		TotalProcessed: len(items),
	}
	for _, r := range results {
		switch r.Outcome {
		case model.SyncAccepted, model.SyncMerged:
			res.SuccessCount++
		default:
			res.ErrorCount++
		}
	}
	metrics.SyncBatchesTotal.WithLabelValues("ok").Inc()
	return res, nil
}

func (s *SyncService) processItem(ctx context.Context, userID string, item model.SyncItem) model.SyncItemResult {
	cand := Candidate{
		UserID:    item.UserID,
		Date:      item.Date,
		Timestamp: item.Timestamp,
		Emojis:    item.Emojis,
		Intensity: item.Intensity,
		Note:      item.Note,
		Location:  item.Location,
		Weather:   item.Weather,
	}

	if err := s.resolver.Validate(userID, cand); err != nil {
		return model.SyncItemResult{LocalID: item.LocalID, Outcome: model.SyncRejected, Reason: err.Error()}
	}

	existing, err := s.store.Entries().Get(ctx, userID, cand.DateFor())
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.SyncItemResult{LocalID: item.LocalID, Outcome: model.SyncFailed, Reason: "store unavailable"}
	}

	res, err := s.resolver.Resolve(userID, cand, existing)
	if err != nil {
		return model.SyncItemResult{LocalID: item.LocalID, Outcome: model.SyncRejected, Reason: err.Error()}
	}

	if err := s.store.Entries().Put(ctx, res.Entry); err != nil {
		s.log.Error().Stack().Err(err).
			Str("user_id", userID).
			Str("local_id", item.LocalID).
			Msg("sync item write failed")
		return model.SyncItemResult{LocalID: item.LocalID, Outcome: model.SyncFailed, Reason: "store unavailable"}
	}

	return model.SyncItemResult{LocalID: item.LocalID, EntryID: res.Entry.EntryID, Outcome: res.Outcome}
}

// Status reports whether sync work for the user is complete. Batches are
// processed synchronously inside one request, so completion is implied once
// no request is in flight; the payload carries entry/stat freshness info.
func (s *SyncService) Status(ctx context.Context, userID string) (*model.SyncStatus, error) {
	st, err := s.stats.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.SyncStatus{
		UserID:       userID,
		Complete:     true,
		TotalEntries: st.TotalEntries,
		LastUpdated:  st.LastUpdated,
	}, nil
}
