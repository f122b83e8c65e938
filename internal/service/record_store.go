package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/merosman91/Agricultural-Tractor/internal/domain"
	"github.com/merosman91/Agricultural-Tractor/internal/repository"
	"go.uber.org/zap"
)

// DefaultHourlyRate applies when neither the caller nor configuration sets a rate.
const DefaultHourlyRate = 5000

// RecordStore holds the work-record collection in memory and writes the whole
// collection to a BlobStore after every mutation. Records keep insertion order.
type RecordStore struct {
	mu      sync.RWMutex
	records []*domain.WorkRecord

	blobs       repository.BlobStore
	key         string
	defaultRate int
	now         func() time.Time
	logger      *zap.Logger
	observer    UseCaseObserver
}

type StoreOption func(*RecordStore)

func WithClock(now func() time.Time) StoreOption {
	return func(s *RecordStore) { s.now = now }
}

func WithDefaultRate(rate int) StoreOption {
	return func(s *RecordStore) {
		if rate > 0 {
			s.defaultRate = rate
		}
	}
}

func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *RecordStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithObserver(observer UseCaseObserver) StoreOption {
	return func(s *RecordStore) { s.observer = useCaseObserverOrNoop(observer) }
}

// NewRecordStore loads the collection stored under key. An absent or
// unparseable blob yields an empty store; any other read failure is returned.
func NewRecordStore(ctx context.Context, blobs repository.BlobStore, key string, opts ...StoreOption) (*RecordStore, error) {
	s := &RecordStore{
		blobs:       blobs,
		key:         key,
		defaultRate: DefaultHourlyRate,
		now:         time.Now,
		logger:      zap.NewNop(),
		observer:    NoopUseCaseObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *RecordStore) load(ctx context.Context) error {
	data, err := s.blobs.Get(ctx, s.key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading records: %w", err)
	}

	var stored []*domain.WorkRecord
	if err := json.Unmarshal(data, &stored); err != nil {
		s.logger.Warn("stored records unreadable, starting empty",
			zap.String("key", s.key), zap.Error(err))
		return nil
	}

	s.records = make([]*domain.WorkRecord, 0, len(stored))
	for _, r := range stored {
		if r == nil {
			continue
		}
		if err := r.Normalize(); err != nil {
			s.logger.Warn("dropping invalid stored record",
				zap.String("id", r.ID), zap.Error(err))
			continue
		}
		s.records = append(s.records, r)
	}
	s.logger.Debug("records loaded", zap.Int("count", len(s.records)))
	return nil
}

// persist writes the full collection. Callers hold s.mu.
func (s *RecordStore) persist(ctx context.Context) error {
	data, err := json.Marshal(s.records)
	if err != nil {
		return domain.PersistenceError(fmt.Errorf("encoding records: %w", err))
	}
	if err := s.blobs.Put(ctx, s.key, data); err != nil {
		s.logger.Error("persisting records failed", zap.String("key", s.key), zap.Error(err))
		return domain.PersistenceError(err)
	}
	return nil
}

func (s *RecordStore) observe(ctx context.Context, name string, startedAt time.Time, err error, fields map[string]any) {
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
	})
}

func (s *RecordStore) nowUTC() time.Time {
	return s.now().UTC()
}

func newRecordID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// Add validates in, appends the new record and persists. The record is kept in
// memory even when persisting fails.
func (s *RecordStore) Add(ctx context.Context, in domain.RecordInput) (rec *domain.WorkRecord, err error) {
	startedAt := time.Now()
	fields := map[string]any{"customer": in.CustomerName}
	defer func() { s.observe(ctx, "add-record", startedAt, err, fields) }()

	// A blank date resolves against the operator's local calendar.
	created, err := domain.NewWorkRecord(in, newRecordID(), s.defaultRate, s.now())
	if err != nil {
		return nil, err
	}
	created.CreatedAt = created.CreatedAt.UTC()
	created.UpdatedAt = created.CreatedAt
	fields["id"] = created.ID

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, created)
	copied := *created
	if err = s.persist(ctx); err != nil {
		return &copied, err
	}
	return &copied, nil
}

// Update merges patch into the record with the given id. The patch is
// validated as a whole before anything changes.
func (s *RecordStore) Update(ctx context.Context, id string, patch domain.RecordPatch) (rec *domain.WorkRecord, err error) {
	startedAt := time.Now()
	defer func() { s.observe(ctx, "update-record", startedAt, err, map[string]any{"id": id}) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
	}
	if patch.IsEmpty() {
		copied := *s.records[idx]
		return &copied, nil
	}
	if err = s.records[idx].ApplyPatch(patch, s.nowUTC()); err != nil {
		return nil, err
	}
	copied := *s.records[idx]
	if err = s.persist(ctx); err != nil {
		return &copied, err
	}
	return &copied, nil
}

// SetPaymentStatus is Update restricted to the payment status.
func (s *RecordStore) SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (*domain.WorkRecord, error) {
	return s.Update(ctx, id, domain.RecordPatch{PaymentStatus: &status})
}

// Delete removes the record if present. It persists only when something was
// removed.
func (s *RecordStore) Delete(ctx context.Context, id string) (removed bool, err error) {
	startedAt := time.Now()
	defer func() {
		s.observe(ctx, "delete-record", startedAt, err, map[string]any{"id": id, "removed": removed})
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return false, nil
	}
	s.records = append(s.records[:idx:idx], s.records[idx+1:]...)
	return true, s.persist(ctx)
}

// Import validates every record, fills missing IDs and timestamps, recomputes
// totals and appends them. Nothing is applied when any record is invalid.
func (s *RecordStore) Import(ctx context.Context, records []*domain.WorkRecord) (n int, err error) {
	startedAt := time.Now()
	defer func() { s.observe(ctx, "import-records", startedAt, err, map[string]any{"count": n}) }()

	now := s.nowUTC()
	prepared := make([]*domain.WorkRecord, 0, len(records))
	for i, r := range records {
		if r == nil {
			continue
		}
		c := *r
		if c.HourlyRate == 0 {
			c.HourlyRate = s.defaultRate
		}
		if c.PaymentStatus == "" {
			c.PaymentStatus = domain.PaymentDeferred
		}
		if verr := c.Normalize(); verr != nil {
			return 0, fmt.Errorf("record %d: %w", i+1, verr)
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		if c.UpdatedAt.IsZero() {
			c.UpdatedAt = now
		}
		prepared = append(prepared, &c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(s.records)+len(prepared))
	for _, r := range s.records {
		seen[r.ID] = true
	}
	for _, r := range prepared {
		if r.ID == "" || seen[r.ID] {
			r.ID = newRecordID()
		}
		seen[r.ID] = true
	}
	s.records = append(s.records, prepared...)
	return len(prepared), s.persist(ctx)
}

// Clear removes every record and persists the empty collection.
func (s *RecordStore) Clear(ctx context.Context) (err error) {
	startedAt := time.Now()
	s.mu.Lock()
	count := len(s.records)
	defer func() { s.observe(ctx, "clear-records", startedAt, err, map[string]any{"count": count}) }()
	defer s.mu.Unlock()

	s.records = []*domain.WorkRecord{}
	return s.persist(ctx)
}

// Get returns a copy of the record with the given id.
func (s *RecordStore) Get(id string) (*domain.WorkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
	}
	copied := *s.records[idx]
	return &copied, nil
}

// Snapshot returns copies of all records in insertion order.
func (s *RecordStore) Snapshot() []*domain.WorkRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyRecords(s.records, nil)
}

func (s *RecordStore) indexOf(id string) int {
	for i, r := range s.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// copyRecords copies the records matching keep (all when keep is nil).
func copyRecords(records []*domain.WorkRecord, keep func(*domain.WorkRecord) bool) []*domain.WorkRecord {
	out := make([]*domain.WorkRecord, 0, len(records))
	for _, r := range records {
		if keep != nil && !keep(r) {
			continue
		}
		copied := *r
		out = append(out, &copied)
	}
	return out
}
