package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/merosman91/Agricultural-Tractor/internal/repository"
	"github.com/merosman91/Agricultural-Tractor/internal/testutil"
	"github.com/stretchr/testify/require"
)

const testKey = "tractor_records"

// testNow is a Sunday afternoon in local time.
var testNow = time.Date(2025, 1, 5, 14, 0, 0, 0, time.Local)

func newTestStore(t *testing.T, opts ...StoreOption) (*RecordStore, *repository.SQLiteBlobStore) {
	t.Helper()
	blobs := testutil.NewTestBlobStore(t)
	opts = append([]StoreOption{WithClock(testutil.FixedClock(testNow))}, opts...)
	store, err := NewRecordStore(context.Background(), blobs, testKey, opts...)
	require.NoError(t, err)
	return store, blobs
}

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (o *recordingObserver) ObserveUseCase(_ context.Context, event UseCaseEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

func (o *recordingObserver) names() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.events))
	for _, e := range o.events {
		out = append(out, e.Name)
	}
	return out
}

type failingBlobStore struct {
	err error
}

func (f failingBlobStore) Get(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingBlobStore) Put(context.Context, string, []byte) error { return f.err }
func (f failingBlobStore) Delete(context.Context, string) error { return f.err }
