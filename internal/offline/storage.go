package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Storage holds named cache regions of URL-keyed response snapshots.
// Implementations are safe for concurrent use.
type Storage interface {
	// Open creates the region if it does not exist.
	Open(ctx context.Context, region string) error
	// Match returns the entry for url or ErrCacheMiss.
	Match(ctx context.Context, region, url string) (*Response, error)
	// Put replaces the entry for url. Writing to an unopened region fails
	// with ErrRegionNotFound.
	Put(ctx context.Context, region, url string, resp *Response) error
	Regions(ctx context.Context) ([]string, error)
	DeleteRegion(ctx context.Context, region string) error
	Close() error
}

func encodeEntry(resp *Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encoding cache entry: %w", err)
	}
	return data, nil
}

func decodeEntry(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decoding cache entry: %w", err)
	}
	return &resp, nil
}

// MemoryStorage keeps regions in process memory. Entries are lost on exit.
type MemoryStorage struct {
	mu      sync.RWMutex
	regions map[string]map[string]*Response
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{regions: make(map[string]map[string]*Response)}
}

func (s *MemoryStorage) Open(_ context.Context, region string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.regions[region]; !ok {
		s.regions[region] = make(map[string]*Response)
	}
	return nil
}

func (s *MemoryStorage) Match(_ context.Context, region, url string) (*Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp, ok := s.regions[region][url]
	if !ok {
		return nil, ErrCacheMiss
	}
	return resp.Clone(), nil
}

func (s *MemoryStorage) Put(_ context.Context, region, url string, resp *Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, ok := s.regions[region]
	if !ok {
		return fmt.Errorf("%s: %w", region, ErrRegionNotFound)
	}
	entries[url] = resp.Clone()
	return nil
}

func (s *MemoryStorage) Regions(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.regions))
	for name := range s.regions {
		out = append(out, name)
	}
	return sortedStrings(out), nil
}

func (s *MemoryStorage) DeleteRegion(_ context.Context, region string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.regions, region)
	return nil
}

func (s *MemoryStorage) Close() error { return nil }
