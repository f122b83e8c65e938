package offline

import (
	"context"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

const (
	regionMarkerPrefix = "r\x00"
	entryPrefix        = "e\x00"
)

// BadgerStorage persists regions in an embedded badger database. Each region
// has a marker key; entries live under a per-region key prefix so a region
// can be dropped wholesale.
type BadgerStorage struct {
	db *badger.DB
}

// OpenBadgerStorage opens (or creates) a database in dir. An empty dir keeps
// everything in memory.
func OpenBadgerStorage(dir string) (*BadgerStorage, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}
	return &BadgerStorage{db: db}, nil
}

func markerKey(region string) []byte {
	return []byte(regionMarkerPrefix + region)
}

func regionEntryPrefix(region string) []byte {
	return []byte(entryPrefix + region + "\x00")
}

func entryKey(region, url string) []byte {
	return append(regionEntryPrefix(region), url...)
}

func (s *BadgerStorage) Open(_ context.Context, region string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(markerKey(region), []byte{})
	})
}

func (s *BadgerStorage) Match(_ context.Context, region, url string) (*Response, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(entryKey(region, url))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}
	return decodeEntry(data)
}

func (s *BadgerStorage) Put(_ context.Context, region, url string, resp *Response) error {
	data, err := encodeEntry(resp)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(markerKey(region)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("%s: %w", region, ErrRegionNotFound)
			}
			return err
		}
		return txn.Set(entryKey(region, url), data)
	})
}

func (s *BadgerStorage) Regions(_ context.Context) ([]string, error) {
	var out []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(regionMarkerPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			out = append(out, string(it.Item().Key()[len(regionMarkerPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing cache regions: %w", err)
	}
	return sortedStrings(out), nil
}

// DeleteRegion removes the marker first so concurrent Puts into the region
// fail, then deletes its entries in a write batch.
func (s *BadgerStorage) DeleteRegion(_ context.Context, region string) error {
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(markerKey(region))
	}); err != nil {
		return fmt.Errorf("deleting region marker %s: %w", region, err)
	}

	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = regionEntryPrefix(region)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scanning region %s: %w", region, err)
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return fmt.Errorf("deleting entries of %s: %w", region, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("deleting entries of %s: %w", region, err)
	}
	return nil
}

func (s *BadgerStorage) Close() error {
	return s.db.Close()
}
