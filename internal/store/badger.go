package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// Pair is one stored record.
type Pair struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

type badgerStore struct {
	db     *badgerhold.Store
	logger arbor.ILogger
}

// OpenBadger opens an on-disk store at path, or an in-memory one when path
// is empty.
func OpenBadger(path string, logger arbor.ILogger) (Store, error) {
	options := badgerhold.DefaultOptions
	options.Logger = nil
	if path == "" {
		options.InMemory = true
	} else {
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		options.Dir = path
		options.ValueDir = path
	}

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}
	logger.Debug().Str("path", path).Bool("in_memory", path == "").Msg("Badger store opened")
	return &badgerStore{db: db, logger: logger}, nil
}

func (s *badgerStore) Get(_ context.Context, key string) (string, error) {
	var pair Pair
	err := s.db.Get(key, &pair)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get %s: %w", key, err)
	}
	return pair.Value, nil
}

func (s *badgerStore) Set(_ context.Context, key, value string) error {
	if err := s.db.Upsert(key, &Pair{Key: key, Value: value, UpdatedAt: time.Now()}); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *badgerStore) Delete(_ context.Context, key string) error {
	err := s.db.Delete(key, &Pair{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *badgerStore) Close() error {
	return s.db.Close()
}
