package docstore

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

const keyPrefix = "doc:"

// BadgerStore is a Client backed by a local Badger database.
type BadgerStore struct {
	db     *badger.DB
	logger *slog.Logger
}

// OpenBadger opens (or creates) a Badger-backed document store at path.
func OpenBadger(path string, logger *slog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Sync writes to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if logger != nil {
		logger.Info("document store opened", "path", path)
	}

	return &BadgerStore{db: db, logger: logger}, nil
}

// Close gracefully closes the database.
func (s *BadgerStore) Close() error {
	if s.logger != nil {
		s.logger.Info("closing document store")
	}
	return s.db.Close()
}

// Get implements Client.
func (s *BadgerStore) Get(ctx context.Context, path string, dest any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + path))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get %s: %w", path, err)
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, dest); err != nil {
				return fmt.Errorf("failed to unmarshal %s: %w", path, err)
			}
			return nil
		})
	})
}

// Set implements Client.
func (s *BadgerStore) Set(ctx context.Context, path string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+path), data)
	})
}

// Delete implements Client.
func (s *BadgerStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + path))
	})
}

// List implements Client.
func (s *BadgerStore) List(ctx context.Context, prefix string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scan := []byte(keyPrefix + prefix + "/")
	var docs []Document

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = scan
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(scan); it.ValidForPrefix(scan); it.Next() {
			item := it.Item()
			data, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", item.Key(), err)
			}
			docs = append(docs, Document{
				Path: string(item.Key()[len(keyPrefix):]),
				Data: data,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return docs, nil
}
