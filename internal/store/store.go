// AppGuard - On-Device Application Threat Scanning
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/appguard

package store

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/goccy/go-json"

	"github.com/tomtom215/appguard/internal/eventlog"
	"github.com/tomtom215/appguard/internal/logging"
)

// prefixLog namespaces event log entries. The suffix is the big-endian
// entry id, so key order is id order.
const prefixLog = "log:"

// Errors
var (
	// ErrStoreClosed is returned when the store is closed.
	ErrStoreClosed = errors.New("store is closed")

	// ErrInvalidID is returned for entries without a positive id.
	ErrInvalidID = errors.New("entry id must be positive")
)

// BadgerStore persists event log entries in BadgerDB.
// It implements eventlog.Store.
type BadgerStore struct {
	db     *badger.DB
	config Config

	mu     sync.RWMutex
	closed bool
}

var _ eventlog.Store = (*BadgerStore)(nil)

// Open creates a BadgerStore with the given configuration.
// The database is opened (or created) at the configured path.
func Open(cfg *Config) (*BadgerStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store config: %w", err)
	}

	s, err := open(cfg)
	if err != nil {
		return nil, err
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("sync_writes", cfg.SyncWrites).
		Bool("compression", cfg.Compression).
		Msg("Event store opened")
	return s, nil
}

// OpenForTesting opens a store without validation, filling zero tuning
// fields with defaults. Do not use in production code.
func OpenForTesting(cfg *Config) (*BadgerStore, error) {
	filled := cfg.withDefaults()
	return open(&filled)
}

func open(cfg *Config) (*BadgerStore, error) {
	opts := badger.DefaultOptions(cfg.Path)
	opts.SyncWrites = cfg.SyncWrites
	opts.MemTableSize = cfg.MemTableSize
	opts.ValueLogFileSize = cfg.ValueLogFileSize
	opts.NumCompactors = cfg.NumCompactors

	if cfg.Compression {
		opts.Compression = options.Snappy
	}

	// Badger's own logger is far too chatty for a daemon.
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	return &BadgerStore{db: db, config: *cfg}, nil
}

func entryKey(id int64) []byte {
	key := make([]byte, len(prefixLog)+8)
	copy(key, prefixLog)
	binary.BigEndian.PutUint64(key[len(prefixLog):], uint64(id))
	return key
}

func (s *BadgerStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Insert writes one entry. Re-inserting an id overwrites it.
func (s *BadgerStore) Insert(ctx context.Context, entry eventlog.Entry) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry.ID <= 0 {
		return ErrInvalidID
	}

	start := time.Now()

	data, err := json.Marshal(&entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(entry.ID), data)
	})
	if err != nil {
		RecordWriteFailure()
		return fmt.Errorf("write to BadgerDB: %w", err)
	}

	RecordWrite(time.Since(start).Seconds())
	return nil
}

// DeleteAll removes every stored entry.
func (s *BadgerStore) DeleteAll(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.db.DropPrefix([]byte(prefixLog)); err != nil {
		return fmt.Errorf("drop entries: %w", err)
	}

	RecordClear()
	return nil
}

// All returns every stored entry in ascending id order.
//
// Reads run inside a single View transaction, so the result is a
// consistent snapshot even while the persister is writing.
func (s *BadgerStore) All(ctx context.Context) ([]eventlog.Entry, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var entries []eventlog.Entry

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixLog)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			var entry eventlog.Entry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				logging.Warn().
					Err(err).
					Str("key", fmt.Sprintf("%x", it.Item().Key())).
					Msg("Skipping unreadable event log entry")
				continue
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}

	RecordRestored(len(entries))
	return entries, nil
}

// Count returns the number of stored entries without decoding values.
func (s *BadgerStore) Count(ctx context.Context) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	var n int
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixLog)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// RunGC runs value log garbage collection until nothing is left to rewrite.
func (s *BadgerStore) RunGC() error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	start := time.Now()
	defer func() {
		RecordGC(time.Since(start).Seconds())
	}()

	for {
		err := s.db.RunValueLogGC(s.config.GCRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// Config returns the store configuration.
func (s *BadgerStore) Config() Config {
	return s.config
}

// Close shuts down BadgerDB, giving up after CloseTimeout.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	timeout := s.config.CloseTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- s.db.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("close BadgerDB: %w", err)
		}
		logging.Info().Msg("Event store closed")
		return nil
	case <-time.After(timeout):
		logging.Warn().Dur("timeout", timeout).Msg("BadgerDB close timed out")
		return fmt.Errorf("badgerdb close timeout after %v", timeout)
	}
}
