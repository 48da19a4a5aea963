// EFV Compass - Credit Report EFV Recommendation Engine
// Copyright 2026 R. Vense (rvense)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/rvense/efvcompass

package corpus

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/rvense/efvcompass/internal/efv"
	"github.com/rvense/efvcompass/internal/logging"
)

// Key prefixes for BadgerDB storage.
const (
	itemKeyPrefix   = "item:"
	reportKeyPrefix = "report:"
)

// StoreConfig configures the durable corpus store.
type StoreConfig struct {
	// Path is the BadgerDB directory. Empty selects an in-memory database,
	// which loses the corpus on restart.
	Path string `koanf:"path" json:"path"`
}

// DefaultStoreConfig returns an in-memory store configuration.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{}
}

// Store persists raw items and reports in BadgerDB so the index can be
// rebuilt on startup. It is append-only from the index's point of view:
// writes land here first, then merge into the index.
type Store struct {
	db *badger.DB
}

// OpenStore opens the BadgerDB at cfg.Path, or an in-memory database when
// the path is empty.
func OpenStore(cfg StoreConfig) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithLogger(badgerLogger{logging.Component("corpus-store")})
	if cfg.Path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open corpus store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// PutItem persists an item keyed by its snowflake ID. The zero-padded key
// keeps iteration order equal to assignment order.
func (s *Store) PutItem(item *efv.Item) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal item %d: %w", item.ID, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(itemKey(item.ID), data)
	})
}

// PutReport persists a report keyed by its snowflake ID.
func (s *Store) PutReport(r *efv.Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report %d: %w", r.ID, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(reportKey(r.ID), data)
	})
}

// LoadInto replays every persisted report and item into the index, reports
// first so items always reference a registered report. Returns the number of
// reports and items replayed.
func (s *Store) LoadInto(idx *Index) (reports, items int, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(reportKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var r efv.Report
			if verr := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); verr != nil {
				return fmt.Errorf("decode report %s: %w", it.Item().Key(), verr)
			}
			if aerr := idx.AddReport(&r); aerr != nil {
				return aerr
			}
			reports++
		}
		return nil
	})
	if err != nil {
		return reports, items, err
	}

	err = s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(itemKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var item efv.Item
			if verr := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &item)
			}); verr != nil {
				return fmt.Errorf("decode item %s: %w", it.Item().Key(), verr)
			}
			if aerr := idx.Add(&item); aerr != nil {
				return aerr
			}
			items++
		}
		return nil
	})
	return reports, items, err
}

func itemKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", itemKeyPrefix, id))
}

func reportKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", reportKeyPrefix, id))
}

// badgerLogger routes BadgerDB's internal logging through zerolog.
type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msgf(format, args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msgf(format, args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msgf(format, args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug().Msgf(format, args...)
}
