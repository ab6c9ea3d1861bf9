// Copyright 2026 StrataDB
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package badger implements storage.VectorStore on an embedded BadgerDB.
//
// Records are stored under namespace-prefixed keys, so several namespaces
// can share one database directory without observing each other's data.
// Similarity search is a full prefix scan with cosine scoring; it is meant
// for the moderate per-layer corpus sizes strata targets, not for
// billion-vector workloads.
package badger

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/stratadb/strata/core"
	"github.com/stratadb/strata/storage"
)

// Store is a VectorStore backed by BadgerDB. Construction performs no I/O;
// Initialize opens the database.
type Store struct {
	namespace string
	path      string
	inMemory  bool
	threshold float32
	logger    *slog.Logger

	mu sync.Mutex
	db *badger.DB
}

var _ storage.VectorStore = (*Store)(nil)

const defaultThreshold = 0.2

// New constructs a Store for the given namespace. It matches the
// storage.VectorFactory signature.
func New(namespace string, cfg storage.Config) (storage.VectorStore, error) {
	if ok, problems := storage.ValidateConfig(storage.KindVector, cfg); !ok {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidConfig, problems)
	}

	threshold := cfg.Threshold
	if threshold == 0 {
		threshold = defaultThreshold
	}

	return &Store{
		namespace: namespace,
		path:      cfg.Path,
		inMemory:  cfg.InMemory,
		threshold: threshold,
		logger:    slog.Default().With("component", "badger-store", "namespace", namespace),
	}, nil
}

// badgerLoggerAdapter adapts slog.Logger to the badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Initialize opens the BadgerDB database, creating the directory if needed.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	var opts badger.Options
	if s.inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(s.path)
		if err != nil {
			if !os.IsNotExist(err) {
				return err
			}
			if err := os.MkdirAll(s.path, 0755); err != nil {
				return err
			}
		} else if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", s.path)
		}
		opts = badger.DefaultOptions(s.path)
	}

	opts.Logger = &badgerLoggerAdapter{logger: s.logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return err
	}

	s.db = db
	return nil
}

// Finalize closes the database.
func (s *Store) Finalize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Ping reports whether the database is open.
func (s *Store) Ping(ctx context.Context) error {
	db, err := s.handle()
	if err != nil {
		return err
	}
	if db.IsClosed() {
		return storage.ErrStorageClosed
	}
	return nil
}

func (s *Store) handle() (*badger.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}
	return s.db, nil
}

// Upsert stores records, replacing existing records with the same ID.
// Records without an InsertedAt timestamp get the current time.
func (s *Store) Upsert(ctx context.Context, records ...*core.VectorRecord) error {
	db, err := s.handle()
	if err != nil {
		return err
	}

	return db.Update(func(tx *badger.Txn) error {
		for _, record := range records {
			if record.InsertedAt.IsZero() {
				record.InsertedAt = time.Now().UTC()
			}
			key := makeRecordKey(s.namespace, record.ID)
			if err := tx.Set(key, storage.MarshalVectorRecord(record)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Query scans the namespace and returns up to topK records whose cosine
// similarity to the query vector meets the store threshold, ordered by
// descending similarity.
func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]*core.Match, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	var matches []*core.Match
	err = db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = namespacePrefix(s.namespace)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.VectorRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalVectorRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if record == nil || len(record.Vector) == 0 {
				continue
			}

			similarity := cosineSimilarity(vector, record.Vector)
			if similarity >= float64(s.threshold) {
				matches = append(matches, &core.Match{
					Record: record,
					Score:  similarity,
				})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(matches, func(a, b *core.Match) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Has reports whether a record with the given ID exists in the namespace.
func (s *Store) Has(ctx context.Context, id string) (bool, error) {
	db, err := s.handle()
	if err != nil {
		return false, err
	}

	found := false
	err = db.View(func(tx *badger.Txn) error {
		_, err := tx.Get(makeRecordKey(s.namespace, id))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

// Delete removes records by ID. Missing IDs are ignored.
func (s *Store) Delete(ctx context.Context, ids ...string) error {
	db, err := s.handle()
	if err != nil {
		return err
	}

	return db.Update(func(tx *badger.Txn) error {
		for _, id := range ids {
			if err := tx.Delete(makeRecordKey(s.namespace, id)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Drop removes every record in the namespace.
func (s *Store) Drop(ctx context.Context) error {
	db, err := s.handle()
	if err != nil {
		return err
	}
	return db.DropPrefix(namespacePrefix(s.namespace))
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched lengths are compared over the shorter prefix.
func cosineSimilarity(a, b []float32) float64 {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
