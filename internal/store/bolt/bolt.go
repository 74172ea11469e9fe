// Package bolt provides a BoltDB-backed transaction store.
//
// All records live in a single bucket keyed by id. Each value carries the
// bucket sequence assigned at creation, which orders records that share a
// date and is never handed out twice.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	bolt "github.com/boltdb/bolt"
	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

const bucketName = "transactions"

var (
	_ store.TransactionStore = (*Store)(nil)
	_ store.Pinger           = (*Store)(nil)
)

type record struct {
	Seq  uint64           `json:"seq"`
	Data core.Transaction `json:"data"`
}

// Store wraps a BoltDB database file.
type Store struct {
	db *bolt.DB
}

// New opens (or creates) the database at path and ensures the bucket exists.
func New(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Create(_ context.Context, f core.TransactionFields) (core.Transaction, error) {
	if err := f.Validate(); err != nil {
		return core.Transaction{}, err
	}
	t := f.WithID(uuid.NewString())

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return put(b, record{Seq: seq, Data: t})
	})
	if err != nil {
		return core.Transaction{}, core.WrapPersistence("create", err)
	}
	return t, nil
}

// ListAll returns every record, newest first; equal dates keep creation order.
func (s *Store) ListAll(_ context.Context) ([]core.Transaction, error) {
	var recs []record
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(_, v []byte) error {
			var r record
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			recs = append(recs, r)
			return nil
		})
	})
	if err != nil {
		return nil, core.WrapPersistence("list", err)
	}

	slices.SortFunc(recs, func(a, b record) int {
		if c := b.Data.Date.Compare(a.Data.Date); c != 0 {
			return c
		}
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		}
		return 0
	})

	out := make([]core.Transaction, len(recs))
	for i, r := range recs {
		out[i] = r.Data
	}
	return out, nil
}

func (s *Store) Get(_ context.Context, id string) (core.Transaction, error) {
	var r record
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		r, err = get(tx.Bucket([]byte(bucketName)), id)
		return err
	})
	if err != nil {
		return core.Transaction{}, core.WrapPersistence("get", err)
	}
	return r.Data, nil
}

func (s *Store) Update(_ context.Context, id string, f core.TransactionFields) (core.Transaction, error) {
	if err := f.Validate(); err != nil {
		return core.Transaction{}, err
	}
	var out core.Transaction
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		r, err := get(b, id)
		if err != nil {
			return err
		}
		r.Data = f.WithID(id)
		out = r.Data
		return put(b, r)
	})
	if err != nil {
		return core.Transaction{}, core.WrapPersistence("update", err)
	}
	return out, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b.Get([]byte(id)) == nil {
			return fmt.Errorf("delete %s: %w", id, core.ErrNotFound)
		}
		return b.Delete([]byte(id))
	})
	return core.WrapPersistence("delete", err)
}

// Ping runs an empty read transaction.
func (s *Store) Ping(context.Context) error {
	return s.db.View(func(*bolt.Tx) error { return nil })
}

func get(b *bolt.Bucket, id string) (record, error) {
	var r record
	v := b.Get([]byte(id))
	if v == nil {
		return r, fmt.Errorf("get %s: %w", id, core.ErrNotFound)
	}
	if err := json.Unmarshal(v, &r); err != nil {
		return r, fmt.Errorf("decode %s: %w", id, err)
	}
	return r, nil
}

func put(b *bolt.Bucket, r record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return b.Put([]byte(r.Data.ID), data)
}
