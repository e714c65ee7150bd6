package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"queuesweep/internal/sweep"
)

const (
	BucketRuns = "runs"
)

var ErrNotFound = errors.New("run not found")

type Store struct {
	db       *bbolt.DB
	filePath string
}

// Open opens or creates the run store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating store directory")
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, errors.Wrapf(err, "opening run store %s", path)
	}

	// Initialize Buckets
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BucketRuns))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:       db,
		filePath: path,
	}, nil
}

func (s *Store) Path() string { return s.filePath }

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save stores the result under its ID. Run IDs are time-ordered, so keys
// sort by start time.
func (s *Store) Save(res *sweep.Result) error {
	if res.ID == "" {
		return errors.New("result has no ID")
	}
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(BucketRuns)).Put([]byte(res.ID), data)
	})
}

// List returns up to limit runs, newest first. limit <= 0 returns all.
func (s *Store) List(limit int) ([]*sweep.Result, error) {
	var items []*sweep.Result

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(BucketRuns)).Cursor()

		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(items) >= limit {
				break
			}
			var item sweep.Result
			if err := json.Unmarshal(v, &item); err != nil {
				return errors.Wrapf(err, "decoding run %s", k)
			}
			items = append(items, &item)
		}
		return nil
	})
	return items, err
}

// Get returns the run whose ID is id or starts with id. An ambiguous prefix
// is an error.
func (s *Store) Get(id string) (*sweep.Result, error) {
	var item sweep.Result
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketRuns))
		if v := b.Get([]byte(id)); v != nil {
			return json.Unmarshal(v, &item)
		}

		prefix := []byte(id)
		var match []byte
		c := b.Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if match != nil {
				return errors.Errorf("run ID prefix %q is ambiguous", id)
			}
			match = v
		}
		if match == nil {
			return errors.Wrap(ErrNotFound, id)
		}
		return json.Unmarshal(match, &item)
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}
