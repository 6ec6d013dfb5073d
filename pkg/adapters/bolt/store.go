// Package bolt stores session snapshots in a local bbolt database file.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/majbot/pkg/domain"
	bolt "go.etcd.io/bbolt"
)

// DefaultBucket holds one JSON snapshot per session id.
const DefaultBucket = "sessions"

// Store implements ports.SessionStore on a bbolt file.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

type Option func(*Store)

// WithBucket overrides DefaultBucket.
func WithBucket(name string) Option {
	return func(s *Store) {
		s.bucket = []byte(name)
	}
}

// Open opens (or creates) the database at path.
// bbolt holds an exclusive file lock, so a second Open of the same path waits up to a second.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store %s: %w", path, err)
	}

	s := &Store{db: db, bucket: []byte(DefaultBucket)}
	for _, opt := range opts {
		opt(s)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(s.bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return s, nil
}

// Close releases the database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists the snapshot under its session id.
func (s *Store) Save(ctx context.Context, session *domain.Session) error {
	snap := session.Clone()
	snap.UpdatedAt = time.Now()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(snap.ID), data)
	})
}

// Load retrieves the snapshot of a session.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	var sess domain.Session
	err := s.db.View(func(tx *bolt.Tx) error {
		bs := tx.Bucket(s.bucket).Get([]byte(sessionID))
		if bs == nil {
			return domain.ErrSessionNotFound
		}
		return json.Unmarshal(bs, &sess)
	})
	if err != nil {
		return nil, err
	}
	if sess.Dictionary == nil {
		sess.Dictionary = make(map[string]string)
	}
	return &sess, nil
}

// Delete removes the snapshot of a session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(sessionID))
	})
}

// List returns the stored session ids in key order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			ids = append(ids, string(k))
		}
		return nil
	})
	return ids, err
}
