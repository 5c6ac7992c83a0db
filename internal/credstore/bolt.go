package credstore

import (
	"context"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
)

var credentialsBucket = []byte("credentials")

// BoltBackend persists values in a local bolt file, one bucket per store.
type BoltBackend struct {
	db *bolt.DB
}

// OpenBolt opens (or creates) the bolt file at path.
func OpenBolt(path string) (*BoltBackend, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(credentialsBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &BoltBackend{db: db}, nil
}

// Close releases the file lock.
func (b *BoltBackend) Close() error {
	return b.db.Close()
}

func (b *BoltBackend) Ping(context.Context) error {
	return b.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(credentialsBucket) == nil {
			return fmt.Errorf("bucket %s missing", credentialsBucket)
		}
		return nil
	})
}

func (b *BoltBackend) Get(_ context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(credentialsBucket).Get([]byte(key))
		if raw == nil {
			return nil
		}
		// raw is only valid inside the transaction.
		value = string(raw)
		found = true
		return nil
	})
	return value, found, err
}

func (b *BoltBackend) Set(_ context.Context, key, value string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(credentialsBucket).Put([]byte(key), []byte(value))
	})
}

func (b *BoltBackend) Delete(_ context.Context, key string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(credentialsBucket).Delete([]byte(key))
	})
}

func (b *BoltBackend) Clear(context.Context) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(credentialsBucket); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(credentialsBucket)
		return err
	})
}
