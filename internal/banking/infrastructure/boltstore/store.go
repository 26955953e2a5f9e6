package boltstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"cardbank/internal/banking/domain"
	"cardbank/internal/banking/infrastructure/filestore"
)

// bucketAccounts holds one JSON record per account keyed by position.
const bucketAccounts = "accounts"

// Store keeps the account collection in a single bbolt database file.
// Each save rewrites the bucket inside one bolt transaction, so a crash leaves either the old or the new collection.
type Store struct {
	db *bolt.DB
}

var _ domain.Store = (*Store)(nil)

// Open opens (or creates) the database at path and initializes the bucket.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketAccounts)); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketAccounts, err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the accounts in saved order. An empty bucket yields (nil, nil).
func (s *Store) Load(ctx context.Context) ([]*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var accounts []*domain.Account
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketAccounts))
		if b == nil {
			return fmt.Errorf("bucket %s not found", bucketAccounts)
		}

		return b.ForEach(func(k, v []byte) error {
			var record filestore.Record
			if err := json.Unmarshal(v, &record); err != nil {
				return fmt.Errorf("record %d: %w", btoi(k), err)
			}
			account, err := record.ToAccount()
			if err != nil {
				return fmt.Errorf("record %d: %w", btoi(k), err)
			}
			accounts = append(accounts, account)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrStoreUnreadable, err)
	}
	return accounts, nil
}

// Save replaces the bucket content with every account.
func (s *Store) Save(ctx context.Context, accounts []*domain.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(bucketAccounts)) != nil {
			if err := tx.DeleteBucket([]byte(bucketAccounts)); err != nil {
				return fmt.Errorf("clearing bucket %s: %w", bucketAccounts, err)
			}
		}
		b, err := tx.CreateBucket([]byte(bucketAccounts))
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketAccounts, err)
		}

		for i, account := range accounts {
			data, err := json.Marshal(filestore.NewRecord(account))
			if err != nil {
				return fmt.Errorf("failed to marshal account: %w", err)
			}
			if err := b.Put(itob(uint64(i)), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// itob returns an 8-byte big endian representation of v so keys sort by position.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func btoi(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}
