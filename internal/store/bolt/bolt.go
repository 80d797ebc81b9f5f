package bolt

import (
	"fmt"
	"os"
	"time"

	"dbviewer/internal/logging"
	"dbviewer/internal/store"

	bolt "go.etcd.io/bbolt"
)

var logger = logging.For("store.bolt")

// Store implements store.Store over a bbolt file. Each top-level bucket is a
// column family.
type Store struct {
	db       *bolt.DB
	families []string
}

// Open opens the bbolt database at path read-only and captures its bucket
// names. timeout bounds the wait for the file lock; zero waits forever.
func Open(path string, timeout time.Duration) (*Store, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", path, store.ErrUnrecognized)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{ReadOnly: true, Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db: %w", err)
	}

	var families []string
	err = db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			families = append(families, string(name))
			return nil
		})
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("listing buckets: %w", err)
	}
	logger.Debug("opened bolt db", "path", path, "buckets", len(families))
	return &Store{db: db, families: families}, nil
}

func (s *Store) Families() []string {
	return s.families
}

// Scan opens a read transaction that lives until the cursor is closed.
func (s *Store) Scan(family string) (store.Cursor, error) {
	tx, err := s.db.Begin(false)
	if err != nil {
		return nil, fmt.Errorf("beginning read tx: %w", err)
	}
	b := tx.Bucket([]byte(family))
	if b == nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("bucket %q: %w", family, store.ErrFamilyNotFound)
	}
	return &cursor{tx: tx, c: b.Cursor()}, nil
}

// Close releases the file lock. Open cursors must be closed first; bbolt
// waits for outstanding read transactions.
func (s *Store) Close() error {
	return s.db.Close()
}

type cursor struct {
	tx      *bolt.Tx
	c       *bolt.Cursor
	started bool
	key     []byte
	value   []byte
}

func (c *cursor) Next() bool {
	if c.tx == nil {
		return false
	}
	if c.started {
		c.key, c.value = c.c.Next()
	} else {
		c.key, c.value = c.c.First()
		c.started = true
	}
	// A nil value marks a nested bucket; it is shown as an empty value.
	return c.key != nil
}

func (c *cursor) Key() []byte   { return c.key }
func (c *cursor) Value() []byte { return c.value }

// Err is always nil: bbolt reads from the mmap and cannot fail mid-scan.
func (c *cursor) Err() error { return nil }

func (c *cursor) Close() error {
	if c.tx == nil {
		return nil
	}
	err := c.tx.Rollback()
	c.tx = nil
	c.key, c.value = nil, nil
	return err
}
