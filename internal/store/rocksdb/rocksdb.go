//go:build rocksdb

package rocksdb

import (
	"fmt"

	"dbviewer/internal/logging"
	"dbviewer/internal/store"

	"github.com/linxGnu/grocksdb"
)

var logger = logging.For("store.rocksdb")

// Store implements store.Store over a RocksDB directory opened read-only
// with every column family it lists.
type Store struct {
	db       *grocksdb.DB
	opts     *grocksdb.Options
	ro       *grocksdb.ReadOptions
	families []string
	handles  map[string]*grocksdb.ColumnFamilyHandle
}

// Open lists the column families of the store at path and opens it
// read-only with all of them.
func Open(path string) (*Store, error) {
	opts := grocksdb.NewDefaultOptions()
	names, err := grocksdb.ListColumnFamilies(opts, path)
	if err != nil {
		opts.Destroy()
		return nil, fmt.Errorf("listing column families: %w", err)
	}

	cfOpts := make([]*grocksdb.Options, len(names))
	for i := range cfOpts {
		cfOpts[i] = opts
	}
	db, list, err := grocksdb.OpenDbForReadOnlyColumnFamilies(opts, path, names, cfOpts, false)
	if err != nil {
		opts.Destroy()
		return nil, fmt.Errorf("opening rocksdb: %w", err)
	}

	handles := make(map[string]*grocksdb.ColumnFamilyHandle, len(names))
	for i, name := range names {
		handles[name] = list[i]
	}
	ro := grocksdb.NewDefaultReadOptions()
	ro.SetFillCache(false)

	logger.Debug("opened rocksdb", "path", path, "families", len(names))
	return &Store{db: db, opts: opts, ro: ro, families: names, handles: handles}, nil
}

func (s *Store) Families() []string {
	return s.families
}

func (s *Store) Scan(family string) (store.Cursor, error) {
	h, ok := s.handles[family]
	if !ok {
		return nil, fmt.Errorf("column family %q: %w", family, store.ErrFamilyNotFound)
	}
	return &cursor{it: s.db.NewIteratorCF(s.ro, h)}, nil
}

// Close releases the handles and the database. Open cursors must be closed
// first.
func (s *Store) Close() error {
	for _, h := range s.handles {
		h.Destroy()
	}
	s.db.Close()
	s.ro.Destroy()
	s.opts.Destroy()
	return nil
}

type cursor struct {
	it      *grocksdb.Iterator
	started bool
	closed  bool
	err     error
}

func (c *cursor) Next() bool {
	if c.closed {
		return false
	}
	if c.started {
		c.it.Next()
	} else {
		c.it.SeekToFirst()
		c.started = true
	}
	return c.it.Valid()
}

func (c *cursor) Key() []byte {
	if c.closed || !c.it.Valid() {
		return nil
	}
	return c.it.Key().Data()
}

func (c *cursor) Value() []byte {
	if c.closed || !c.it.Valid() {
		return nil
	}
	return c.it.Value().Data()
}

func (c *cursor) Err() error {
	if c.closed {
		return c.err
	}
	return c.it.Err()
}

func (c *cursor) Close() error {
	if !c.closed {
		c.err = c.it.Err()
		c.it.Close()
		c.closed = true
	}
	return nil
}
