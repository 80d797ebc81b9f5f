// Package viewer opens a node database read-only and streams its column
// families as decoded display rows.
//
// The flow is Open -> Resolve -> Iterate: a Store owns the engine handle and
// the family list captured at open time, a ColumnFamily pairs a family name
// with its catalog layout, and Rows decodes one entry per Next call.
package viewer

import (
	"fmt"
	"slices"
	"time"

	"dbviewer/internal/logging"
	"dbviewer/internal/repr"
	"dbviewer/internal/store"
	boltstore "dbviewer/internal/store/bolt"
	ldbstore "dbviewer/internal/store/leveldb"
	rocksstore "dbviewer/internal/store/rocksdb"
)

// DefaultRowLimit is the number of rows a presentation layer shows per
// family unless configured otherwise.
const DefaultRowLimit = 10_000

var logger = logging.For("viewer")

// Options control how Open picks and opens the engine.
type Options struct {
	Engine store.Engine // empty or EngineAuto detects from the path
	// Timeout bounds the wait for a bbolt file lock. Zero waits forever.
	Timeout time.Duration
}

// Store is an opened database. It is owned by one goroutine; scans and the
// Store itself are not safe for concurrent use.
type Store struct {
	path     string
	engine   store.Store
	families []string
	index    map[string]struct{}
	open     map[*Rows]struct{}
}

// ColumnFamily is a family of an opened Store together with its decoders.
// It is only valid while the Store is open.
type ColumnFamily struct {
	Name   string
	Layout repr.Layout
	store  *Store
}

// Open opens the store at path read-only. It makes a single attempt; any
// failure is returned as *OpenError.
func Open(path string, opts Options) (*Store, error) {
	engine := opts.Engine
	if engine == "" || engine == store.EngineAuto {
		detected, err := store.Detect(path)
		if err != nil {
			return nil, &OpenError{Path: path, Err: err}
		}
		engine = detected
	}

	logger.Debug("opening store", "path", path, "engine", engine)

	var (
		st  store.Store
		err error
	)
	switch engine {
	case store.EngineBolt:
		st, err = boltstore.Open(path, opts.Timeout)
	case store.EngineLevelDB:
		st, err = ldbstore.Open(path)
	case store.EngineRocksDB:
		st, err = rocksstore.Open(path)
	default:
		err = fmt.Errorf("unknown engine %q", engine)
	}
	if err != nil {
		return nil, &OpenError{Path: path, Err: err}
	}

	s := newStore(path, st)
	logger.Info("opened store", "path", path, "engine", engine, "families", len(s.families))
	return s, nil
}

func newStore(path string, st store.Store) *Store {
	families := slices.Clone(st.Families())
	index := make(map[string]struct{}, len(families))
	for _, name := range families {
		index[name] = struct{}{}
	}
	return &Store{
		path:     path,
		engine:   st,
		families: families,
		index:    index,
		open:     make(map[*Rows]struct{}),
	}
}

// Path returns the location the store was opened from.
func (s *Store) Path() string {
	return s.path
}

// ColumnFamilies returns the family names captured at open time. Families
// created afterwards are not listed.
func (s *Store) ColumnFamilies() []string {
	return slices.Clone(s.families)
}

// Resolve looks up a family by exact name. Names missing from the store
// yield *LookupError; names missing from the catalog still resolve, with
// repr.DefaultLayout.
func (s *Store) Resolve(name string) (*ColumnFamily, error) {
	if _, ok := s.index[name]; !ok {
		return nil, &LookupError{Name: name}
	}
	return &ColumnFamily{Name: name, Layout: repr.Lookup(name), store: s}, nil
}

// Close ends any scans still open and releases the engine. A Store can be
// reopened from the same path afterwards.
func (s *Store) Close() error {
	for rows := range s.open {
		rows.Close()
	}
	return s.engine.Close()
}
