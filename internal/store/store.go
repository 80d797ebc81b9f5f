package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrFamilyNotFound = errors.New("column family not found")
	ErrUnrecognized   = errors.New("not a recognized store")
)

// Store is a read-only key-value storage interface partitioned into named
// column families. Implementations back it with bbolt buckets or LevelDB key
// prefixes; nothing above this package knows which.
type Store interface {
	// Families returns the column family names captured when the store was
	// opened, in engine order.
	Families() []string
	// Scan starts a forward scan of family from its first key.
	Scan(family string) (Cursor, error)
	Close() error
}

// Cursor is a forward-only scan over one column family. Key and Value are
// only valid until the next call to Next. Close must be called once the
// caller stops pulling, even after Next has returned false.
type Cursor interface {
	Next() bool
	Key() []byte
	Value() []byte
	Err() error
	Close() error
}

// Engine names an on-disk store format.
type Engine string

const (
	EngineAuto    Engine = "auto"
	EngineBolt    Engine = "bolt"
	EngineLevelDB Engine = "leveldb"
	EngineRocksDB Engine = "rocksdb"
)

// ParseEngine accepts "auto", "bolt", "leveldb" or "rocksdb" (case-insensitive).
// An empty string means auto.
func ParseEngine(s string) (Engine, error) {
	switch e := Engine(strings.ToLower(strings.TrimSpace(s))); e {
	case "", EngineAuto:
		return EngineAuto, nil
	case EngineBolt, EngineLevelDB, EngineRocksDB:
		return e, nil
	default:
		return "", fmt.Errorf("unknown engine %q (want auto, bolt, leveldb or rocksdb)", s)
	}
}

// Detect guesses the engine for path: a regular file is bolt, a directory
// holding a CURRENT file is rocksdb when RocksDB left an OPTIONS file next to
// it and leveldb otherwise.
func Detect(path string) (Engine, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Mode().IsRegular() {
		return EngineBolt, nil
	}
	if info.IsDir() {
		if _, err := os.Stat(filepath.Join(path, "CURRENT")); err == nil {
			if opts, _ := filepath.Glob(filepath.Join(path, "OPTIONS-*")); len(opts) > 0 {
				return EngineRocksDB, nil
			}
			return EngineLevelDB, nil
		}
	}
	return "", fmt.Errorf("%s: %w", path, ErrUnrecognized)
}
