package leveldb

import (
	"bytes"
	"fmt"

	"dbviewer/internal/logging"
	"dbviewer/internal/store"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// Separator ends the family name inside a key: "<family>\x00<user key>".
const Separator = 0x00

// DefaultFamily holds keys that carry no family prefix.
const DefaultFamily = "default"

var logger = logging.For("store.leveldb")

// FamilyKey builds the on-disk key for key in family.
func FamilyKey(family string, key []byte) []byte {
	if family == "" {
		return append([]byte(nil), key...)
	}
	out := make([]byte, 0, len(family)+1+len(key))
	out = append(out, family...)
	out = append(out, Separator)
	return append(out, key...)
}

// splitKey returns the family name and user key of k. Keys without a
// separator, or with an empty name, are not prefixed.
func splitKey(k []byte) (family string, userKey []byte, prefixed bool) {
	i := bytes.IndexByte(k, Separator)
	if i <= 0 {
		return DefaultFamily, k, false
	}
	return string(k[:i]), k[i+1:], true
}

func familyRange(family string) *util.Range {
	return util.BytesPrefix(FamilyKey(family, nil))
}

// Store implements store.Store over a LevelDB directory.
type Store struct {
	db       *leveldb.DB
	families []string
	known    map[string]struct{}
}

// Open opens the LevelDB directory at path read-only and discovers its
// families.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{
		ReadOnly:       true,
		ErrorIfMissing: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening leveldb: %w", err)
	}
	families, err := listFamilies(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("listing families: %w", err)
	}
	known := make(map[string]struct{}, len(families))
	for _, f := range families {
		known[f] = struct{}{}
	}
	logger.Debug("opened leveldb", "path", path, "families", len(families))
	return &Store{db: db, families: families, known: known}, nil
}

// afterLeadingSeparator is the first key past every key that starts with
// Separator. All of those belong to the default family.
var afterLeadingSeparator = []byte{Separator + 1}

// listFamilies walks the key space once, seeking past every family prefix
// it finds and past the run of keys starting with Separator. Other
// unprefixed keys are stepped one by one: any of them may be directly
// followed by a family whose name equals it. The default family is listed
// first when present.
func listFamilies(db *leveldb.DB) ([]string, error) {
	it := db.NewIterator(nil, nil)
	defer it.Release()

	var names []string
	hasDefault := false
	for ok := it.First(); ok; {
		k := it.Key()
		name, _, prefixed := splitKey(k)
		switch {
		case !prefixed && len(k) > 0 && k[0] == Separator:
			hasDefault = true
			ok = it.Seek(afterLeadingSeparator)
		case !prefixed:
			hasDefault = true
			ok = it.Next()
		default:
			if name == DefaultFamily {
				hasDefault = true
			} else {
				names = append(names, name)
			}
			ok = it.Seek(familyRange(name).Limit)
		}
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	if hasDefault {
		names = append([]string{DefaultFamily}, names...)
	}
	return names, nil
}

func (s *Store) Families() []string {
	return s.families
}

// Scan starts a scan of family. The default family merges unprefixed keys
// with keys under the "default\x00" prefix in raw key order, so its user
// keys are not sorted and may repeat.
func (s *Store) Scan(family string) (store.Cursor, error) {
	if _, ok := s.known[family]; !ok {
		return nil, fmt.Errorf("family %q: %w", family, store.ErrFamilyNotFound)
	}
	if family == DefaultFamily {
		return &cursor{it: s.db.NewIterator(nil, nil)}, nil
	}
	r := familyRange(family)
	return &cursor{it: s.db.NewIterator(r, nil), prefixLen: len(r.Start)}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// cursor scans either one prefix range (prefixLen > 0) or the whole key
// space filtered down to the default family.
type cursor struct {
	it        iterator.Iterator
	prefixLen int
	key       []byte
	valid     bool
	released  bool
	err       error
}

func (c *cursor) Next() bool {
	if c.released {
		return false
	}
	ok := c.it.Next()
	for ok {
		k := c.it.Key()
		if c.prefixLen > 0 {
			c.key, c.valid = k[c.prefixLen:], true
			return true
		}
		name, userKey, prefixed := splitKey(k)
		if !prefixed || name == DefaultFamily {
			c.key, c.valid = userKey, true
			return true
		}
		ok = c.it.Seek(familyRange(name).Limit)
	}
	c.key, c.valid = nil, false
	return false
}

func (c *cursor) Key() []byte { return c.key }

func (c *cursor) Value() []byte {
	if !c.valid {
		return nil
	}
	return c.it.Value()
}

func (c *cursor) Err() error {
	if c.released {
		return c.err
	}
	return c.it.Error()
}

func (c *cursor) Close() error {
	if !c.released {
		c.err = c.it.Error()
		c.it.Release()
		c.released = true
		c.key, c.valid = nil, false
	}
	return nil
}
