// Package rocksdb reads RocksDB stores through their native column
// families. It needs cgo and librocksdb and is only compiled with the
// rocksdb build tag; other builds get an Open that returns ErrNotBuilt.
package rocksdb

import "errors"

// ErrNotBuilt is returned by Open in binaries built without the rocksdb tag.
var ErrNotBuilt = errors.New("rocksdb support not built in (rebuild with -tags rocksdb)")
