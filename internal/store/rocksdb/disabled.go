//go:build !rocksdb

package rocksdb

import (
	"fmt"

	"dbviewer/internal/store"
)

func Open(path string) (store.Store, error) {
	return nil, fmt.Errorf("%s: %w", path, ErrNotBuilt)
}
