package viewer

import (
	"fmt"
	"iter"
	"log/slog"

	"dbviewer/internal/repr"
	"dbviewer/internal/store"

	"github.com/google/uuid"
)

// Row is one decoded entry.
type Row struct {
	Key   string
	Value string
}

// Rows is a lazy forward scan over a column family. Each call to Next reads
// and decodes one entry; nothing is read ahead. A Rows is not restartable:
// call Iterate again for a fresh scan.
type Rows struct {
	family string
	layout repr.Layout
	cursor store.Cursor
	owner  *Store
	log    *slog.Logger

	row    Row
	n      int
	err    error
	closed bool
}

// Iterate starts a scan of cf from its first key, in the engine's key order.
func (s *Store) Iterate(cf *ColumnFamily) (*Rows, error) {
	if cf.store != s {
		return nil, fmt.Errorf("column family %q belongs to a different store", cf.Name)
	}
	cursor, err := s.engine.Scan(cf.Name)
	if err != nil {
		return nil, &ScanError{Family: cf.Name, Err: err}
	}
	log := logger.With("scan_id", uuid.NewString(), "family", cf.Name)
	log.Debug("scan started", "key", cf.Layout.Key.String(), "value", cf.Layout.Value.String())

	r := &Rows{
		family: cf.Name,
		layout: cf.Layout,
		cursor: cursor,
		owner:  s,
		log:    log,
	}
	s.open[r] = struct{}{}
	return r, nil
}

// Next advances to the next row. It returns false at the end of the family,
// after an engine error (see Err), or once the scan is closed. Reaching the
// end closes the scan.
func (r *Rows) Next() bool {
	if r.closed {
		return false
	}
	if !r.cursor.Next() {
		if err := r.cursor.Err(); err != nil {
			r.err = &ScanError{Family: r.family, Rows: r.n, Err: err}
			r.log.Warn("scan failed", "rows", r.n, "err", err)
		}
		r.Close()
		return false
	}
	k, v := r.cursor.Key(), r.cursor.Value()
	r.row = Row{
		Key:   r.layout.Key.Decode(k, k),
		Value: r.layout.Value.Decode(k, v),
	}
	r.n++
	return true
}

// Row returns the row read by the last successful Next.
func (r *Rows) Row() Row {
	return r.row
}

// Raw returns the undecoded key and value of the current row. The slices
// are only valid until the next call to Next or Close.
func (r *Rows) Raw() (key, value []byte) {
	if r.closed {
		return nil, nil
	}
	return r.cursor.Key(), r.cursor.Value()
}

// Family returns the name of the family being scanned.
func (r *Rows) Family() string {
	return r.family
}

// Count returns the number of rows produced so far.
func (r *Rows) Count() int {
	return r.n
}

// Err returns the *ScanError that ended the scan early, if any.
func (r *Rows) Err() error {
	return r.err
}

// Close releases the underlying scan. It is safe to call more than once.
func (r *Rows) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	delete(r.owner.open, r)
	err := r.cursor.Close()
	r.log.Debug("scan finished", "rows", r.n)
	return err
}

// All returns the remaining rows as a sequence. Breaking out of the loop
// closes the scan; check Err afterwards for a truncated result.
func (r *Rows) All() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		defer r.Close()
		for r.Next() {
			if !yield(r.row) {
				return
			}
		}
	}
}

// Take reads at most n rows (all rows when n <= 0) and closes the scan.
// On a scan error the rows read so far are returned with the error.
func Take(rows *Rows, n int) ([]Row, error) {
	var out []Row
	for row := range rows.All() {
		out = append(out, row)
		if n > 0 && len(out) >= n {
			break
		}
	}
	return out, rows.Err()
}
