// Package export dumps scanned rows as a stream of length-delimited
// protobuf-wire records, so raw bytes survive next to their decoded form.
//
// Record fields:
//
//	1 family        string
//	2 raw key       bytes
//	3 raw value     bytes
//	4 decoded key   string
//	5 decoded value string
//
// Each record is preceded by its length as a varint.
package export

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"dbviewer/internal/viewer"

	"google.golang.org/protobuf/encoding/protowire"
)

const (
	fieldFamily   protowire.Number = 1
	fieldRawKey   protowire.Number = 2
	fieldRawValue protowire.Number = 3
	fieldKey      protowire.Number = 4
	fieldValue    protowire.Number = 5
)

// maxRecordLen guards ReadRecord against garbage length prefixes.
const maxRecordLen = 64 << 20

type Record struct {
	Family   string
	RawKey   []byte
	RawValue []byte
	Key      string
	Value    string
}

// Writer appends records to an underlying stream.
type Writer struct {
	w    *bufio.Writer
	body []byte
	head []byte
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) Write(rec Record) error {
	w.body = appendRecord(w.body[:0], rec)
	w.head = protowire.AppendVarint(w.head[:0], uint64(len(w.body)))
	if _, err := w.w.Write(w.head); err != nil {
		return err
	}
	_, err := w.w.Write(w.body)
	return err
}

func (w *Writer) Flush() error {
	return w.w.Flush()
}

func appendRecord(b []byte, rec Record) []byte {
	b = protowire.AppendTag(b, fieldFamily, protowire.BytesType)
	b = protowire.AppendString(b, rec.Family)
	b = protowire.AppendTag(b, fieldRawKey, protowire.BytesType)
	b = protowire.AppendBytes(b, rec.RawKey)
	b = protowire.AppendTag(b, fieldRawValue, protowire.BytesType)
	b = protowire.AppendBytes(b, rec.RawValue)
	b = protowire.AppendTag(b, fieldKey, protowire.BytesType)
	b = protowire.AppendString(b, rec.Key)
	b = protowire.AppendTag(b, fieldValue, protowire.BytesType)
	return protowire.AppendString(b, rec.Value)
}

// Rows writes up to limit rows of a scan (all when limit <= 0) and closes
// it. It returns the number written; a scan error is returned after the
// rows read before it were written.
func Rows(w *Writer, rows *viewer.Rows, limit int) (int, error) {
	defer rows.Close()
	for (limit <= 0 || rows.Count() < limit) && rows.Next() {
		rawKey, rawValue := rows.Raw()
		row := rows.Row()
		rec := Record{
			Family:   rows.Family(),
			RawKey:   rawKey,
			RawValue: rawValue,
			Key:      row.Key,
			Value:    row.Value,
		}
		if err := w.Write(rec); err != nil {
			n := rows.Count() - 1
			return n, fmt.Errorf("writing record %d: %w", n, err)
		}
	}
	if err := w.Flush(); err != nil {
		return rows.Count(), err
	}
	return rows.Count(), rows.Err()
}

// ReadRecord reads the next record. It returns io.EOF at a clean end of
// stream and io.ErrUnexpectedEOF when a record is cut short.
func ReadRecord(r *bufio.Reader) (Record, error) {
	size, err := binary.ReadUvarint(r)
	if err != nil {
		return Record{}, err
	}
	if size > maxRecordLen {
		return Record{}, fmt.Errorf("record length %d exceeds limit", size)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Record{}, err
	}
	return parseRecord(body)
}

func parseRecord(b []byte) (Record, error) {
	var rec Record
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Record{}, fmt.Errorf("parsing tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Record{}, fmt.Errorf("skipping field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return Record{}, fmt.Errorf("parsing field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]
		switch num {
		case fieldFamily:
			rec.Family = string(v)
		case fieldRawKey:
			rec.RawKey = append([]byte(nil), v...)
		case fieldRawValue:
			rec.RawValue = append([]byte(nil), v...)
		case fieldKey:
			rec.Key = string(v)
		case fieldValue:
			rec.Value = string(v)
		}
	}
	return rec, nil
}
