package viewer

import "fmt"

// OpenError reports that a store could not be opened: the path is missing,
// is not a recognized store, or the engine refused it (lock held, corrupt
// files, unsupported version).
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("opening store %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// LookupError reports a column family name that is not in the opened store.
type LookupError struct {
	Name string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("column family %q not found", e.Name)
}

// ScanError reports an engine failure that ended a scan. Rows is the number
// of rows produced before the failure.
type ScanError struct {
	Family string
	Rows   int
	Err    error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scanning %s after %d rows: %v", e.Family, e.Rows, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }
