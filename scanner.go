package jniscan

// ForeignScanner is the four-call lifecycle contract with a scanner
// hosted in the foreign runtime. Every method maps to one synchronous
// foreign call; implementations must check for a pending foreign failure
// immediately after each call and surface it as an ErrForeign error, so a
// failure never flows silently past a subsequent call.
//
// Calls may block on I/O performed by the scanner. No cancellation
// mid-call is supported; cancellation is cooperative and happens between
// fetches.
type ForeignScanner interface {
	// Open prepares the scanner's data source.
	Open() error
	// NextBatchMeta returns the address of the next batch's metadata
	// stream, or 0 when the scanner has no more data.
	NextBatchMeta() (uintptr, error)
	// ReleaseColumn releases one column's backing buffers. Idempotent.
	ReleaseColumn(idx int) error
	// ReleaseTable releases the whole batch's backing buffers. Idempotent.
	ReleaseTable() error
	// Close releases the scanner object itself. Idempotent.
	Close() error
}

// ScannerFactory constructs a foreign scanner object. className selects
// the scanner implementation inside the foreign runtime; batchSize and
// params are passed to its constructor.
type ScannerFactory func(className string, batchSize int, params map[string]string) (ForeignScanner, error)
