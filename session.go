package jniscan

import (
	"context"
	"runtime"
	"strconv"
	"strings"
	"time"
	"unsafe"
)

// DefaultBatchSize is the batch size handed to scanner constructors when
// the session config leaves it unset.
const DefaultBatchSize = 4096

// SchemaColumn is one negotiated column: its name, logical type, and
// whether the native column stores null flags.
type SchemaColumn struct {
	Name     string
	Type     TypeDesc
	Nullable bool
}

// SessionConfig configures one scan session.
type SessionConfig struct {
	// ClassName selects the scanner implementation inside the foreign
	// runtime.
	ClassName string
	// BatchSize is the row count hint passed to the scanner constructor.
	// Defaults to DefaultBatchSize.
	BatchSize int
	// Columns is the negotiated schema, in the exact order the scanner
	// publishes batch metadata.
	Columns []SchemaColumn
	// Params is an arbitrary key/value configuration handed to the
	// scanner constructor.
	Params map[string]string
	// Factory constructs the foreign scanner. Defaults to
	// NewNativeScanner.
	Factory ScannerFactory
}

// Session drives one foreign scanner through its lifecycle:
// construct, open, fetch loop, close. One session serves exactly one
// logical scan task; it holds no locks because at most one fetch is in
// flight. Sessions on different goroutines are independent.
type Session struct {
	cfg    SessionConfig
	params map[string]string

	// predicates must stay referenced for the whole session: the scanner
	// side dereferences the serialized buffer lazily by address.
	predicates []byte

	scanner     ForeignScanner
	schemaWords int
	opened      bool
	fetchFailed bool
	closed      bool
	rowsRead    int64
}

// NewSession creates an unopened session for the given configuration.
func NewSession(cfg SessionConfig) (*Session, error) {
	if len(cfg.Columns) == 0 {
		return nil, NewError(ErrInit, "session requires at least one column")
	}
	if cfg.ClassName == "" {
		return nil, NewError(ErrInit, "session requires a scanner class name")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Factory == nil {
		cfg.Factory = NewNativeScanner
	}

	params := make(map[string]string, len(cfg.Params)+4)
	for k, v := range cfg.Params {
		params[k] = v
	}

	// One word for the row count, then per column a null-map word plus
	// the type's payload words.
	words := 1
	for _, col := range cfg.Columns {
		words += 1 + col.Type.metaWords()
	}

	return &Session{
		cfg:         cfg,
		params:      params,
		schemaWords: words,
	}, nil
}

// Init installs the filter pushdown configuration. All column ranges are
// serialized into one session-owned buffer whose address is handed to the
// scanner as the push_down_predicates parameter; with no ranges, no
// parameter is produced. Local state only, no foreign calls. Must be
// called before Open.
func (s *Session) Init(ranges map[string]ColumnValueRange) {
	buf := serializePredicates(ranges)
	if len(buf) == 0 {
		return
	}
	s.predicates = buf
	addr := uintptr(unsafe.Pointer(&s.predicates[0]))
	s.params["push_down_predicates"] = strconv.FormatUint(uint64(addr), 10)
}

// Open constructs the foreign scanner object and opens its data source.
// Any foreign failure aborts the whole session.
func (s *Session) Open() error {
	if s.closed {
		return NewError(ErrClosed, "session is closed")
	}
	if s.opened {
		return NewError(ErrInit, "session is already open")
	}

	names := make([]string, len(s.cfg.Columns))
	types := make([]string, len(s.cfg.Columns))
	for i, col := range s.cfg.Columns {
		names[i] = col.Name
		types[i] = col.Type.Name()
	}
	s.params["required_fields"] = strings.Join(names, ",")
	s.params["columns_types"] = strings.Join(types, "#")

	scanner, err := s.cfg.Factory(s.cfg.ClassName, s.cfg.BatchSize, s.params)
	if err != nil {
		return Errorf(ErrInit, "failed to create foreign scanner: %v", err)
	}
	s.scanner = scanner
	if err := scanner.Open(); err != nil {
		// The constructed object must still be reachable for release;
		// the session stays closable and close reclaims it.
		s.opened = true
		runtime.SetFinalizer(s, (*Session).finalize)
		return Errorf(ErrInit, "failed to open foreign scanner: %v", err)
	}
	s.opened = true
	runtime.SetFinalizer(s, (*Session).finalize)
	return nil
}

// NewColumns allocates one empty native column per schema column, in
// schema order, ready to be passed to FetchNext.
func (s *Session) NewColumns() []*Column {
	cols := make([]*Column, len(s.cfg.Columns))
	for i, sc := range s.cfg.Columns {
		cols[i] = NewColumn(sc.Type, sc.Nullable)
	}
	return cols
}

// RowsRead returns the total number of rows materialized by this session.
func (s *Session) RowsRead() int64 { return s.rowsRead }

// FetchNext pulls the next batch from the foreign scanner and appends its
// rows to cols, which must match the schema in order and length. It
// returns the number of rows read and whether the stream is exhausted.
//
// The context is checked only between foreign calls; a call in progress
// cannot be cancelled. After an error the session must not be fetched
// from again, but it remains closable.
func (s *Session) FetchNext(ctx context.Context, cols []*Column) (rows int, eof bool, err error) {
	if s.closed {
		return 0, false, NewError(ErrClosed, "session is closed")
	}
	if !s.opened {
		return 0, false, NewError(ErrInit, "session is not open")
	}
	if s.fetchFailed {
		return 0, false, NewError(ErrClosed, "session had a failed fetch and must be closed")
	}
	if len(cols) != len(s.cfg.Columns) {
		return 0, false, Errorf(ErrProtocol,
			"got %d target columns, schema has %d", len(cols), len(s.cfg.Columns))
	}
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	start := time.Now()
	rows, eof, err = s.fetchNext(cols)
	if err != nil {
		s.fetchFailed = true
	}
	getMetrics().recordFetch(ctx, s.cfg.ClassName, int64(rows), start, err)
	return rows, eof, err
}

func (s *Session) fetchNext(cols []*Column) (int, bool, error) {
	meta, err := s.scanner.NextBatchMeta()
	if err != nil {
		return 0, false, err
	}
	if meta == 0 {
		// No more data in the scanner
		return 0, true, nil
	}

	cursor := NewMetaCursor(meta, s.schemaWords)
	numRows, err := cursor.NextInt()
	if err != nil {
		return 0, false, err
	}
	if numRows == 0 {
		return 0, true, nil
	}

	if err := s.fillBatch(cursor, cols, int(numRows)); err != nil {
		return 0, false, err
	}
	if rem := cursor.Remaining(); rem != 0 {
		return 0, false, Errorf(ErrProtocol,
			"batch metadata not fully consumed: %d words left", rem)
	}
	if err := s.scanner.ReleaseTable(); err != nil {
		return 0, false, err
	}
	s.rowsRead += numRows
	return int(numRows), false, nil
}

// fillBatch materializes every column of one batch in schema order. Each
// column is released right after it is consumed; a column whose fill
// failed is deliberately not released, so its buffers stay valid while
// the error is reported. The batch-level release reclaims it later.
func (s *Session) fillBatch(cursor *MetaCursor, cols []*Column, rows int) error {
	for i, col := range cols {
		if err := fillColumn(cursor, col, rows); err != nil {
			return err
		}
		if err := s.scanner.ReleaseColumn(i); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the foreign scanner and all batch resources. Idempotent:
// the second and later calls are no-ops. A fetch may have failed before
// releasing its table, so the current table is released best-effort
// first; releaseTable is idempotent on the scanner side and a complaint
// about an already-released table is not fatal.
//
// A foreign failure while closing the scanner itself means the release
// invariant is broken and leaked foreign memory can no longer be ruled
// out. That is escalated as a panic after logging, never swallowed.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	runtime.SetFinalizer(s, nil)
	if s.scanner == nil {
		return nil
	}

	if err := s.scanner.ReleaseTable(); err != nil {
		logger.Warn("releasing current table during close", "error", err)
	}
	if err := s.scanner.Close(); err != nil {
		err = Errorf(ErrRelease, "failed to release foreign scanner resources: %v", err)
		logger.Error("foreign resource release failed, cannot verify cleanup",
			"scanner", s.cfg.ClassName, "error", err)
		panic(err)
	}
	return nil
}

// finalize is the safety net for sessions dropped without Close. A close
// failure here panics on the finalizer goroutine and takes the process
// down with it.
func (s *Session) finalize() {
	if s.closed {
		return
	}
	logger.Warn("session finalized without explicit close", "scanner", s.cfg.ClassName)
	s.Close()
}
