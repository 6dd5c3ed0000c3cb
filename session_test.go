package jniscan

import (
	"context"
	"runtime"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScanner implements ForeignScanner over metadata streams prepared
// with metaBuilder, standing in for the whole foreign runtime.
type fakeScanner struct {
	batches []*metaBuilder
	next    int

	openErr  error
	nextErr  error
	closeErr error

	opens         int
	releasedCols  []int
	tableReleases int
	closes        int
}

func (f *fakeScanner) Open() error {
	f.opens++
	return f.openErr
}

func (f *fakeScanner) NextBatchMeta() (uintptr, error) {
	if f.nextErr != nil {
		return 0, f.nextErr
	}
	if f.next >= len(f.batches) {
		return 0, nil
	}
	b := f.batches[f.next]
	f.next++
	return b.addr(), nil
}

func (f *fakeScanner) ReleaseColumn(idx int) error {
	f.releasedCols = append(f.releasedCols, idx)
	return nil
}

func (f *fakeScanner) ReleaseTable() error {
	f.tableReleases++
	return nil
}

func (f *fakeScanner) Close() error {
	f.closes++
	return f.closeErr
}

func fakeFactory(f *fakeScanner) ScannerFactory {
	return func(string, int, map[string]string) (ForeignScanner, error) {
		return f, nil
	}
}

func testSchema() []SchemaColumn {
	return []SchemaColumn{
		{Name: "id", Type: TypeDesc{ID: TypeInt}, Nullable: true},
		{Name: "name", Type: TypeDesc{ID: TypeString}, Nullable: true},
	}
}

// intStringBatch builds one batch for the testSchema layout.
func intStringBatch(ids []int32, names []string) *metaBuilder {
	rows := len(ids)
	nulls := make([]uint8, rows)

	var data []byte
	offsets := make([]int32, rows)
	for i, s := range names {
		data = append(data, s...)
		offsets[i] = int32(len(data))
	}
	if len(data) == 0 {
		data = []byte{0}
	}

	b := &metaBuilder{}
	b.word(uintptr(rows))
	b.ptr(unsafe.Pointer(&nulls[0]), nulls)
	b.ptr(unsafe.Pointer(&ids[0]), ids)
	b.ptr(unsafe.Pointer(&nulls[0]), nulls)
	b.ptr(unsafe.Pointer(&offsets[0]), offsets)
	b.ptr(unsafe.Pointer(&data[0]), data)
	return b
}

func newTestSession(t *testing.T, fake *fakeScanner) *Session {
	t.Helper()
	session, err := NewSession(SessionConfig{
		ClassName: "org/acme/test/FakeScanner",
		Columns:   testSchema(),
		Factory:   fakeFactory(fake),
	})
	require.NoError(t, err)
	return session
}

func TestSessionFetchLoop(t *testing.T) {
	fake := &fakeScanner{
		batches: []*metaBuilder{
			intStringBatch([]int32{1, 2, 3}, []string{"a", "", "bc"}),
			intStringBatch([]int32{4}, []string{"d"}),
		},
	}
	session := newTestSession(t, fake)
	require.NoError(t, session.Open())
	defer session.Close()

	cols := session.NewColumns()
	ctx := context.Background()

	rows, eof, err := session.FetchNext(ctx, cols)
	require.NoError(t, err)
	assert.Equal(t, 3, rows)
	assert.False(t, eof)

	rows, eof, err = session.FetchNext(ctx, cols)
	require.NoError(t, err)
	assert.Equal(t, 1, rows)
	assert.False(t, eof)

	rows, eof, err = session.FetchNext(ctx, cols)
	require.NoError(t, err)
	assert.Equal(t, 0, rows)
	assert.True(t, eof)

	assert.Equal(t, []int32{1, 2, 3, 4}, cols[0].Int32s())
	assert.Equal(t, []string{"a", "", "bc", "d"}, cols[1].Strings())
	assert.EqualValues(t, 4, session.RowsRead())

	// Each consumed column released per batch, then the whole table
	assert.Equal(t, []int{0, 1, 0, 1}, fake.releasedCols)
	assert.Equal(t, 2, fake.tableReleases)

	runtime.KeepAlive(fake.batches)
}

func TestSessionFetchZeroRowCount(t *testing.T) {
	b := &metaBuilder{}
	b.word(0) // row count zero, rest of the stream absent

	fake := &fakeScanner{batches: []*metaBuilder{b}}
	session := newTestSession(t, fake)
	require.NoError(t, session.Open())
	defer session.Close()

	cols := session.NewColumns()
	rows, eof, err := session.FetchNext(context.Background(), cols)
	require.NoError(t, err)
	assert.Equal(t, 0, rows)
	assert.True(t, eof)
	assert.Empty(t, fake.releasedCols)
	assert.Equal(t, 0, fake.tableReleases)

	runtime.KeepAlive(b)
}

func TestSessionFetchForeignError(t *testing.T) {
	fake := &fakeScanner{nextErr: NewError(ErrForeign, "scan failed: corrupt split")}
	session := newTestSession(t, fake)
	require.NoError(t, session.Open())

	cols := session.NewColumns()
	_, _, err := session.FetchNext(context.Background(), cols)
	require.Error(t, err)
	assert.True(t, IsError(err, ErrForeign))

	// Session must not be fetched again, but remains closable
	_, _, err = session.FetchNext(context.Background(), cols)
	require.Error(t, err)
	assert.True(t, IsError(err, ErrClosed))

	require.NoError(t, session.Close())
	assert.Equal(t, 1, fake.closes)
	assert.Equal(t, 1, fake.tableReleases)
}

func TestSessionUnsupportedColumnKeepsEarlierColumns(t *testing.T) {
	// Column 0 materializes fine, column 1 reports a zero null map.
	ids := []int32{5, 6}
	nulls := []uint8{0, 0}
	b := &metaBuilder{}
	b.word(2)
	b.ptr(unsafe.Pointer(&nulls[0]), nulls)
	b.ptr(unsafe.Pointer(&ids[0]), ids)
	b.word(0) // null-map pointer of column 1: unsupported

	fake := &fakeScanner{batches: []*metaBuilder{b}}
	session := newTestSession(t, fake)
	require.NoError(t, session.Open())

	cols := session.NewColumns()
	_, _, err := session.FetchNext(context.Background(), cols)
	require.Error(t, err)
	assert.True(t, IsError(err, ErrUnsupportedType))
	assert.Contains(t, err.Error(), "STRING")

	// Earlier column keeps what was appended before the failure
	assert.Equal(t, []int32{5, 6}, cols[0].Int32s())
	assert.Equal(t, 2, cols[0].Rows())
	assert.Equal(t, 0, cols[1].Rows())

	// The failed column is not released; close reclaims it via the table
	assert.Equal(t, []int{0}, fake.releasedCols)
	assert.Equal(t, 0, fake.tableReleases)

	require.NoError(t, session.Close())
	assert.Equal(t, 1, fake.tableReleases)

	runtime.KeepAlive(b)
}

func TestSessionCloseIdempotent(t *testing.T) {
	fake := &fakeScanner{}
	session := newTestSession(t, fake)
	require.NoError(t, session.Open())

	require.NoError(t, session.Close())
	require.NoError(t, session.Close())
	require.NoError(t, session.Close())

	assert.Equal(t, 1, fake.closes)
	assert.Equal(t, 1, fake.tableReleases)
}

func TestSessionCloseBeforeOpen(t *testing.T) {
	session := newTestSession(t, &fakeScanner{})
	require.NoError(t, session.Close())

	err := session.Open()
	require.Error(t, err)
	assert.True(t, IsError(err, ErrClosed))
}

func TestSessionCloseFailureEscalates(t *testing.T) {
	fake := &fakeScanner{closeErr: NewError(ErrForeign, "release failed")}
	session := newTestSession(t, fake)
	require.NoError(t, session.Open())

	require.Panics(t, func() {
		session.Close()
	})
}

func TestSessionOpenForeignError(t *testing.T) {
	fake := &fakeScanner{openErr: NewError(ErrForeign, "cannot reach metastore")}
	session := newTestSession(t, fake)

	err := session.Open()
	require.Error(t, err)
	assert.True(t, IsError(err, ErrInit))

	// The constructed scanner object is still released on close
	require.NoError(t, session.Close())
	assert.Equal(t, 1, fake.closes)
}

func TestSessionSchemaNegotiation(t *testing.T) {
	var gotParams map[string]string
	fake := &fakeScanner{}
	session, err := NewSession(SessionConfig{
		ClassName: "org/acme/test/FakeScanner",
		Columns: []SchemaColumn{
			{Name: "id", Type: TypeDesc{ID: TypeBigInt}},
			{Name: "price", Type: TypeDesc{ID: TypeDecimal64, Precision: 10, Scale: 2}},
			{Name: "name", Type: TypeDesc{ID: TypeVarchar, Len: 20}},
		},
		Factory: func(class string, batchSize int, params map[string]string) (ForeignScanner, error) {
			gotParams = params
			return fake, nil
		},
	})
	require.NoError(t, err)
	require.NoError(t, session.Open())
	defer session.Close()

	assert.Equal(t, "id,price,name", gotParams["required_fields"])
	assert.Equal(t, "bigint#decimal64(10,2)#varchar(20)", gotParams["columns_types"])
}

func TestSessionContextCancelledBetweenFetches(t *testing.T) {
	fake := &fakeScanner{}
	session := newTestSession(t, fake)
	require.NoError(t, session.Open())
	defer session.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := session.FetchNext(ctx, session.NewColumns())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSessionColumnCountMismatch(t *testing.T) {
	fake := &fakeScanner{}
	session := newTestSession(t, fake)
	require.NoError(t, session.Open())
	defer session.Close()

	_, _, err := session.FetchNext(context.Background(), session.NewColumns()[:1])
	require.Error(t, err)
	assert.True(t, IsError(err, ErrProtocol))
}

func TestSessionPredicateParam(t *testing.T) {
	var gotParams map[string]string
	factory := func(class string, batchSize int, params map[string]string) (ForeignScanner, error) {
		gotParams = params
		return &fakeScanner{}, nil
	}

	t.Run("empty ranges produce no entry", func(t *testing.T) {
		session, err := NewSession(SessionConfig{
			ClassName: "org/acme/test/FakeScanner",
			Columns:   testSchema(),
			Factory:   factory,
		})
		require.NoError(t, err)
		session.Init(nil)
		require.NoError(t, session.Open())
		defer session.Close()

		_, ok := gotParams["push_down_predicates"]
		assert.False(t, ok)
	})

	t.Run("ranges produce exactly one entry", func(t *testing.T) {
		session, err := NewSession(SessionConfig{
			ClassName: "org/acme/test/FakeScanner",
			Columns:   testSchema(),
			Factory:   factory,
		})
		require.NoError(t, err)
		session.Init(map[string]ColumnValueRange{
			"id": {Kind: RangeInt64, HasLow: true, LowInclusive: true, LowInt: 10},
		})
		require.NoError(t, session.Open())
		defer session.Close()

		addr, ok := gotParams["push_down_predicates"]
		require.True(t, ok)
		assert.NotEmpty(t, addr)
	})
}
