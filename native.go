package jniscan

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"unsafe"
)

// Bridge library loader. The bridge is a small native shim that hosts the
// JVM and exposes the scanner lifecycle as plain C entry points. It is
// loaded once per process and its entry points are resolved exactly once;
// the cached symbols stay valid for the life of the process.
var (
	bridgeLibOnce    sync.Once
	bridgeLibLoaded  bool
	bridgeLibError   error
	bridgeLibPath    string
	bridgeLibHandler unsafe.Pointer
)

// Cached bridge entry points
var (
	funcScannerCreate        unsafe.Pointer
	funcScannerOpen          unsafe.Pointer
	funcScannerNextBatchMeta unsafe.Pointer
	funcScannerReleaseColumn unsafe.Pointer
	funcScannerReleaseTable  unsafe.Pointer
	funcScannerClose         unsafe.Pointer
	funcLastError            unsafe.Pointer
)

// BridgeAvailable returns true if the bridge library has been loaded.
func BridgeAvailable() bool {
	loadBridgeLibrary()
	return bridgeLibLoaded
}

// BridgeError returns any error that occurred during bridge library loading.
func BridgeError() error {
	loadBridgeLibrary()
	return bridgeLibError
}

// Attempts to load the bridge library
func loadBridgeLibrary() {
	bridgeLibOnce.Do(func() {
		bridgeLibPath = findBridgeLibraryPath()
		if bridgeLibPath == "" {
			bridgeLibError = errors.New("scanner bridge library not found")
			return
		}

		handler, err := loadDynamicLibrary(bridgeLibPath)
		if err != nil {
			bridgeLibError = Errorf(ErrInit, "failed to load bridge library: %v", err)
			return
		}
		bridgeLibHandler = handler

		if !loadBridgeFunctions() {
			closeLibrary(bridgeLibHandler)
			bridgeLibError = errors.New("failed to resolve one or more bridge entry points")
			return
		}

		bridgeLibLoaded = true
		logger.Debug("loaded scanner bridge library", "path", bridgeLibPath)
	})
}

// Find the path to the bridge library based on runtime OS and architecture
func findBridgeLibraryPath() string {
	if p := os.Getenv("JNISCAN_BRIDGE_LIB"); p != "" {
		return p
	}

	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}
	moduleDir := filepath.Dir(thisFile)

	var libName string
	switch runtime.GOOS {
	case "windows":
		libName = "jniscanbridge.dll"
	case "darwin":
		libName = "libjniscanbridge.dylib"
	case "linux":
		libName = "libjniscanbridge.so"
	default:
		return ""
	}

	osArchPath := filepath.Join("lib", runtime.GOOS, runtime.GOARCH, libName)

	searchPaths := []string{
		filepath.Join(".", libName),
		filepath.Join(execDir, libName),
		filepath.Join(moduleDir, libName),
		filepath.Join(moduleDir, osArchPath),
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// Resolve all bridge entry points from the library
func loadBridgeFunctions() bool {
	symbols := []struct {
		dst  *unsafe.Pointer
		name string
	}{
		{&funcScannerCreate, "jniscan_scanner_create"},
		{&funcScannerOpen, "jniscan_scanner_open"},
		{&funcScannerNextBatchMeta, "jniscan_scanner_next_batch_meta"},
		{&funcScannerReleaseColumn, "jniscan_scanner_release_column"},
		{&funcScannerReleaseTable, "jniscan_scanner_release_table"},
		{&funcScannerClose, "jniscan_scanner_close"},
		{&funcLastError, "jniscan_last_error"},
	}

	for _, sym := range symbols {
		ptr, err := getSymbol(bridgeLibHandler, sym.name)
		if err != nil {
			return false
		}
		*sym.dst = ptr
	}
	return true
}

// NativeScanner drives one scanner object inside the foreign runtime
// through the bridge library. The object handle is owned by the scanner
// until Close; every call is followed by a check of the bridge's
// last-error slot so a foreign failure surfaces immediately.
type NativeScanner struct {
	handle uintptr
}

// NewNativeScanner constructs a scanner object inside the foreign runtime.
// className selects the scanner implementation; batchSize and params are
// handed to its constructor as (int, map) in flattened key/value form.
func NewNativeScanner(className string, batchSize int, params map[string]string) (ForeignScanner, error) {
	loadBridgeLibrary()
	if !bridgeLibLoaded {
		return nil, Errorf(ErrInit, "scanner bridge unavailable: %v", bridgeLibError)
	}

	cls := nulTerminated(className)

	n := len(params)
	keyBufs := make([][]byte, 0, n)
	valBufs := make([][]byte, 0, n)
	keyPtrs := make([]uintptr, 0, n)
	valPtrs := make([]uintptr, 0, n)
	for k, v := range params {
		kb := nulTerminated(k)
		vb := nulTerminated(v)
		keyBufs = append(keyBufs, kb)
		valBufs = append(valBufs, vb)
		keyPtrs = append(keyPtrs, uintptr(unsafe.Pointer(&kb[0])))
		valPtrs = append(valPtrs, uintptr(unsafe.Pointer(&vb[0])))
	}

	var keysArg, valsArg uintptr
	if n > 0 {
		keysArg = uintptr(unsafe.Pointer(&keyPtrs[0]))
		valsArg = uintptr(unsafe.Pointer(&valPtrs[0]))
	}

	handle := callFunc(funcScannerCreate,
		uintptr(unsafe.Pointer(&cls[0])),
		uintptr(batchSize),
		keysArg,
		valsArg,
		uintptr(n))
	runtime.KeepAlive(cls)
	runtime.KeepAlive(keyBufs)
	runtime.KeepAlive(valBufs)
	runtime.KeepAlive(keyPtrs)
	runtime.KeepAlive(valPtrs)

	if handle == 0 {
		// Constructor failures are reported through the global error slot
		if msg := lastErrorMessage(0); msg != "" {
			return nil, Errorf(ErrInit, "failed to construct scanner %s: %s", className, msg)
		}
		return nil, Errorf(ErrInit, "failed to construct scanner %s", className)
	}
	return &NativeScanner{handle: handle}, nil
}

// Open prepares the scanner's data source.
func (s *NativeScanner) Open() error {
	callFunc(funcScannerOpen, s.handle)
	return s.checkError("open")
}

// NextBatchMeta returns the next batch's metadata address, or 0 at
// end-of-stream.
func (s *NativeScanner) NextBatchMeta() (uintptr, error) {
	addr := callFunc(funcScannerNextBatchMeta, s.handle)
	if err := s.checkError("next batch meta"); err != nil {
		return 0, err
	}
	return addr, nil
}

// ReleaseColumn releases one column's backing buffers.
func (s *NativeScanner) ReleaseColumn(idx int) error {
	callFunc(funcScannerReleaseColumn, s.handle, uintptr(idx))
	return s.checkError("release column")
}

// ReleaseTable releases the whole batch's backing buffers.
func (s *NativeScanner) ReleaseTable() error {
	callFunc(funcScannerReleaseTable, s.handle)
	return s.checkError("release table")
}

// Close releases the scanner object inside the foreign runtime and
// invalidates the handle.
func (s *NativeScanner) Close() error {
	callFunc(funcScannerClose, s.handle)
	err := s.checkError("close")
	s.handle = 0
	return err
}

// checkError consults the bridge's per-scanner error slot. The bridge
// clears the slot on read, mirroring the exception-check-after-call
// discipline at the runtime boundary.
func (s *NativeScanner) checkError(op string) error {
	msg := lastErrorMessage(s.handle)
	if msg == "" {
		return nil
	}
	return Errorf(ErrForeign, "%s: %s", op, msg)
}

func lastErrorMessage(handle uintptr) string {
	msgPtr := callFunc(funcLastError, handle)
	if msgPtr == 0 {
		return ""
	}
	return goStringFromPtr(msgPtr)
}

// nulTerminated returns s as a NUL-terminated byte slice for the C side.
func nulTerminated(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}

// goStringFromPtr copies a NUL-terminated C string into a Go string.
func goStringFromPtr(p uintptr) string {
	n := 0
	for *(*byte)(unsafe.Pointer(p + uintptr(n))) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
}
