// Package loader provides the polled, non-blocking data transports the
// import systems read descriptors and shader sources through.
//
// A Loader never blocks the tick thread. Load either returns the bytes, or
// ErrNotReady while the data is still in flight, or another error when the
// transport gave up on the address. Callers poll once per tick.
package loader

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	// ErrNotReady is the normal "not yet available" answer.
	ErrNotReady = errors.New("data not ready")
	// ErrNotFound means the transport resolved the address and it does not exist.
	ErrNotFound = errors.New("data not found")
	// ErrInvalidAddress rejects addresses that escape the loader root.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("loader is closed")
)

// Loader is the byte-level transport.
type Loader interface {
	Load(address string) ([]byte, error)
}

// Evicter is implemented by loaders that cache results, so callers can force
// a re-read of an address.
type Evicter interface {
	Evict(address string)
}

// resolvePath maps an address onto a file under root.
func resolvePath(root, address string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(address, "/")))
	if address == "" || !filepath.IsLocal(clean) {
		return "", ErrInvalidAddress
	}
	return filepath.Join(root, clean), nil
}
