package loader

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

type fileResult struct {
	data []byte
	err  error
}

// FileLoader reads files below a root directory in background goroutines.
// The first Load of an address starts the read and answers ErrNotReady;
// later polls return the result once the read has finished. Results are kept
// until Evict or Close.
type FileLoader struct {
	root string
	sem  *semaphore.Weighted

	group singleflight.Group

	mu       sync.Mutex
	inflight map[string]<-chan singleflight.Result
	results  map[string]fileResult
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewFileLoader creates a loader rooted at root with at most workers reads
// in flight.
func NewFileLoader(ctx context.Context, root string, workers int) *FileLoader {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	return &FileLoader{
		root:     root,
		sem:      semaphore.NewWeighted(int64(workers)),
		inflight: make(map[string]<-chan singleflight.Result),
		results:  make(map[string]fileResult),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (l *FileLoader) Load(address string) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil, ErrClosed
	}
	if r, ok := l.results[address]; ok {
		return r.data, r.err
	}

	ch, ok := l.inflight[address]
	if !ok {
		path, err := resolvePath(l.root, address)
		if err != nil {
			l.results[address] = fileResult{err: err}
			return nil, err
		}
		l.inflight[address] = l.group.DoChan(address, func() (any, error) {
			return l.read(path)
		})
		return nil, ErrNotReady
	}

	select {
	case res := <-ch:
		delete(l.inflight, address)
		r := fileResult{err: res.Err}
		if res.Err == nil {
			r.data = res.Val.([]byte)
		}
		l.results[address] = r
		return r.data, r.err
	default:
		return nil, ErrNotReady
	}
}

func (l *FileLoader) read(path string) ([]byte, error) {
	if err := l.sem.Acquire(l.ctx, 1); err != nil {
		return nil, ErrClosed
	}
	defer l.sem.Release(1)

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// Evict forgets the cached result for address so the next Load re-reads it.
func (l *FileLoader) Evict(address string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.results, address)
}

// Close cancels reads waiting for a worker slot and drops cached results.
func (l *FileLoader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	l.cancel()
	l.results = nil
	l.inflight = nil
	return nil
}
