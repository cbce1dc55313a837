package loader

import "sync"

type memoryEntry struct {
	data []byte
	// polls that still answer ErrNotReady before data is handed out
	pending int
}

// MemoryLoader serves bytes registered up front. Unknown addresses are
// reported as not ready, forever, which is how a missing asset looks to a
// polling caller.
type MemoryLoader struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	polls   map[string]int
}

func NewMemoryLoader() *MemoryLoader {
	return &MemoryLoader{
		entries: make(map[string]*memoryEntry),
		polls:   make(map[string]int),
	}
}

// Put makes data available immediately.
func (l *MemoryLoader) Put(address string, data []byte) {
	l.PutAfter(address, data, 0)
}

// PutAfter makes data available after the given number of polls.
func (l *MemoryLoader) PutAfter(address string, data []byte, polls int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[address] = &memoryEntry{data: data, pending: polls}
}

func (l *MemoryLoader) Evict(address string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, address)
}

func (l *MemoryLoader) Load(address string) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.polls[address]++
	e, ok := l.entries[address]
	if !ok {
		return nil, ErrNotReady
	}
	if e.pending > 0 {
		e.pending--
		return nil, ErrNotReady
	}
	return e.data, nil
}

// Polls reports how many times address has been requested.
func (l *MemoryLoader) Polls(address string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.polls[address]
}
