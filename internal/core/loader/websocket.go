package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// assetRequest and assetResponse are the JSON frames exchanged with an
// AssetServer.
type assetRequest struct {
	ID      uint64 `json:"id"`
	Address string `json:"address"`
}

type assetResponse struct {
	ID       uint64 `json:"id"`
	Address  string `json:"address"`
	Data     []byte `json:"data,omitempty"`
	NotFound bool   `json:"not_found,omitempty"`
	Error    string `json:"error,omitempty"`
}

// WebSocketLoader fetches assets from a remote AssetServer. Requests are sent
// on the first Load of an address; a reader goroutine stores responses that
// later polls pick up.
type WebSocketLoader struct {
	conn *websocket.Conn

	writeMu sync.Mutex
	nextID  uint64

	mu        sync.Mutex
	requested map[string]bool
	results   map[string]fileResult
	readErr   error

	done chan struct{}
}

// DialWebSocketLoader connects to an AssetServer at url, e.g. ws://host/assets.
func DialWebSocketLoader(ctx context.Context, url string) (*WebSocketLoader, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial asset server %s: %w", url, err)
	}
	l := &WebSocketLoader{
		conn:      conn,
		requested: make(map[string]bool),
		results:   make(map[string]fileResult),
		done:      make(chan struct{}),
	}
	go l.readLoop()
	return l, nil
}

func (l *WebSocketLoader) Load(address string) ([]byte, error) {
	l.mu.Lock()
	if r, ok := l.results[address]; ok {
		l.mu.Unlock()
		return r.data, r.err
	}
	if l.readErr != nil {
		err := l.readErr
		l.mu.Unlock()
		return nil, err
	}
	if l.requested[address] {
		l.mu.Unlock()
		return nil, ErrNotReady
	}
	l.requested[address] = true
	l.mu.Unlock()

	if err := l.send(address); err != nil {
		l.mu.Lock()
		delete(l.requested, address)
		l.mu.Unlock()
		return nil, err
	}
	return nil, ErrNotReady
}

func (l *WebSocketLoader) send(address string) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	l.nextID++
	return l.conn.WriteJSON(assetRequest{ID: l.nextID, Address: address})
}

func (l *WebSocketLoader) readLoop() {
	defer close(l.done)
	for {
		var resp assetResponse
		if err := l.conn.ReadJSON(&resp); err != nil {
			l.mu.Lock()
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) || errors.Is(err, websocket.ErrCloseSent) {
				l.readErr = ErrClosed
			} else {
				l.readErr = fmt.Errorf("asset stream: %w", err)
			}
			l.mu.Unlock()
			return
		}

		r := fileResult{data: resp.Data}
		switch {
		case resp.NotFound:
			r = fileResult{err: ErrNotFound}
		case resp.Error != "":
			r = fileResult{err: errors.New(resp.Error)}
		}
		l.mu.Lock()
		l.results[resp.Address] = r
		delete(l.requested, resp.Address)
		l.mu.Unlock()
	}
}

func (l *WebSocketLoader) Evict(address string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.results, address)
}

// Close sends a close frame and waits for the reader to stop.
func (l *WebSocketLoader) Close() error {
	l.writeMu.Lock()
	err := l.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	l.writeMu.Unlock()
	if err != nil {
		_ = l.conn.Close()
		<-l.done
		return err
	}
	<-l.done
	return l.conn.Close()
}
