package loader

import (
	"errors"
	"io/fs"
	"net/http"
	"os"

	"github.com/gorilla/websocket"

	"github.com/zeusync/materials/internal/core/observability/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
}

// AssetServer serves files below Root to WebSocketLoader clients.
type AssetServer struct {
	root   string
	logger log.Log
}

func NewAssetServer(root string, logger log.Log) *AssetServer {
	return &AssetServer{root: root, logger: logger}
}

func (s *AssetServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("asset stream upgrade failed", log.Error(err))
		return
	}
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	s.logger.Debug("asset stream opened", log.String("remote", remote))
	for {
		var req assetRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("asset stream read failed", log.String("remote", remote), log.Error(err))
			}
			return
		}
		if err := conn.WriteJSON(s.respond(req)); err != nil {
			s.logger.Warn("asset stream write failed", log.String("remote", remote), log.Error(err))
			return
		}
	}
}

func (s *AssetServer) respond(req assetRequest) assetResponse {
	resp := assetResponse{ID: req.ID, Address: req.Address}
	path, err := resolvePath(s.root, req.Address)
	if err != nil {
		resp.Error = err.Error()
		return resp
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		resp.NotFound = true
	case err != nil:
		resp.Error = err.Error()
	default:
		resp.Data = data
	}
	s.logger.Debug("asset served",
		log.Address(req.Address),
		log.Int("bytes", len(resp.Data)),
		log.Bool("not_found", resp.NotFound),
	)
	return resp
}
