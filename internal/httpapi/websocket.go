package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const wsWriteTimeout = 5 * time.Second

// handleWebSocket streams the current state and then one state per change
// until the client goes away. Client messages are ignored.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	updates, cancel := s.manager.Subscribe()
	defer cancel()

	ctx := conn.CloseRead(r.Context())

	if err := writeState(ctx, conn, newState(s.manager.Snapshot())); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case snap, ok := <-updates:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "")
				return
			}
			if err := writeState(ctx, conn, newState(snap)); err != nil {
				return
			}
		}
	}
}

func writeState(ctx context.Context, conn *websocket.Conn, st state) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()

	err := wsjson.Write(ctx, conn, st)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Debug("websocket write failed", "error", err)
	}
	return err
}
