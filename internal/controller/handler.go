package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/watchparty/server/pkg/ctxlogger"
)

// pongWait is how long a connection may stay silent, pongs included.
func (c controller) pongWait() time.Duration {
	return c.pingPeriod * 10 / 9
}

func (c controller) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}

	connId := uuid.NewString()
	ctx := context.WithValue(r.Context(), connIdCtxKey, connId)
	ctx = ctxlogger.AppendCtx(ctx, slog.String("conn_id", connId))

	client := newWSClient(conn, c.sendBuffer)
	if err := c.connRepo.Add(connId, client); err != nil {
		c.logger.WarnContext(ctx, "failed to add connection", "error", err)
		conn.Close()
		return
	}
	defer c.disconnect(ctx, connId, client)

	go c.writePump(ctx, client)

	conn.SetReadLimit(c.readLimit)
	conn.SetReadDeadline(time.Now().Add(c.pongWait()))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.pongWait()))
	})

	c.logger.InfoContext(ctx, "connection opened", "connections", c.connRepo.Len())

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
			c.logger.WarnContext(ctx, "connection closed unexpectedly", "error", err)
			return
		}
		c.logger.InfoContext(ctx, "connection closed", "error", err)
	}
}

// disconnect runs on every connection exit, joined or not.
func (c controller) disconnect(ctx context.Context, connId string, client *wsClient) {
	defer client.Close()

	if err := c.connRepo.Remove(connId); err != nil {
		c.logger.WarnContext(ctx, "failed to remove connection", "error", err)
	}
	c.logger.InfoContext(ctx, "connection removed", "connections", c.connRepo.Len())

	var handleErr error
	if err := c.loop.Do(context.WithoutCancel(ctx), func() {
		handleErr = c.handleDisconnect(ctx)
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to dispatch disconnect", "error", err)
		return
	}

	if handleErr != nil {
		c.logger.WarnContext(ctx, "failed to handle disconnect", "error", handleErr)
	}
}
