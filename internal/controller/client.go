package controller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	ErrBackpressure = errors.New("send buffer is full")
	ErrClientClosed = errors.New("client is closed")
)

const writeWait = 5 * time.Second

// wsClient is the outbound side of a websocket connection. Messages are
// queued without blocking and written by writePump. A client that falls a
// full buffer behind is dropped: it missed an update, so it has to reconnect
// and sync again.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newWSClient(conn *websocket.Conn, sendBuffer int) *wsClient {
	return &wsClient{
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
}

func (c *wsClient) TrySend(msg []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	default:
		c.drop()
		return ErrBackpressure
	}
}

// Close lets writePump say goodbye and close the connection.
func (c *wsClient) Close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// drop closes the connection right away. The read loop then fails and the
// usual disconnect runs.
func (c *wsClient) drop() {
	c.Close()
	if c.conn != nil {
		c.conn.Close()
	}
}

func (c controller) writePump(ctx context.Context, client *wsClient) {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case <-client.done:
			client.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait),
			)
			return
		case msg := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger.InfoContext(ctx, "failed to write message", "error", err)
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.InfoContext(ctx, "failed to write ping", "error", err)
				return
			}
		}
	}
}
