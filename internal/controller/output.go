package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/watchparty/server/internal/repository/connection"
	"github.com/watchparty/server/internal/repository/room"
)

const (
	initialSyncOutput = "initial-sync"
	queueUpdateOutput = "queue-update"
	chatMessageOutput = "chat-message"
	selectOutput      = "select"
	seekOutput        = "seek"
	pauseOutput       = "pause"
	playOutput        = "play"
)

// author of server generated chat messages
const adminAuthorId = "admin"

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type initialSyncPayload struct {
	ServerVideoState room.VideoState `json:"serverVideoState"`
}

type queueUpdatePayload struct {
	RequestingUser   string       `json:"requestingUser"`
	ServerQueueState []room.Video `json:"serverQueueState"`
}

type chatMessagePayload struct {
	AuthorId       string `json:"authorID"`
	AuthorUsername string `json:"authorUserName"`
	Msg            string `json:"msg"`
}

type videoStatePayload struct {
	RequestingUser   string          `json:"requestingUser"`
	ServerVideoState room.VideoState `json:"serverVideoState"`
}

type requestingUserPayload struct {
	RequestingUser string `json:"requestingUser"`
}

func (c controller) writeToConn(ctx context.Context, conn connection.Conn, output *Output) error {
	return c.broadcast(ctx, []connection.Conn{conn}, output)
}

// broadcast does not wait for slow connections. One that cannot take the
// message is disconnected by its client and skipped here.
func (c controller) broadcast(ctx context.Context, conns []connection.Conn, output *Output) error {
	msg, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	for _, conn := range conns {
		if err := conn.TrySend(msg); err != nil {
			if errors.Is(err, ErrBackpressure) {
				c.logger.WarnContext(ctx, "slow connection dropped", "type", output.Type, "error", err)
				continue
			}
			c.logger.InfoContext(ctx, "failed to send message", "type", output.Type, "error", err)
		}
	}

	return nil
}

func (c controller) broadcastQueueUpdated(ctx context.Context, conns []connection.Conn, requestingUser string, queue []room.Video) error {
	if queue == nil {
		queue = []room.Video{}
	}

	return c.broadcast(ctx, conns, &Output{
		Type: queueUpdateOutput,
		Payload: queueUpdatePayload{
			RequestingUser:   requestingUser,
			ServerQueueState: queue,
		},
	})
}

func (c controller) broadcastAdminMessage(ctx context.Context, conns []connection.Conn, msg string) error {
	return c.broadcast(ctx, conns, &Output{
		Type: chatMessageOutput,
		Payload: chatMessagePayload{
			AuthorId:       adminAuthorId,
			AuthorUsername: "",
			Msg:            msg,
		},
	})
}
