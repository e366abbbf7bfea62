package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/watchparty/server/internal/repository/connection"
	"github.com/watchparty/server/internal/repository/room"
	roomService "github.com/watchparty/server/internal/service/room"
)

var ErrValidationError = errors.New("validation error")

type userInput struct {
	Name string `json:"name" validate:"required"`
	Room string `json:"room" validate:"required"`
}

type RoomConnectionInput struct {
	User userInput `json:"user"`
}

func (c controller) handleRoomConnection(ctx context.Context, _ *websocket.Conn, input RoomConnectionInput) error {
	connId := c.getConnIdFromCtx(ctx)

	if err := c.validate.Validate(input); err != nil {
		return fmt.Errorf("%w: %w", ErrValidationError, err)
	}

	joinRoomResp, err := c.roomService.JoinRoom(ctx, &roomService.JoinRoomParams{
		ConnId:   connId,
		Username: input.User.Name,
		RoomName: input.User.Room,
	})
	if err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}

	sender, err := c.connRepo.Get(connId)
	if err != nil {
		return fmt.Errorf("failed to get sender conn: %w", err)
	}

	if err := c.writeToConn(ctx, sender, &Output{
		Type: initialSyncOutput,
		Payload: initialSyncPayload{
			ServerVideoState: joinRoomResp.VideoState,
		},
	}); err != nil {
		return fmt.Errorf("failed to write initial sync: %w", err)
	}

	if err := c.broadcastQueueUpdated(ctx, []connection.Conn{sender}, input.User.Name, joinRoomResp.Queue); err != nil {
		return fmt.Errorf("failed to write queue: %w", err)
	}

	if err := c.broadcastAdminMessage(ctx, joinRoomResp.Conns,
		fmt.Sprintf("%s has joined the party! Say hi!", input.User.Name),
	); err != nil {
		return fmt.Errorf("failed to broadcast member joined: %w", err)
	}

	return nil
}

// handleDisconnect is not routed: it runs when the read loop ends.
func (c controller) handleDisconnect(ctx context.Context) error {
	disconnectResp, err := c.roomService.DisconnectMember(ctx, &roomService.DisconnectMemberParams{
		ConnId: c.getConnIdFromCtx(ctx),
	})
	if err != nil {
		return fmt.Errorf("failed to disconnect member: %w", err)
	}

	if !disconnectResp.Found {
		c.logger.DebugContext(ctx, "connection left without joining a room")
	}

	if err := c.broadcastAdminMessage(ctx, disconnectResp.Conns,
		fmt.Sprintf("%s has left the party! Adios!", disconnectResp.Member.Username),
	); err != nil {
		return fmt.Errorf("failed to broadcast member left: %w", err)
	}

	return nil
}

type ChatMessageInput struct {
	User userInput `json:"user"`
	Msg  string    `json:"msg"`
}

func (c controller) handleChatMessage(ctx context.Context, _ *websocket.Conn, input ChatMessageInput) error {
	chatResp, err := c.roomService.SendChatMessage(ctx, &roomService.SendChatMessageParams{
		Msg:          input.Msg,
		SenderConnId: c.getConnIdFromCtx(ctx),
	})
	if err != nil {
		return fmt.Errorf("failed to send chat message: %w", err)
	}

	if err := c.broadcast(ctx, chatResp.Conns, &Output{
		Type: chatMessageOutput,
		Payload: chatMessagePayload{
			AuthorId:       chatResp.Author.ConnId,
			AuthorUsername: chatResp.Author.Username,
			Msg:            chatResp.Msg,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast chat message: %w", err)
	}

	return nil
}

type QueueAppendInput struct {
	User  userInput  `json:"user"`
	Video room.Video `json:"video"`
}

func (c controller) handleQueueAppend(ctx context.Context, _ *websocket.Conn, input QueueAppendInput) error {
	appendResp, err := c.roomService.AppendVideo(ctx, &roomService.AppendVideoParams{
		Video:        input.Video,
		SenderConnId: c.getConnIdFromCtx(ctx),
	})
	if err != nil {
		return fmt.Errorf("failed to append video: %w", err)
	}

	if err := c.broadcastQueueUpdated(ctx, appendResp.Conns, appendResp.RequestingUser, appendResp.Queue); err != nil {
		return fmt.Errorf("failed to broadcast queue updated: %w", err)
	}

	return nil
}

type QueueRemoveInput struct {
	User  userInput `json:"user"`
	Index int       `json:"index"`
}

func (c controller) handleQueueRemove(ctx context.Context, _ *websocket.Conn, input QueueRemoveInput) error {
	removeResp, err := c.roomService.RemoveVideo(ctx, &roomService.RemoveVideoParams{
		Index:        input.Index,
		SenderConnId: c.getConnIdFromCtx(ctx),
	})
	if err != nil {
		return fmt.Errorf("failed to remove video: %w", err)
	}

	if err := c.broadcastQueueUpdated(ctx, removeResp.Conns, removeResp.RequestingUser, removeResp.Queue); err != nil {
		return fmt.Errorf("failed to broadcast queue updated: %w", err)
	}

	return nil
}

type EndInput struct {
	User userInput `json:"user"`
}

func (c controller) handleEnd(ctx context.Context, _ *websocket.Conn, _ EndInput) error {
	endResp, err := c.roomService.EndVideo(ctx, &roomService.EndVideoParams{
		SenderConnId: c.getConnIdFromCtx(ctx),
	})
	if err != nil {
		return fmt.Errorf("failed to end video: %w", err)
	}

	if !endResp.Advanced {
		return nil
	}

	if err := c.broadcastQueueUpdated(ctx, endResp.Conns, endResp.RequestingUser, endResp.Queue); err != nil {
		return fmt.Errorf("failed to broadcast queue updated: %w", err)
	}

	if err := c.broadcast(ctx, endResp.Conns, &Output{
		Type: selectOutput,
		Payload: videoStatePayload{
			RequestingUser:   endResp.RequestingUser,
			ServerVideoState: endResp.VideoState,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast select: %w", err)
	}

	return nil
}

type VideoStateInput struct {
	User             userInput       `json:"user"`
	ClientVideoState room.VideoState `json:"clientVideoState"`
}

type videoStateUpdate func(context.Context, *roomService.UpdateVideoStateParams) (roomService.UpdateVideoStateResponse, error)

// handleVideoState applies the client's state and broadcasts outputType.
// Play and pause carry only the requesting user.
func (c controller) handleVideoState(ctx context.Context, input VideoStateInput, update videoStateUpdate, outputType string, withState bool) error {
	updateResp, err := update(ctx, &roomService.UpdateVideoStateParams{
		VideoState:   input.ClientVideoState,
		SenderConnId: c.getConnIdFromCtx(ctx),
	})
	if err != nil {
		return fmt.Errorf("failed to update video state: %w", err)
	}

	var payload any = requestingUserPayload{RequestingUser: updateResp.RequestingUser}
	if withState {
		payload = videoStatePayload{
			RequestingUser:   updateResp.RequestingUser,
			ServerVideoState: updateResp.VideoState,
		}
	}

	if err := c.broadcast(ctx, updateResp.Conns, &Output{
		Type:    outputType,
		Payload: payload,
	}); err != nil {
		return fmt.Errorf("failed to broadcast %s: %w", outputType, err)
	}

	return nil
}

func (c controller) handleSelect(ctx context.Context, _ *websocket.Conn, input VideoStateInput) error {
	return c.handleVideoState(ctx, input, c.roomService.SelectVideo, selectOutput, true)
}

func (c controller) handleSeek(ctx context.Context, _ *websocket.Conn, input VideoStateInput) error {
	return c.handleVideoState(ctx, input, c.roomService.SeekVideo, seekOutput, true)
}

func (c controller) handlePause(ctx context.Context, _ *websocket.Conn, input VideoStateInput) error {
	return c.handleVideoState(ctx, input, c.roomService.PauseVideo, pauseOutput, false)
}

func (c controller) handlePlay(ctx context.Context, _ *websocket.Conn, input VideoStateInput) error {
	return c.handleVideoState(ctx, input, c.roomService.PlayVideo, playOutput, false)
}
