package room

import (
	"context"
	"fmt"

	"github.com/watchparty/server/internal/repository/connection"
	"github.com/watchparty/server/internal/repository/room"
)

type SendChatMessageParams struct {
	Msg          string
	SenderConnId string
}

type SendChatMessageResponse struct {
	Author room.Member
	Msg    string
	Conns  []connection.Conn
}

func (s service) SendChatMessage(ctx context.Context, params *SendChatMessageParams) (SendChatMessageResponse, error) {
	sender, err := s.getSender(ctx, params.SenderConnId)
	if err != nil {
		return SendChatMessageResponse{}, err
	}

	conns, err := s.getConnsByRoomName(ctx, sender.RoomName, "")
	if err != nil {
		return SendChatMessageResponse{}, fmt.Errorf("failed to get conns by room name: %w", err)
	}

	return SendChatMessageResponse{
		Author: sender,
		Msg:    params.Msg,
		Conns:  conns,
	}, nil
}
