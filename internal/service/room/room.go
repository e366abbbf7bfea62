package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/watchparty/server/internal/repository/connection"
	"github.com/watchparty/server/internal/repository/room"
)

type JoinRoomParams struct {
	ConnId   string
	Username string
	RoomName string
}

type JoinRoomResponse struct {
	VideoState room.VideoState
	Queue      []room.Video
	// the rest of the room, without the joining connection
	Conns []connection.Conn
}

func (s service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	if err := s.roomRepo.EnsureRoom(ctx, params.RoomName); err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to ensure room: %w", err)
	}

	outcome, err := s.roomRepo.SetVideoStateIfNotExists(ctx, &room.SetVideoStateParams{
		VideoState: room.VideoState{
			VideoId: s.defaultVideoId,
			VideoTs: s.currentTs(),
			VideoPs: s.defaultPlayStatus,
		},
		RoomName: params.RoomName,
	})
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to initialize video state: %w", err)
	}
	if outcome == room.OutcomeApplied {
		s.logger.InfoContext(ctx, "room initialized", "room_name", params.RoomName)
	}

	videoState, err := s.roomRepo.GetVideoState(ctx, params.RoomName)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get video state: %w", err)
	}

	queue, err := s.roomRepo.GetQueue(ctx, params.RoomName)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get queue: %w", err)
	}

	conns, err := s.getConnsByRoomName(ctx, params.RoomName, params.ConnId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to get conns by room name: %w", err)
	}

	if err := s.roomRepo.AddMember(ctx, &room.AddMemberParams{
		ConnId:   params.ConnId,
		Username: params.Username,
		RoomName: params.RoomName,
	}); err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to add member: %w", err)
	}

	return JoinRoomResponse{
		VideoState: videoState,
		Queue:      queue,
		Conns:      conns,
	}, nil
}

type DisconnectMemberParams struct {
	ConnId string
}

type DisconnectMemberResponse struct {
	// zero when the connection never joined
	Member room.Member
	Found  bool
	Conns  []connection.Conn
}

func (s service) DisconnectMember(ctx context.Context, params *DisconnectMemberParams) (DisconnectMemberResponse, error) {
	res, err := s.roomRepo.RemoveMember(ctx, params.ConnId)
	if err != nil {
		return DisconnectMemberResponse{}, fmt.Errorf("failed to remove member: %w", err)
	}

	if res.Outcome == room.OutcomeNotFound {
		return DisconnectMemberResponse{Conns: []connection.Conn{}}, nil
	}

	conns, err := s.getConnsByRoomName(ctx, res.Member.RoomName, params.ConnId)
	if err != nil {
		return DisconnectMemberResponse{}, fmt.Errorf("failed to get conns by room name: %w", err)
	}

	return DisconnectMemberResponse{
		Member: res.Member,
		Found:  true,
		Conns:  conns,
	}, nil
}

func (s service) GetRoom(ctx context.Context, roomName string) (room.Room, error) {
	r, err := s.roomRepo.GetRoom(ctx, roomName)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			return room.Room{}, ErrRoomNotFound
		}
		return room.Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	return r, nil
}

func (s service) ListRooms(ctx context.Context) ([]string, error) {
	names, err := s.roomRepo.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	return names, nil
}
