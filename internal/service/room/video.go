package room

import (
	"context"
	"fmt"

	"github.com/watchparty/server/internal/repository/connection"
	"github.com/watchparty/server/internal/repository/room"
)

type QueueResponse struct {
	RequestingUser string
	Queue          []room.Video
	Conns          []connection.Conn
}

type AppendVideoParams struct {
	Video        room.Video
	SenderConnId string
}

func (s service) AppendVideo(ctx context.Context, params *AppendVideoParams) (QueueResponse, error) {
	sender, err := s.getSender(ctx, params.SenderConnId)
	if err != nil {
		return QueueResponse{}, err
	}

	res, err := s.roomRepo.AppendVideo(ctx, &room.AppendVideoParams{
		Video:    params.Video,
		RoomName: sender.RoomName,
	})
	if err != nil {
		return QueueResponse{}, fmt.Errorf("failed to append video: %w", err)
	}

	return s.queueResponse(ctx, sender, res)
}

type RemoveVideoParams struct {
	Index        int
	SenderConnId string
}

// RemoveVideo reports the queue even when the index is out of range.
func (s service) RemoveVideo(ctx context.Context, params *RemoveVideoParams) (QueueResponse, error) {
	sender, err := s.getSender(ctx, params.SenderConnId)
	if err != nil {
		return QueueResponse{}, err
	}

	res, err := s.roomRepo.RemoveVideoAt(ctx, &room.RemoveVideoAtParams{
		Index:    params.Index,
		RoomName: sender.RoomName,
	})
	if err != nil {
		return QueueResponse{}, fmt.Errorf("failed to remove video: %w", err)
	}

	if res.Outcome == room.OutcomeUnchanged {
		s.logger.DebugContext(ctx, "queue index out of range", "index", params.Index, "queue_length", len(res.Queue))
	}

	return s.queueResponse(ctx, sender, res)
}

func (s service) queueResponse(ctx context.Context, sender room.Member, res room.QueueResult) (QueueResponse, error) {
	if res.Outcome == room.OutcomeNotFound {
		return QueueResponse{}, ErrRoomNotFound
	}

	conns, err := s.getConnsByRoomName(ctx, sender.RoomName, "")
	if err != nil {
		return QueueResponse{}, fmt.Errorf("failed to get conns by room name: %w", err)
	}

	return QueueResponse{
		RequestingUser: sender.Username,
		Queue:          res.Queue,
		Conns:          conns,
	}, nil
}

type EndVideoParams struct {
	SenderConnId string
}

type EndVideoResponse struct {
	// false when the queue was empty; nothing else is set then
	Advanced       bool
	RequestingUser string
	VideoState     room.VideoState
	Queue          []room.Video
	Conns          []connection.Conn
}

func (s service) EndVideo(ctx context.Context, params *EndVideoParams) (EndVideoResponse, error) {
	sender, err := s.getSender(ctx, params.SenderConnId)
	if err != nil {
		return EndVideoResponse{}, err
	}

	res, err := s.roomRepo.PopNextVideo(ctx, sender.RoomName)
	if err != nil {
		return EndVideoResponse{}, fmt.Errorf("failed to pop next video: %w", err)
	}

	if res.Video == nil {
		return EndVideoResponse{}, nil
	}

	videoState := room.VideoState{
		VideoId: res.Video.ExternalId,
		VideoTs: s.currentTs(),
		VideoPs: s.defaultPlayStatus,
	}
	if _, err := s.roomRepo.UpdateVideoState(ctx, &room.SetVideoStateParams{
		VideoState: videoState,
		RoomName:   sender.RoomName,
	}); err != nil {
		return EndVideoResponse{}, fmt.Errorf("failed to update video state: %w", err)
	}

	conns, err := s.getConnsByRoomName(ctx, sender.RoomName, "")
	if err != nil {
		return EndVideoResponse{}, fmt.Errorf("failed to get conns by room name: %w", err)
	}

	return EndVideoResponse{
		Advanced:       true,
		RequestingUser: sender.Username,
		VideoState:     videoState,
		Queue:          res.Queue,
		Conns:          conns,
	}, nil
}
