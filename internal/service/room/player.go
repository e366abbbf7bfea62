package room

import (
	"context"
	"fmt"

	"github.com/watchparty/server/internal/repository/connection"
	"github.com/watchparty/server/internal/repository/room"
)

// UpdateVideoStateParams carries the state exactly as the client sent it.
// Every update overwrites the room's state; there is no ordering check.
type UpdateVideoStateParams struct {
	VideoState   room.VideoState
	SenderConnId string
}

type UpdateVideoStateResponse struct {
	RequestingUser string
	VideoState     room.VideoState
	Conns          []connection.Conn
}

// SelectVideo and SeekVideo are echoed to the whole room.
func (s service) SelectVideo(ctx context.Context, params *UpdateVideoStateParams) (UpdateVideoStateResponse, error) {
	return s.updateVideoState(ctx, params, true)
}

func (s service) SeekVideo(ctx context.Context, params *UpdateVideoStateParams) (UpdateVideoStateResponse, error) {
	return s.updateVideoState(ctx, params, true)
}

// PauseVideo and PlayVideo skip the sender, who already applied the change.
func (s service) PauseVideo(ctx context.Context, params *UpdateVideoStateParams) (UpdateVideoStateResponse, error) {
	return s.updateVideoState(ctx, params, false)
}

func (s service) PlayVideo(ctx context.Context, params *UpdateVideoStateParams) (UpdateVideoStateResponse, error) {
	return s.updateVideoState(ctx, params, false)
}

func (s service) updateVideoState(ctx context.Context, params *UpdateVideoStateParams, includeSender bool) (UpdateVideoStateResponse, error) {
	sender, err := s.getSender(ctx, params.SenderConnId)
	if err != nil {
		return UpdateVideoStateResponse{}, err
	}

	outcome, err := s.roomRepo.UpdateVideoState(ctx, &room.SetVideoStateParams{
		VideoState: params.VideoState,
		RoomName:   sender.RoomName,
	})
	if err != nil {
		return UpdateVideoStateResponse{}, fmt.Errorf("failed to update video state: %w", err)
	}

	if outcome == room.OutcomeNotFound {
		return UpdateVideoStateResponse{}, ErrRoomNotFound
	}

	exceptConnId := params.SenderConnId
	if includeSender {
		exceptConnId = ""
	}

	conns, err := s.getConnsByRoomName(ctx, sender.RoomName, exceptConnId)
	if err != nil {
		return UpdateVideoStateResponse{}, fmt.Errorf("failed to get conns by room name: %w", err)
	}

	return UpdateVideoStateResponse{
		RequestingUser: sender.Username,
		VideoState:     params.VideoState,
		Conns:          conns,
	}, nil
}
