package inmemory

import (
	"context"

	"github.com/watchparty/server/internal/repository/room"
)

func (r *repo) SetVideoStateIfNotExists(ctx context.Context, params *room.SetVideoStateParams) (room.Outcome, error) {
	r.logger.DebugContext(ctx, "called", "params", params)
	entry, ok := r.rooms[params.RoomName]
	if !ok {
		return room.OutcomeNotFound, nil
	}

	if entry.videoState != nil {
		return room.OutcomeUnchanged, nil
	}

	videoState := params.VideoState
	entry.videoState = &videoState

	return room.OutcomeApplied, nil
}

func (r *repo) GetVideoState(ctx context.Context, roomName string) (room.VideoState, error) {
	r.logger.DebugContext(ctx, "called", "room_name", roomName)
	entry, ok := r.rooms[roomName]
	if !ok || entry.videoState == nil {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrVideoStateNotFound)
		return room.VideoState{}, room.ErrVideoStateNotFound
	}

	return *entry.videoState, nil
}

func (r *repo) UpdateVideoState(ctx context.Context, params *room.SetVideoStateParams) (room.Outcome, error) {
	r.logger.DebugContext(ctx, "called", "params", params)
	entry, ok := r.rooms[params.RoomName]
	if !ok {
		return room.OutcomeNotFound, nil
	}

	videoState := params.VideoState
	entry.videoState = &videoState

	return room.OutcomeApplied, nil
}
