package inmemory

import (
	"context"
	"slices"

	"github.com/watchparty/server/internal/repository/room"
)

func (r *repo) GetQueue(ctx context.Context, roomName string) ([]room.Video, error) {
	r.logger.DebugContext(ctx, "called", "room_name", roomName)
	entry, ok := r.rooms[roomName]
	if !ok {
		return []room.Video{}, nil
	}

	return slices.Clone(entry.queue), nil
}

func (r *repo) AppendVideo(ctx context.Context, params *room.AppendVideoParams) (room.QueueResult, error) {
	r.logger.DebugContext(ctx, "called", "params", params)
	entry, ok := r.rooms[params.RoomName]
	if !ok {
		return room.QueueResult{Queue: []room.Video{}, Outcome: room.OutcomeNotFound}, nil
	}

	entry.queue = append(entry.queue, params.Video)

	return room.QueueResult{Queue: slices.Clone(entry.queue), Outcome: room.OutcomeApplied}, nil
}

func (r *repo) RemoveVideoAt(ctx context.Context, params *room.RemoveVideoAtParams) (room.QueueResult, error) {
	r.logger.DebugContext(ctx, "called", "params", params)
	entry, ok := r.rooms[params.RoomName]
	if !ok {
		return room.QueueResult{Queue: []room.Video{}, Outcome: room.OutcomeNotFound}, nil
	}

	if params.Index < 0 || params.Index >= len(entry.queue) {
		return room.QueueResult{Queue: slices.Clone(entry.queue), Outcome: room.OutcomeUnchanged}, nil
	}

	entry.queue = slices.Delete(entry.queue, params.Index, params.Index+1)

	return room.QueueResult{Queue: slices.Clone(entry.queue), Outcome: room.OutcomeApplied}, nil
}

func (r *repo) PopNextVideo(ctx context.Context, roomName string) (room.PopResult, error) {
	r.logger.DebugContext(ctx, "called", "room_name", roomName)
	entry, ok := r.rooms[roomName]
	if !ok {
		return room.PopResult{Queue: []room.Video{}, Outcome: room.OutcomeNotFound}, nil
	}

	if len(entry.queue) == 0 {
		return room.PopResult{Queue: []room.Video{}, Outcome: room.OutcomeUnchanged}, nil
	}

	next := entry.queue[0]
	entry.queue = slices.Delete(entry.queue, 0, 1)

	return room.PopResult{
		Video:   &next,
		Queue:   slices.Clone(entry.queue),
		Outcome: room.OutcomeApplied,
	}, nil
}
