package redis

import (
	"context"
	"fmt"

	"github.com/watchparty/server/internal/repository/room"
)

func (r repo) getVideoStateKey(roomName string) string {
	return "room:" + roomName + ":video-state"
}

func (r repo) SetVideoStateIfNotExists(ctx context.Context, params *room.SetVideoStateParams) (room.Outcome, error) {
	r.logger.DebugContext(ctx, "called", "params", params)
	exists, err := r.touchRoom(ctx, params.RoomName)
	if err != nil {
		return room.OutcomeUnchanged, fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !exists {
		return room.OutcomeNotFound, nil
	}

	videoStateKey := r.getVideoStateKey(params.RoomName)
	set, err := r.setIfNotExistsScript.Run(ctx, r.rc, []string{videoStateKey},
		params.VideoState.VideoId,
		r.float64ToField(params.VideoState.VideoTs),
		string(params.VideoState.VideoPs),
	).Int()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.OutcomeUnchanged, fmt.Errorf("failed to set video state: %w", err)
	}

	if err := r.rc.Expire(ctx, videoStateKey, r.expireDuration).Err(); err != nil {
		return room.OutcomeUnchanged, fmt.Errorf("failed to set video state expiration: %w", err)
	}

	if set == 0 {
		return room.OutcomeUnchanged, nil
	}

	return room.OutcomeApplied, nil
}

func (r repo) GetVideoState(ctx context.Context, roomName string) (room.VideoState, error) {
	r.logger.DebugContext(ctx, "called", "room_name", roomName)
	videoStateKey := r.getVideoStateKey(roomName)
	fields, err := r.rc.HGetAll(ctx, videoStateKey).Result()
	if err != nil {
		return room.VideoState{}, fmt.Errorf("failed to get video state: %w", err)
	}

	if len(fields) == 0 {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrVideoStateNotFound)
		return room.VideoState{}, room.ErrVideoStateNotFound
	}

	return room.VideoState{
		VideoId: fields["video_id"],
		VideoTs: r.fieldToFloat64(fields["video_ts"]),
		VideoPs: room.PlayStatus(fields["video_ps"]),
	}, nil
}

func (r repo) UpdateVideoState(ctx context.Context, params *room.SetVideoStateParams) (room.Outcome, error) {
	r.logger.DebugContext(ctx, "called", "params", params)
	exists, err := r.touchRoom(ctx, params.RoomName)
	if err != nil {
		return room.OutcomeUnchanged, fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !exists {
		return room.OutcomeNotFound, nil
	}

	videoStateKey := r.getVideoStateKey(params.RoomName)
	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, videoStateKey,
		"video_id", params.VideoState.VideoId,
		"video_ts", r.float64ToField(params.VideoState.VideoTs),
		"video_ps", string(params.VideoState.VideoPs),
	)
	pipe.Expire(ctx, videoStateKey, r.expireDuration)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.OutcomeUnchanged, fmt.Errorf("failed to update video state: %w", err)
	}

	return room.OutcomeApplied, nil
}
