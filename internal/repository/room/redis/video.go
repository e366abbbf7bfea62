package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/watchparty/server/internal/repository/room"
)

// placeholder written over an entry right before it is removed with LREM
const removedVideoMark = "__removed__"

func (r repo) getQueueKey(roomName string) string {
	return "room:" + roomName + ":queue"
}

func (r repo) decodeQueue(items []string) []room.Video {
	queue := make([]room.Video, 0, len(items))
	for _, item := range items {
		queue = append(queue, room.NewVideo([]byte(item)))
	}

	return queue
}

func (r repo) GetQueue(ctx context.Context, roomName string) ([]room.Video, error) {
	r.logger.DebugContext(ctx, "called", "room_name", roomName)
	items, err := r.rc.LRange(ctx, r.getQueueKey(roomName), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get queue: %w", err)
	}

	return r.decodeQueue(items), nil
}

func (r repo) AppendVideo(ctx context.Context, params *room.AppendVideoParams) (room.QueueResult, error) {
	r.logger.DebugContext(ctx, "called", "params", params)
	exists, err := r.touchRoom(ctx, params.RoomName)
	if err != nil {
		return room.QueueResult{}, fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !exists {
		return room.QueueResult{Queue: []room.Video{}, Outcome: room.OutcomeNotFound}, nil
	}

	item, err := params.Video.MarshalJSON()
	if err != nil {
		return room.QueueResult{}, fmt.Errorf("failed to encode video: %w", err)
	}

	queueKey := r.getQueueKey(params.RoomName)
	pipe := r.rc.TxPipeline()
	pipe.RPush(ctx, queueKey, item)
	pipe.Expire(ctx, queueKey, r.expireDuration)
	lrange := pipe.LRange(ctx, queueKey, 0, -1)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.QueueResult{}, fmt.Errorf("failed to append video: %w", err)
	}

	return room.QueueResult{Queue: r.decodeQueue(lrange.Val()), Outcome: room.OutcomeApplied}, nil
}

func (r repo) RemoveVideoAt(ctx context.Context, params *room.RemoveVideoAtParams) (room.QueueResult, error) {
	r.logger.DebugContext(ctx, "called", "params", params)
	exists, err := r.touchRoom(ctx, params.RoomName)
	if err != nil {
		return room.QueueResult{}, fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !exists {
		return room.QueueResult{Queue: []room.Video{}, Outcome: room.OutcomeNotFound}, nil
	}

	queueKey := r.getQueueKey(params.RoomName)
	removed, err := r.removeAtScript.Run(ctx, r.rc, []string{queueKey}, params.Index, removedVideoMark).Int()
	if err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.QueueResult{}, fmt.Errorf("failed to remove video: %w", err)
	}

	queue, err := r.GetQueue(ctx, params.RoomName)
	if err != nil {
		return room.QueueResult{}, err
	}

	outcome := room.OutcomeApplied
	if removed == 0 {
		outcome = room.OutcomeUnchanged
	}

	return room.QueueResult{Queue: queue, Outcome: outcome}, nil
}

func (r repo) PopNextVideo(ctx context.Context, roomName string) (room.PopResult, error) {
	r.logger.DebugContext(ctx, "called", "room_name", roomName)
	exists, err := r.touchRoom(ctx, roomName)
	if err != nil {
		return room.PopResult{}, fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !exists {
		return room.PopResult{Queue: []room.Video{}, Outcome: room.OutcomeNotFound}, nil
	}

	queueKey := r.getQueueKey(roomName)
	pipe := r.rc.TxPipeline()
	lpop := pipe.LPop(ctx, queueKey)
	lrange := pipe.LRange(ctx, queueKey, 0, -1)

	// an empty queue makes LPOP reply nil, which is not a failure here
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.PopResult{}, fmt.Errorf("failed to pop video: %w", err)
	}

	if err := lrange.Err(); err != nil {
		return room.PopResult{}, fmt.Errorf("failed to get queue: %w", err)
	}

	item, err := lpop.Result()
	if errors.Is(err, redis.Nil) {
		return room.PopResult{Queue: r.decodeQueue(lrange.Val()), Outcome: room.OutcomeUnchanged}, nil
	}
	if err != nil {
		return room.PopResult{}, fmt.Errorf("failed to pop video: %w", err)
	}

	video := room.NewVideo([]byte(item))

	return room.PopResult{
		Video:   &video,
		Queue:   r.decodeQueue(lrange.Val()),
		Outcome: room.OutcomeApplied,
	}, nil
}
