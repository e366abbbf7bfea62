package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/watchparty/server/internal/repository/room"
)

type repo struct {
	rc                   *redis.Client
	maxScoreScript       *redis.Script
	setIfNotExistsScript *redis.Script
	removeAtScript       *redis.Script
	touchRoomScript      *redis.Script
	expireDuration       time.Duration
	logger               *slog.Logger
}

func NewRepo(rc *redis.Client, expireDuration time.Duration, logger *slog.Logger) *repo {
	return &repo{
		rc: rc,
		maxScoreScript: redis.NewScript(`
			local maxScore = redis.call('ZREVRANGE', KEYS[1], 0, 0, 'WITHSCORES')
			local nextScore = 1
			if #maxScore > 0 then
				nextScore = tonumber(maxScore[2]) + 1
			end
			redis.call('ZADD', KEYS[1], nextScore, ARGV[1])
			return nextScore
		`),
		setIfNotExistsScript: redis.NewScript(`
			if redis.call('EXISTS', KEYS[1]) == 1 then
				return 0
			end
			redis.call('HSET', KEYS[1], 'video_id', ARGV[1], 'video_ts', ARGV[2], 'video_ps', ARGV[3])
			return 1
		`),
		removeAtScript: redis.NewScript(`
			local index = tonumber(ARGV[1])
			local length = redis.call('LLEN', KEYS[1])
			if index < 0 or index >= length then
				return 0
			end
			redis.call('LSET', KEYS[1], index, ARGV[2])
			redis.call('LREM', KEYS[1], 1, ARGV[2])
			return 1
		`),
		// KEYS: room, rooms set, then the room's data keys with the roster last.
		// ARGV: ttl in seconds, member key prefix.
		touchRoomScript: redis.NewScript(`
			local ttl = tonumber(ARGV[1])
			if redis.call('EXPIRE', KEYS[1], ttl) == 0 then
				return 0
			end
			for i = 2, #KEYS do
				redis.call('EXPIRE', KEYS[i], ttl)
			end
			for _, connId in ipairs(redis.call('ZRANGE', KEYS[#KEYS], 0, -1)) do
				redis.call('EXPIRE', ARGV[2] .. connId, ttl)
			end
			return 1
		`),
		expireDuration: expireDuration,
		logger:         logger,
	}
}

func (r repo) getRoomsKey() string {
	return "rooms"
}

func (r repo) getRoomKey(roomName string) string {
	return "room:" + roomName
}

func (r repo) isRoomExists(ctx context.Context, roomName string) (bool, error) {
	n, err := r.rc.Exists(ctx, r.getRoomKey(roomName)).Result()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

// touchRoom reports whether the room exists and, if it does, pushes back the
// expiration of every key belonging to it, member hashes included.
func (r repo) touchRoom(ctx context.Context, roomName string) (bool, error) {
	touched, err := r.touchRoomScript.Run(ctx, r.rc,
		[]string{
			r.getRoomKey(roomName),
			r.getRoomsKey(),
			r.getVideoStateKey(roomName),
			r.getQueueKey(roomName),
			r.getMemberListKey(roomName),
		},
		r.expireSeconds(),
		r.getMemberKey(""),
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to touch room: %w", err)
	}

	return touched == 1, nil
}

func (r repo) EnsureRoom(ctx context.Context, roomName string) error {
	r.logger.DebugContext(ctx, "called", "room_name", roomName)
	pipe := r.rc.TxPipeline()
	pipe.Set(ctx, r.getRoomKey(roomName), 1, r.expireDuration)
	pipe.SAdd(ctx, r.getRoomsKey(), roomName)

	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return fmt.Errorf("failed to ensure room: %w", err)
	}

	if _, err := r.touchRoom(ctx, roomName); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return err
	}

	return nil
}

func (r repo) GetRoom(ctx context.Context, roomName string) (room.Room, error) {
	r.logger.DebugContext(ctx, "called", "room_name", roomName)
	exists, err := r.isRoomExists(ctx, roomName)
	if err != nil {
		return room.Room{}, fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !exists {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrRoomNotFound)
		return room.Room{}, room.ErrRoomNotFound
	}

	res := room.Room{Name: roomName}

	videoState, err := r.GetVideoState(ctx, roomName)
	switch {
	case err == nil:
		res.VideoState = &videoState
	case !errors.Is(err, room.ErrVideoStateNotFound):
		return room.Room{}, err
	}

	if res.Queue, err = r.GetQueue(ctx, roomName); err != nil {
		return room.Room{}, err
	}

	connIds, err := r.getMemberConnIds(ctx, roomName)
	if err != nil {
		return room.Room{}, err
	}

	res.Members = make([]room.Member, 0, len(connIds))
	for _, connId := range connIds {
		member, err := r.GetMember(ctx, connId)
		if err != nil {
			if errors.Is(err, room.ErrMemberNotFound) {
				continue
			}
			return room.Room{}, err
		}
		res.Members = append(res.Members, member)
	}

	return res, nil
}

// ListRooms drops names of expired rooms from the rooms set on the way.
func (r repo) ListRooms(ctx context.Context) ([]string, error) {
	r.logger.DebugContext(ctx, "called")
	names, err := r.rc.SMembers(ctx, r.getRoomsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	pipe := r.rc.Pipeline()
	exists := make([]*redis.IntCmd, len(names))
	for i, name := range names {
		exists[i] = pipe.Exists(ctx, r.getRoomKey(name))
	}
	if err := r.executePipe(ctx, pipe); err != nil {
		return nil, fmt.Errorf("failed to check rooms: %w", err)
	}

	alive := make([]string, 0, len(names))
	expired := make([]any, 0)
	for i, name := range names {
		if exists[i].Val() == 1 {
			alive = append(alive, name)
		} else {
			expired = append(expired, name)
		}
	}

	if len(expired) > 0 {
		if err := r.rc.SRem(ctx, r.getRoomsKey(), expired...).Err(); err != nil {
			r.logger.WarnContext(ctx, "failed to prune expired rooms", "error", err)
		}
	}

	slices.Sort(alive)

	return alive, nil
}
