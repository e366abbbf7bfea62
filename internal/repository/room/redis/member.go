package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/watchparty/server/internal/repository/room"
)

func (r repo) getMemberKey(connId string) string {
	return "member:" + connId
}

func (r repo) getMemberListKey(roomName string) string {
	return "room:" + roomName + ":members"
}

// AddMember overwrites any previous entry of the same connection, including
// its place in another room's roster.
func (r repo) AddMember(ctx context.Context, params *room.AddMemberParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	exists, err := r.touchRoom(ctx, params.RoomName)
	if err != nil {
		return fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !exists {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrRoomNotFound)
		return room.ErrRoomNotFound
	}

	memberKey := r.getMemberKey(params.ConnId)
	prevRoomName, err := r.rc.HGet(ctx, memberKey, "room_name").Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to get previous room of member: %w", err)
	}

	pipe := r.rc.TxPipeline()
	if prevRoomName != "" {
		pipe.ZRem(ctx, r.getMemberListKey(prevRoomName), params.ConnId)
	}
	pipe.HSet(ctx, memberKey, room.Member{
		ConnId:   params.ConnId,
		Username: params.Username,
		RoomName: params.RoomName,
	})
	pipe.Expire(ctx, memberKey, r.expireDuration)
	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return fmt.Errorf("failed to set member: %w", err)
	}

	memberListKey := r.getMemberListKey(params.RoomName)
	if err := r.addWithIncrement(ctx, r.rc, memberListKey, params.ConnId); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return fmt.Errorf("failed to add member to list: %w", err)
	}
	if err := r.rc.Expire(ctx, memberListKey, r.expireDuration).Err(); err != nil {
		return fmt.Errorf("failed to set member list expiration: %w", err)
	}

	return nil
}

func (r repo) GetMember(ctx context.Context, connId string) (room.Member, error) {
	r.logger.DebugContext(ctx, "called", "conn_id", connId)
	cmd := r.rc.HGetAll(ctx, r.getMemberKey(connId))
	if err := cmd.Err(); err != nil {
		return room.Member{}, fmt.Errorf("failed to get member: %w", err)
	}

	if len(cmd.Val()) == 0 {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrMemberNotFound)
		return room.Member{}, room.ErrMemberNotFound
	}

	var member room.Member
	if err := cmd.Scan(&member); err != nil {
		return room.Member{}, fmt.Errorf("failed to scan member: %w", err)
	}

	return member, nil
}

func (r repo) RemoveMember(ctx context.Context, connId string) (room.MemberResult, error) {
	r.logger.DebugContext(ctx, "called", "conn_id", connId)
	member, err := r.GetMember(ctx, connId)
	if err != nil {
		if errors.Is(err, room.ErrMemberNotFound) {
			return room.MemberResult{Outcome: room.OutcomeNotFound}, nil
		}
		return room.MemberResult{}, err
	}

	pipe := r.rc.TxPipeline()
	pipe.Del(ctx, r.getMemberKey(connId))
	pipe.ZRem(ctx, r.getMemberListKey(member.RoomName), connId)
	if err := r.executePipe(ctx, pipe); err != nil {
		r.logger.DebugContext(ctx, "returned", "error", err)
		return room.MemberResult{}, fmt.Errorf("failed to remove member: %w", err)
	}

	return room.MemberResult{Member: member, Outcome: room.OutcomeApplied}, nil
}

// GetMemberConnIds is asked for the audience of every event, so it also
// keeps the room from expiring while it is in use.
func (r repo) GetMemberConnIds(ctx context.Context, roomName string) ([]string, error) {
	r.logger.DebugContext(ctx, "called", "room_name", roomName)
	if _, err := r.touchRoom(ctx, roomName); err != nil {
		return nil, err
	}

	return r.getMemberConnIds(ctx, roomName)
}

func (r repo) getMemberConnIds(ctx context.Context, roomName string) ([]string, error) {
	connIds, err := r.rc.ZRange(ctx, r.getMemberListKey(roomName), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get member list: %w", err)
	}

	return connIds, nil
}
