package inmemory

import (
	"context"
	"slices"

	"github.com/watchparty/server/internal/repository/room"
)

func (r *repo) removeFromRoster(roomName, connId string) {
	entry, ok := r.rooms[roomName]
	if !ok {
		return
	}

	if i := slices.Index(entry.members, connId); i != -1 {
		entry.members = slices.Delete(entry.members, i, i+1)
	}
}

// AddMember overwrites any previous entry of the same connection, including
// its place in another room's roster.
func (r *repo) AddMember(ctx context.Context, params *room.AddMemberParams) error {
	r.logger.DebugContext(ctx, "called", "params", params)
	entry, ok := r.rooms[params.RoomName]
	if !ok {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrRoomNotFound)
		return room.ErrRoomNotFound
	}

	if prev, ok := r.members[params.ConnId]; ok {
		r.removeFromRoster(prev.RoomName, params.ConnId)
	}

	r.members[params.ConnId] = room.Member{
		ConnId:   params.ConnId,
		Username: params.Username,
		RoomName: params.RoomName,
	}
	entry.members = append(entry.members, params.ConnId)

	return nil
}

func (r *repo) GetMember(ctx context.Context, connId string) (room.Member, error) {
	r.logger.DebugContext(ctx, "called", "conn_id", connId)
	member, ok := r.members[connId]
	if !ok {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrMemberNotFound)
		return room.Member{}, room.ErrMemberNotFound
	}

	return member, nil
}

func (r *repo) RemoveMember(ctx context.Context, connId string) (room.MemberResult, error) {
	r.logger.DebugContext(ctx, "called", "conn_id", connId)
	member, ok := r.members[connId]
	if !ok {
		return room.MemberResult{Outcome: room.OutcomeNotFound}, nil
	}

	delete(r.members, connId)
	r.removeFromRoster(member.RoomName, connId)

	return room.MemberResult{Member: member, Outcome: room.OutcomeApplied}, nil
}

func (r *repo) GetMemberConnIds(ctx context.Context, roomName string) ([]string, error) {
	r.logger.DebugContext(ctx, "called", "room_name", roomName)
	entry, ok := r.rooms[roomName]
	if !ok {
		return []string{}, nil
	}

	return slices.Clone(entry.members), nil
}
