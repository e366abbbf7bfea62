package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/watchparty/server/internal/repository/connection"
	"github.com/watchparty/server/internal/repository/room"
)

// getConnsByRoomName returns the live connections of a room's members,
// skipping exceptConnId. Members without a local connection are skipped.
func (s service) getConnsByRoomName(ctx context.Context, roomName, exceptConnId string) ([]connection.Conn, error) {
	connIds, err := s.roomRepo.GetMemberConnIds(ctx, roomName)
	if err != nil {
		return nil, fmt.Errorf("failed to get member conn ids: %w", err)
	}

	conns := make([]connection.Conn, 0, len(connIds))
	for _, connId := range connIds {
		if connId == exceptConnId {
			continue
		}

		conn, err := s.connRepo.Get(connId)
		if err != nil {
			s.logger.DebugContext(ctx, "member has no connection", "conn_id", connId, "error", err)
			continue
		}

		conns = append(conns, conn)
	}

	return conns, nil
}

func (s service) getSender(ctx context.Context, connId string) (room.Member, error) {
	member, err := s.roomRepo.GetMember(ctx, connId)
	if err != nil {
		if errors.Is(err, room.ErrMemberNotFound) {
			return room.Member{}, ErrNotJoined
		}
		return room.Member{}, fmt.Errorf("failed to get member: %w", err)
	}

	return member, nil
}

func (s service) currentTs() float64 {
	return float64(s.now().UnixMilli())
}
