package inmemory

import (
	"context"
	"log/slog"
	"slices"

	"github.com/watchparty/server/internal/repository/room"
	"golang.org/x/exp/maps"
)

type roomEntry struct {
	videoState *room.VideoState
	queue      []room.Video
	// connection ids in join order
	members []string
}

// repo keeps every room in process memory. It is not safe for concurrent
// use: all calls are expected to come from one dispatch goroutine.
type repo struct {
	rooms   map[string]*roomEntry
	members map[string]room.Member
	logger  *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		rooms:   make(map[string]*roomEntry),
		members: make(map[string]room.Member),
		logger:  logger,
	}
}

func (r *repo) EnsureRoom(ctx context.Context, roomName string) error {
	r.logger.DebugContext(ctx, "called", "room_name", roomName)
	if _, ok := r.rooms[roomName]; !ok {
		r.rooms[roomName] = &roomEntry{
			queue:   []room.Video{},
			members: []string{},
		}
	}

	return nil
}

func (r *repo) GetRoom(ctx context.Context, roomName string) (room.Room, error) {
	r.logger.DebugContext(ctx, "called", "room_name", roomName)
	entry, ok := r.rooms[roomName]
	if !ok {
		r.logger.DebugContext(ctx, "returned", "error", room.ErrRoomNotFound)
		return room.Room{}, room.ErrRoomNotFound
	}

	res := room.Room{
		Name:    roomName,
		Queue:   slices.Clone(entry.queue),
		Members: make([]room.Member, 0, len(entry.members)),
	}
	if entry.videoState != nil {
		videoState := *entry.videoState
		res.VideoState = &videoState
	}
	for _, connId := range entry.members {
		res.Members = append(res.Members, r.members[connId])
	}

	return res, nil
}

func (r *repo) ListRooms(ctx context.Context) ([]string, error) {
	r.logger.DebugContext(ctx, "called")
	names := maps.Keys(r.rooms)
	slices.Sort(names)

	return names, nil
}
