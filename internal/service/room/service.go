package room

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/watchparty/server/internal/repository/connection"
	"github.com/watchparty/server/internal/repository/room"
)

var (
	ErrNotJoined    = errors.New("connection has not joined a room")
	ErrRoomNotFound = errors.New("room not found")
)

type iRoomRepo interface {
	// room
	EnsureRoom(ctx context.Context, roomName string) error
	GetRoom(ctx context.Context, roomName string) (room.Room, error)
	ListRooms(ctx context.Context) ([]string, error)
	// video state
	SetVideoStateIfNotExists(context.Context, *room.SetVideoStateParams) (room.Outcome, error)
	GetVideoState(ctx context.Context, roomName string) (room.VideoState, error)
	UpdateVideoState(context.Context, *room.SetVideoStateParams) (room.Outcome, error)
	// queue
	GetQueue(ctx context.Context, roomName string) ([]room.Video, error)
	AppendVideo(context.Context, *room.AppendVideoParams) (room.QueueResult, error)
	RemoveVideoAt(context.Context, *room.RemoveVideoAtParams) (room.QueueResult, error)
	PopNextVideo(ctx context.Context, roomName string) (room.PopResult, error)
	// member
	AddMember(context.Context, *room.AddMemberParams) error
	GetMember(ctx context.Context, connId string) (room.Member, error)
	RemoveMember(ctx context.Context, connId string) (room.MemberResult, error)
	GetMemberConnIds(ctx context.Context, roomName string) ([]string, error)
}

type iConnRepo interface {
	Get(connId string) (connection.Conn, error)
}

type Config struct {
	DefaultVideoId    string
	DefaultPlayStatus room.PlayStatus
}

// service decides what changes and who hears about it. It holds no locks:
// callers must not invoke it from more than one goroutine at a time.
type service struct {
	roomRepo          iRoomRepo
	connRepo          iConnRepo
	defaultVideoId    string
	defaultPlayStatus room.PlayStatus
	now               func() time.Time
	logger            *slog.Logger
}

func NewService(roomRepo iRoomRepo, connRepo iConnRepo, cfg *Config, logger *slog.Logger) *service {
	return &service{
		roomRepo:          roomRepo,
		connRepo:          connRepo,
		defaultVideoId:    cfg.DefaultVideoId,
		defaultPlayStatus: cfg.DefaultPlayStatus,
		now:               time.Now,
		logger:            logger,
	}
}
