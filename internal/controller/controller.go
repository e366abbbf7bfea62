package controller

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/watchparty/server/internal/repository/connection"
	"github.com/watchparty/server/internal/repository/room"
	roomService "github.com/watchparty/server/internal/service/room"
	"github.com/watchparty/server/pkg/validator"
	"github.com/watchparty/server/pkg/wsrouter"
	"github.com/watchparty/server/pkg/ytvideodata"
)

type iRoomService interface {
	JoinRoom(context.Context, *roomService.JoinRoomParams) (roomService.JoinRoomResponse, error)
	DisconnectMember(context.Context, *roomService.DisconnectMemberParams) (roomService.DisconnectMemberResponse, error)
	SendChatMessage(context.Context, *roomService.SendChatMessageParams) (roomService.SendChatMessageResponse, error)
	AppendVideo(context.Context, *roomService.AppendVideoParams) (roomService.QueueResponse, error)
	RemoveVideo(context.Context, *roomService.RemoveVideoParams) (roomService.QueueResponse, error)
	EndVideo(context.Context, *roomService.EndVideoParams) (roomService.EndVideoResponse, error)
	SelectVideo(context.Context, *roomService.UpdateVideoStateParams) (roomService.UpdateVideoStateResponse, error)
	SeekVideo(context.Context, *roomService.UpdateVideoStateParams) (roomService.UpdateVideoStateResponse, error)
	PauseVideo(context.Context, *roomService.UpdateVideoStateParams) (roomService.UpdateVideoStateResponse, error)
	PlayVideo(context.Context, *roomService.UpdateVideoStateParams) (roomService.UpdateVideoStateResponse, error)
	GetRoom(ctx context.Context, roomName string) (room.Room, error)
	ListRooms(ctx context.Context) ([]string, error)
}

type iConnRepo interface {
	Add(connId string, conn connection.Conn) error
	Remove(connId string) error
	Get(connId string) (connection.Conn, error)
	Len() int
}

type iVideoData interface {
	Get(ctx context.Context, videoId string) (*ytvideodata.VideoData, error)
}

// iLoop serializes every access to room state.
type iLoop interface {
	Do(ctx context.Context, fn func()) error
}

type Config struct {
	ReadLimit  int64
	PingPeriod time.Duration
	SendBuffer int
}

type controller struct {
	roomService iRoomService
	connRepo    iConnRepo
	videoData   iVideoData
	loop        iLoop
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	wsmux       *wsrouter.WSRouter
	readLimit   int64
	pingPeriod  time.Duration
	sendBuffer  int
	logger      *slog.Logger
}

func NewController(
	roomService iRoomService,
	connRepo iConnRepo,
	videoData iVideoData,
	loop iLoop,
	cfg *Config,
	logger *slog.Logger,
) *controller {
	c := &controller{
		roomService: roomService,
		connRepo:    connRepo,
		videoData:   videoData,
		loop:        loop,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		validate:   validator.NewValidator(),
		readLimit:  cfg.ReadLimit,
		pingPeriod: cfg.PingPeriod,
		sendBuffer: cfg.SendBuffer,
		logger:     logger,
	}
	c.wsmux = c.getWSRouter()

	return c
}
