package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/watchparty/server/internal/controller"
	connInmemory "github.com/watchparty/server/internal/repository/connection/inmemory"
	"github.com/watchparty/server/internal/repository/room"
	roomInmemory "github.com/watchparty/server/internal/repository/room/inmemory"
	roomRedis "github.com/watchparty/server/internal/repository/room/redis"
	roomService "github.com/watchparty/server/internal/service/room"
	"github.com/watchparty/server/pkg/ctxlogger"
	"github.com/watchparty/server/pkg/eventloop"
	"github.com/watchparty/server/pkg/redisclient"
	"github.com/watchparty/server/pkg/ytvideodata"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type AppConfig struct {
	Host              string        `json:"host"`
	Port              int           `json:"port"`
	LogLevel          string        `json:"log_level"`
	DefaultVideoId    string        `json:"default_video_id"`
	DefaultVideoState string        `json:"default_video_state"`
	Store             string        `json:"store"`
	RedisHost         string        `json:"redis_host"`
	RedisPort         int           `json:"redis_port"`
	RedisPassword     string        `json:"-"`
	RedisDB           int           `json:"redis_db"`
	RedisExpire       time.Duration `json:"redis_expire"`
	WSReadLimit       int64         `json:"ws_read_limit"`
	WSPingPeriod      time.Duration `json:"ws_ping_period"`
	WSSendBuffer      int           `json:"ws_send_buffer"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Store != StoreMemory && cfg.Store != StoreRedis {
		return fmt.Errorf("unknown store %q, expected %q or %q", cfg.Store, StoreMemory, StoreRedis)
	}
	if cfg.DefaultVideoId == "" {
		return fmt.Errorf("default video id must not be empty")
	}
	if cfg.DefaultVideoState == "" {
		return fmt.Errorf("default video state must not be empty")
	}
	if cfg.RedisDB < 0 {
		return fmt.Errorf("redis db must not be negative")
	}
	if cfg.Store == StoreRedis && cfg.RedisExpire <= 0 {
		return fmt.Errorf("redis expire must be greater than 0")
	}
	if cfg.WSReadLimit < 1 {
		return fmt.Errorf("ws read limit must be greater than 0")
	}
	if cfg.WSPingPeriod <= 0 {
		return fmt.Errorf("ws ping period must be greater than 0")
	}
	if cfg.WSSendBuffer < 1 {
		return fmt.Errorf("ws send buffer must be greater than 0")
	}
	return nil
}

func newLogger(level string) (*slog.Logger, error) {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	return slog.New(&h), nil
}

type roomRepo interface {
	EnsureRoom(ctx context.Context, roomName string) error
	GetRoom(ctx context.Context, roomName string) (room.Room, error)
	ListRooms(ctx context.Context) ([]string, error)
	SetVideoStateIfNotExists(ctx context.Context, params *room.SetVideoStateParams) (room.Outcome, error)
	GetVideoState(ctx context.Context, roomName string) (room.VideoState, error)
	UpdateVideoState(ctx context.Context, params *room.SetVideoStateParams) (room.Outcome, error)
	GetQueue(ctx context.Context, roomName string) ([]room.Video, error)
	AppendVideo(ctx context.Context, params *room.AppendVideoParams) (room.QueueResult, error)
	RemoveVideoAt(ctx context.Context, params *room.RemoveVideoAtParams) (room.QueueResult, error)
	PopNextVideo(ctx context.Context, roomName string) (room.PopResult, error)
	AddMember(ctx context.Context, params *room.AddMemberParams) error
	GetMember(ctx context.Context, connId string) (room.Member, error)
	RemoveMember(ctx context.Context, connId string) (room.MemberResult, error)
	GetMemberConnIds(ctx context.Context, roomName string) ([]string, error)
}

// newRoomRepo returns the configured room store and a func releasing it.
func newRoomRepo(ctx context.Context, cfg *AppConfig, logger *slog.Logger) (roomRepo, func(), error) {
	if cfg.Store == StoreMemory {
		return roomInmemory.NewRepo(logger), func() {}, nil
	}

	rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create redis client: %w", err)
	}

	return roomRedis.NewRepo(rc, cfg.RedisExpire, logger), func() { rc.Close() }, nil
}

// newHandler wires the stores, the event loop and the controller. The loop
// stops when ctx is done.
func newHandler(ctx context.Context, cfg *AppConfig, logger *slog.Logger) (http.Handler, func(), error) {
	roomRepo, closeRoomRepo, err := newRoomRepo(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	connRepo := connInmemory.NewRepo(logger)
	service := roomService.NewService(roomRepo, connRepo, &roomService.Config{
		DefaultVideoId:    cfg.DefaultVideoId,
		DefaultPlayStatus: room.PlayStatus(cfg.DefaultVideoState),
	}, logger)

	loop := eventloop.New()
	go loop.Run(ctx)

	videoData := ytvideodata.New(&ytvideodata.Config{Timeout: 5 * time.Second})

	c := controller.NewController(service, connRepo, videoData, loop, &controller.Config{
		ReadLimit:  cfg.WSReadLimit,
		PingPeriod: cfg.WSPingPeriod,
		SendBuffer: cfg.WSSendBuffer,
	}, logger)

	return c.GetMux(), closeRoomRepo, nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)
	defer serverStopCtx()

	handler, cleanup, err := newHandler(serverCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: handler}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		err := server.Shutdown(shutdownCtx)
		if err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr, "store", cfg.Store)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
