package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *AppConfig {
	return &AppConfig{
		Host:              "127.0.0.1",
		Port:              8080,
		LogLevel:          "DEBUG",
		DefaultVideoId:    "qsdzdUYl5c0",
		DefaultVideoState: "PLAYING",
		Store:             StoreMemory,
		RedisExpire:       time.Hour,
		WSReadLimit:       32768,
		WSPingPeriod:      time.Minute,
		WSSendBuffer:      32,
	}
}

func TestAppConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(cfg *AppConfig)
		wantErr bool
	}{
		{name: "valid memory", modify: func(*AppConfig) {}},
		{name: "valid redis", modify: func(cfg *AppConfig) { cfg.Store = StoreRedis }},
		{name: "unknown store", modify: func(cfg *AppConfig) { cfg.Store = "postgres" }, wantErr: true},
		{name: "empty video id", modify: func(cfg *AppConfig) { cfg.DefaultVideoId = "" }, wantErr: true},
		{name: "empty video state", modify: func(cfg *AppConfig) { cfg.DefaultVideoState = "" }, wantErr: true},
		{name: "redis without expire", modify: func(cfg *AppConfig) { cfg.Store = StoreRedis; cfg.RedisExpire = 0 }, wantErr: true},
		{name: "memory ignores expire", modify: func(cfg *AppConfig) { cfg.RedisExpire = 0 }},
		{name: "negative redis db", modify: func(cfg *AppConfig) { cfg.RedisDB = -1 }, wantErr: true},
		{name: "zero read limit", modify: func(cfg *AppConfig) { cfg.WSReadLimit = 0 }, wantErr: true},
		{name: "zero ping period", modify: func(cfg *AppConfig) { cfg.WSPingPeriod = 0 }, wantErr: true},
		{name: "zero send buffer", modify: func(cfg *AppConfig) { cfg.WSSendBuffer = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger("debug")
	assert.NoError(t, err)

	_, err = newLogger("loud")
	assert.Error(t, err)
}

func TestNewHandlerRedisUnavailable(t *testing.T) {
	cfg := validConfig()
	cfg.Store = StoreRedis
	cfg.RedisHost = "127.0.0.1"
	cfg.RedisPort = 1

	_, _, err := newHandler(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func TestRedisStoreEndToEnd(t *testing.T) {
	s := miniredis.RunT(t)
	host, port, ok := strings.Cut(s.Addr(), ":")
	require.True(t, ok)

	cfg := validConfig()
	cfg.Store = StoreRedis
	cfg.RedisHost = host
	redisPort, err := strconv.Atoi(port)
	require.NoError(t, err)
	cfg.RedisPort = redisPort

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	handler, cleanup, err := newHandler(ctx, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(cleanup)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	dial := func() *websocket.Conn {
		conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/v1/ws", nil)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		return conn
	}
	send := func(conn *websocket.Conn, messageType string, payload any) {
		require.NoError(t, conn.WriteJSON(map[string]any{"type": messageType, "payload": payload}))
	}
	read := func(conn *websocket.Conn, messageType string) string {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg message
		require.NoError(t, conn.ReadJSON(&msg))
		require.Equal(t, messageType, msg.Type, "payload: %s", msg.Payload)
		return string(msg.Payload)
	}
	user := func(name string) map[string]string {
		return map[string]string{"name": name, "room": "r1"}
	}

	alice := dial()
	send(alice, "room-connection", map[string]any{"user": user("Alice")})
	read(alice, "initial-sync")
	assert.JSONEq(t, `{"requestingUser":"Alice","serverQueueState":[]}`, read(alice, "queue-update"))

	bob := dial()
	send(bob, "room-connection", map[string]any{"user": user("Bob")})
	read(bob, "initial-sync")
	read(bob, "queue-update")
	assert.Contains(t, read(alice, "chat-message"), "Bob has joined the party! Say hi!")

	send(bob, "queue-append", map[string]any{"user": user("Bob"), "video": "abc"})
	assert.JSONEq(t, `{"requestingUser":"Bob","serverQueueState":["abc"]}`, read(alice, "queue-update"))
	assert.JSONEq(t, `{"requestingUser":"Bob","serverQueueState":["abc"]}`, read(bob, "queue-update"))

	send(alice, "end", map[string]any{"user": user("Alice")})
	for _, conn := range []*websocket.Conn{alice, bob} {
		assert.JSONEq(t, `{"requestingUser":"Alice","serverQueueState":[]}`, read(conn, "queue-update"))
		assert.Contains(t, read(conn, "select"), `"videoID":"abc"`)
	}

	send(alice, "pause", map[string]any{
		"user":             user("Alice"),
		"clientVideoState": map[string]any{"videoID": "abc", "videoTS": 12, "videoPS": "PAUSED"},
	})
	assert.JSONEq(t, `{"requestingUser":"Alice"}`, read(bob, "pause"))

	require.NoError(t, bob.Close())
	assert.Contains(t, read(alice, "chat-message"), "Bob has left the party! Adios!")

	assert.True(t, s.Exists("room:r1:video-state"))
	assert.Equal(t, "PAUSED", s.HGet("room:r1:video-state", "video_ps"))
}
