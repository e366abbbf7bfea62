package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/watchparty/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 8080,
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	defaultVideoId = configVar[string]{
		envKey:       "SERVER_DEFAULT_VIDEO_ID",
		flagKey:      "default-video-id",
		defaultValue: "qsdzdUYl5c0",
	}
	defaultVideoState = configVar[string]{
		envKey:       "SERVER_DEFAULT_VIDEO_STATE",
		flagKey:      "default-video-state",
		defaultValue: "PLAYING",
	}
	store = configVar[string]{
		envKey:       "SERVER_STORE",
		flagKey:      "store",
		defaultValue: app.StoreMemory,
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
	redisDB = configVar[int]{
		envKey:       "REDIS_DB",
		flagKey:      "redis-db",
		defaultValue: 0,
	}
	redisExpire = configVar[time.Duration]{
		envKey:       "REDIS_EXPIRE",
		flagKey:      "redis-expire",
		defaultValue: 24 * 14 * time.Hour,
	}
	wsReadLimit = configVar[int64]{
		envKey:       "SERVER_WS_READ_LIMIT",
		flagKey:      "ws-read-limit",
		defaultValue: 32768,
	}
	wsPingPeriod = configVar[time.Duration]{
		envKey:       "SERVER_WS_PING_PERIOD",
		flagKey:      "ws-ping-period",
		defaultValue: 54 * time.Second,
	}
	wsSendBuffer = configVar[int]{
		envKey:       "SERVER_WS_SEND_BUFFER",
		flagKey:      "ws-send-buffer",
		defaultValue: 32,
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.String(defaultVideoId.flagKey, defaultVideoId.defaultValue, "Video a new room starts with")
	pflag.String(defaultVideoState.flagKey, defaultVideoState.defaultValue, "Play status a new room starts with")
	pflag.String(store.flagKey, store.defaultValue, "Room store: memory or redis")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Int(redisDB.flagKey, redisDB.defaultValue, "Redis database number")
	pflag.Duration(redisExpire.flagKey, redisExpire.defaultValue, "Redis key expiration")
	pflag.Int64(wsReadLimit.flagKey, wsReadLimit.defaultValue, "Maximum size of an inbound websocket message in bytes")
	pflag.Duration(wsPingPeriod.flagKey, wsPingPeriod.defaultValue, "Websocket ping period")
	pflag.Int(wsSendBuffer.flagKey, wsSendBuffer.defaultValue, "Outbound messages buffered per connection")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(defaultVideoId.flagKey, defaultVideoId.envKey)
	viper.BindEnv(defaultVideoState.flagKey, defaultVideoState.envKey)
	viper.BindEnv(store.flagKey, store.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)
	viper.BindEnv(redisDB.flagKey, redisDB.envKey)
	viper.BindEnv(redisExpire.flagKey, redisExpire.envKey)
	viper.BindEnv(wsReadLimit.flagKey, wsReadLimit.envKey)
	viper.BindEnv(wsPingPeriod.flagKey, wsPingPeriod.envKey)
	viper.BindEnv(wsSendBuffer.flagKey, wsSendBuffer.envKey)

	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(defaultVideoId.flagKey, defaultVideoId.defaultValue)
	viper.SetDefault(defaultVideoState.flagKey, defaultVideoState.defaultValue)
	viper.SetDefault(store.flagKey, store.defaultValue)
	viper.SetDefault(redisPort.flagKey, redisPort.defaultValue)
	viper.SetDefault(redisHost.flagKey, redisHost.defaultValue)
	viper.SetDefault(redisPassword.flagKey, redisPassword.defaultValue)
	viper.SetDefault(redisDB.flagKey, redisDB.defaultValue)
	viper.SetDefault(redisExpire.flagKey, redisExpire.defaultValue)
	viper.SetDefault(wsReadLimit.flagKey, wsReadLimit.defaultValue)
	viper.SetDefault(wsPingPeriod.flagKey, wsPingPeriod.defaultValue)
	viper.SetDefault(wsSendBuffer.flagKey, wsSendBuffer.defaultValue)

	config := &app.AppConfig{
		Host:              viper.GetString(host.flagKey),
		Port:              viper.GetInt(port.flagKey),
		LogLevel:          viper.GetString(logLevel.flagKey),
		DefaultVideoId:    viper.GetString(defaultVideoId.flagKey),
		DefaultVideoState: viper.GetString(defaultVideoState.flagKey),
		Store:             viper.GetString(store.flagKey),
		RedisPort:         viper.GetInt(redisPort.flagKey),
		RedisHost:         viper.GetString(redisHost.flagKey),
		RedisPassword:     viper.GetString(redisPassword.flagKey),
		RedisDB:           viper.GetInt(redisDB.flagKey),
		RedisExpire:       viper.GetDuration(redisExpire.flagKey),
		WSReadLimit:       viper.GetInt64(wsReadLimit.flagKey),
		WSPingPeriod:      viper.GetDuration(wsPingPeriod.flagKey),
		WSSendBuffer:      viper.GetInt(wsSendBuffer.flagKey),
	}

	return config
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	if err := app.Run(ctx, appConfig); err != nil {
		log.Fatal(err)
	}
}
