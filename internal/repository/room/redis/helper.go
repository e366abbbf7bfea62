package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

func (r repo) addWithIncrement(ctx context.Context, c redis.Scripter, key string, value interface{}) error {
	return r.maxScoreScript.Run(ctx, c, []string{key}, value).Err()
}

func (r repo) expireSeconds() int64 {
	return max(int64(r.expireDuration/time.Second), 1)
}

func (r repo) executePipe(ctx context.Context, pipe redis.Pipeliner) error {
	cmds, err := pipe.Exec(ctx)
	if err != nil {
		for _, cmd := range cmds {
			if err := cmd.Err(); err != nil {
				return err
			}
		}

		return err
	}

	return nil
}

func (r repo) fieldToFloat64(field string) float64 {
	f, _ := strconv.ParseFloat(field, 64)
	return f
}

func (r repo) float64ToField(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
