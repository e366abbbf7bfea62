package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	roomService "github.com/watchparty/server/internal/service/room"
	"github.com/watchparty/server/pkg/ctxlogger"
	"github.com/watchparty/server/pkg/wsrouter"
)

func (c controller) wsRequestIdWSMw() wsrouter.Middleware {
	return func(next wsrouter.HandlerFunc[any]) wsrouter.HandlerFunc[any] {
		return func(ctx context.Context, conn *websocket.Conn, payload any) error {
			ctx = ctxlogger.AppendCtx(ctx, slog.String("ws_request_id", c.generateTimeBasedId()))
			return next(ctx, conn, payload)
		}
	}
}

func (c controller) loggerWSMw() wsrouter.Middleware {
	return func(next wsrouter.HandlerFunc[any]) wsrouter.HandlerFunc[any] {
		return func(ctx context.Context, conn *websocket.Conn, payload any) error {
			ctx = ctxlogger.AppendCtx(ctx, slog.String("message_type", wsrouter.GetMessageTypeFromCtx(ctx)))
			c.logger.DebugContext(ctx, "websocket message received", "payload", payload)

			start := time.Now()

			err := next(ctx, conn, payload)

			c.logger.InfoContext(ctx, "websocket message handled",
				"processing_time_us", time.Since(start).Microseconds(),
				"ok", err == nil,
			)

			return err
		}
	}
}

// serialWSMw runs the rest of the chain on the event loop, so one event is
// fully applied and fanned out before the next one starts.
func (c controller) serialWSMw() wsrouter.Middleware {
	return func(next wsrouter.HandlerFunc[any]) wsrouter.HandlerFunc[any] {
		return func(ctx context.Context, conn *websocket.Conn, payload any) error {
			var handleErr error
			if err := c.loop.Do(ctx, func() {
				handleErr = next(ctx, conn, payload)
			}); err != nil {
				return fmt.Errorf("failed to dispatch event: %w", err)
			}

			return handleErr
		}
	}
}

// handleWSError logs and drops the event; the client is never told.
func (c controller) handleWSError(ctx context.Context, _ *websocket.Conn, err error) {
	switch {
	case errors.Is(err, roomService.ErrNotJoined):
		c.logger.DebugContext(ctx, "event from connection outside of a room dropped", "error", err)
	case errors.Is(err, wsrouter.ErrMalformedMessage),
		errors.Is(err, wsrouter.ErrUnknownMessageType),
		errors.Is(err, ErrValidationError):
		c.logger.InfoContext(ctx, "invalid websocket message dropped", "error", err)
	default:
		c.logger.WarnContext(ctx, "failed to handle websocket message", "error", err)
	}
}
