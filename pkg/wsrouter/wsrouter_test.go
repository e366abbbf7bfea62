package wsrouter

import (
	"context"
	"errors"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingInput struct {
	Seq int `json:"seq"`
}

func TestDispatch(t *testing.T) {
	r := New()

	var (
		order []string
		errs  []error
		got   pingInput
	)
	r.Use(
		func(next HandlerFunc[any]) HandlerFunc[any] {
			return func(ctx context.Context, conn *websocket.Conn, payload any) error {
				order = append(order, "outer:"+GetMessageTypeFromCtx(ctx))
				return next(ctx, conn, payload)
			}
		},
		func(next HandlerFunc[any]) HandlerFunc[any] {
			return func(ctx context.Context, conn *websocket.Conn, payload any) error {
				order = append(order, "inner")
				return next(ctx, conn, payload)
			}
		},
	)
	r.OnError(func(_ context.Context, _ *websocket.Conn, err error) {
		errs = append(errs, err)
	})
	Handle(r, "ping", func(_ context.Context, _ *websocket.Conn, input pingInput) error {
		got = input
		return nil
	})
	Handle(r, "fail", func(context.Context, *websocket.Conn, struct{}) error {
		return errors.New("failed")
	})

	ctx := context.Background()

	r.dispatch(ctx, nil, []byte(`{"type":"ping","payload":{"seq":7}}`))
	assert.Equal(t, pingInput{Seq: 7}, got)
	assert.Equal(t, []string{"outer:ping", "inner"}, order)
	assert.Empty(t, errs)

	r.dispatch(ctx, nil, []byte(`{"type":"ping"}`))
	assert.Equal(t, pingInput{}, got, "a missing payload decodes to the zero value")

	r.dispatch(ctx, nil, []byte(`not json`))
	r.dispatch(ctx, nil, []byte(`{"type":"nope"}`))
	r.dispatch(ctx, nil, []byte(`{"type":"ping","payload":{"seq":"x"}}`))
	r.dispatch(ctx, nil, []byte(`{"type":"fail","payload":{}}`))

	require.Len(t, errs, 4)
	assert.ErrorIs(t, errs[0], ErrMalformedMessage)
	assert.ErrorIs(t, errs[1], ErrUnknownMessageType)
	assert.ErrorIs(t, errs[2], ErrMalformedMessage)
	assert.EqualError(t, errs[3], "failed")
}
