package inmemory

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watchparty/server/internal/repository/connection"
)

type fakeConn struct {
	sent [][]byte
}

func (c *fakeConn) TrySend(msg []byte) error {
	c.sent = append(c.sent, msg)
	return nil
}

func TestRepo(t *testing.T) {
	r := NewRepo(slog.Default())
	c1 := &fakeConn{}

	require.NoError(t, r.Add("c1", c1))
	require.ErrorIs(t, r.Add("c1", &fakeConn{}), connection.ErrAlreadyExists)
	assert.Equal(t, 1, r.Len())

	got, err := r.Get("c1")
	require.NoError(t, err)
	assert.Same(t, c1, got)

	require.NoError(t, r.Remove("c1"))
	require.ErrorIs(t, r.Remove("c1"), connection.ErrNotFound)

	_, err = r.Get("c1")
	require.ErrorIs(t, err, connection.ErrNotFound)
	assert.Equal(t, 0, r.Len())
}
