package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWSClientDropsWhenBufferIsFull(t *testing.T) {
	client := newWSClient(nil, 1)

	require.NoError(t, client.TrySend([]byte("initial-sync")))
	assert.ErrorIs(t, client.TrySend([]byte("select")), ErrBackpressure)

	select {
	case <-client.done:
	default:
		t.Fatal("client must be closed after a dropped message")
	}

	// nothing gets through after the drop, even once the buffer has room
	<-client.send
	assert.ErrorIs(t, client.TrySend([]byte("chat-message")), ErrClientClosed)
}

func TestWSClientCloseIsIdempotent(t *testing.T) {
	client := newWSClient(nil, 1)
	client.Close()
	client.Close()

	assert.ErrorIs(t, client.TrySend([]byte("play")), ErrClientClosed)
}
