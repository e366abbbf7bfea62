package controller

import (
	"github.com/watchparty/server/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()
	mux.Use(
		c.wsRequestIdWSMw(),
		c.loggerWSMw(),
		c.serialWSMw(),
	)
	mux.OnError(c.handleWSError)

	// room
	wsrouter.Handle(mux, "room-connection", c.handleRoomConnection)
	wsrouter.Handle(mux, "chat-message", c.handleChatMessage)

	// queue
	wsrouter.Handle(mux, "queue-append", c.handleQueueAppend)
	wsrouter.Handle(mux, "queue-remove", c.handleQueueRemove)
	wsrouter.Handle(mux, "end", c.handleEnd)

	// player
	wsrouter.Handle(mux, "select", c.handleSelect)
	wsrouter.Handle(mux, "seek", c.handleSeek)
	wsrouter.Handle(mux, "pause", c.handlePause)
	wsrouter.Handle(mux, "play", c.handlePlay)

	return mux
}
