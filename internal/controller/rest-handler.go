package controller

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/watchparty/server/internal/repository/room"
	roomService "github.com/watchparty/server/internal/service/room"
	"github.com/watchparty/server/pkg/ytvideodata"
)

func (c controller) healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (c controller) listRooms(w http.ResponseWriter, r *http.Request) {
	var (
		names []string
		err   error
	)
	if loopErr := c.loop.Do(r.Context(), func() {
		names, err = c.roomService.ListRooms(r.Context())
	}); loopErr != nil {
		err = loopErr
	}
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to list rooms", "error", err)
		c.writeJSON(w, r, http.StatusInternalServerError, envelope{"error": "internal error"})
		return
	}

	c.writeJSON(w, r, http.StatusOK, envelope{"data": names})
}

func (c controller) getRoom(w http.ResponseWriter, r *http.Request) {
	roomName := chi.URLParam(r, "room-name")

	var (
		res room.Room
		err error
	)
	if loopErr := c.loop.Do(r.Context(), func() {
		res, err = c.roomService.GetRoom(r.Context(), roomName)
	}); loopErr != nil {
		err = loopErr
	}
	if err != nil {
		if errors.Is(err, roomService.ErrRoomNotFound) {
			c.writeJSON(w, r, http.StatusNotFound, envelope{"error": "room not found"})
			return
		}
		c.logger.WarnContext(r.Context(), "failed to get room", "error", err)
		c.writeJSON(w, r, http.StatusInternalServerError, envelope{"error": "internal error"})
		return
	}

	c.writeJSON(w, r, http.StatusOK, envelope{"data": res})
}

func (c controller) getVideoData(w http.ResponseWriter, r *http.Request) {
	videoId := chi.URLParam(r, "video-id")

	videoData, err := c.videoData.Get(r.Context(), videoId)
	if err != nil {
		if errors.Is(err, ytvideodata.ErrVideoNotFound) {
			c.writeJSON(w, r, http.StatusNotFound, envelope{"error": "video not found"})
			return
		}
		c.logger.WarnContext(r.Context(), "failed to get video data", "error", err)
		c.writeJSON(w, r, http.StatusBadGateway, envelope{"error": "video data unavailable"})
		return
	}

	c.writeJSON(w, r, http.StatusOK, envelope{"data": videoData})
}
