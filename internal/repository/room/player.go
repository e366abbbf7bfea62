package room

type PlayStatus string

const (
	PlayStatusPlaying PlayStatus = "PLAYING"
	PlayStatusPaused  PlayStatus = "PAUSED"
)

// VideoState is the authoritative playback fact of a room.
type VideoState struct {
	VideoId string     `json:"videoID"`
	VideoTs float64    `json:"videoTS"`
	VideoPs PlayStatus `json:"videoPS"`
}

type SetVideoStateParams struct {
	VideoState VideoState
	RoomName   string
}
