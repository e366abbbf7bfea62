package room

import (
	"bytes"
	"encoding/json"
)

// Video is a queue entry. The payload submitted by the client is kept as is
// and marshalled back unmodified.
type Video struct {
	ExternalId string
	Metadata   json.RawMessage
}

// NewVideo reads the external id from a search-result shaped object
// ({"id":{"videoId":"..."}}) or from a bare JSON string.
func NewVideo(raw json.RawMessage) Video {
	raw = bytes.TrimSpace(raw)
	video := Video{Metadata: append(json.RawMessage(nil), raw...)}

	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		video.ExternalId = id
		return video
	}

	var searchResult struct {
		Id struct {
			VideoId string `json:"videoId"`
		} `json:"id"`
	}
	if err := json.Unmarshal(raw, &searchResult); err == nil {
		video.ExternalId = searchResult.Id.VideoId
	}

	return video
}

func (v Video) MarshalJSON() ([]byte, error) {
	if len(v.Metadata) == 0 {
		return []byte("null"), nil
	}

	return v.Metadata, nil
}

func (v *Video) UnmarshalJSON(data []byte) error {
	*v = NewVideo(data)
	return nil
}

type AppendVideoParams struct {
	Video    Video
	RoomName string
}

type RemoveVideoAtParams struct {
	Index    int
	RoomName string
}

// QueueResult always carries the full queue after the operation.
type QueueResult struct {
	Queue   []Video
	Outcome Outcome
}

// PopResult has a nil Video when the queue was empty.
type PopResult struct {
	Video   *Video
	Queue   []Video
	Outcome Outcome
}
