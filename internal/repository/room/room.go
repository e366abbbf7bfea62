package room

type Room struct {
	Name       string      `json:"name"`
	VideoState *VideoState `json:"videoState"`
	Queue      []Video     `json:"queue"`
	Members    []Member    `json:"members"`
}
