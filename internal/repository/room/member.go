package room

type Member struct {
	ConnId   string `redis:"conn_id" json:"connId"`
	Username string `redis:"username" json:"username"`
	RoomName string `redis:"room_name" json:"roomName"`
}

type AddMemberParams struct {
	ConnId   string `json:"conn_id"`
	Username string `json:"username"`
	RoomName string `json:"room_name"`
}

// MemberResult carries a zero Member when Outcome is OutcomeNotFound.
type MemberResult struct {
	Member  Member
	Outcome Outcome
}
