package room

import "errors"

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrVideoStateNotFound = errors.New("video state not found")
	ErrMemberNotFound     = errors.New("member not found")
)

// Outcome is the result of a store mutation that is allowed to be a no-op.
type Outcome int

const (
	OutcomeApplied Outcome = iota
	OutcomeUnchanged
	OutcomeNotFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
