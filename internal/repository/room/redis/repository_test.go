package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watchparty/server/internal/repository/room"
)

func newTestRepo(t *testing.T) (*repo, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	t.Cleanup(func() { rc.Close() })

	return NewRepo(rc, time.Hour, slog.Default()), s
}

func video(id string) room.Video {
	return room.NewVideo(json.RawMessage(`{"id":{"videoId":"` + id + `"},"snippet":{"title":"` + id + `"}}`))
}

func externalIds(videos []room.Video) []string {
	ids := make([]string, 0, len(videos))
	for _, v := range videos {
		ids = append(ids, v.ExternalId)
	}
	return ids
}

func TestRoomRegistry(t *testing.T) {
	r, s := newTestRepo(t)
	ctx := context.Background()

	_, err := r.GetRoom(ctx, "r1")
	require.ErrorIs(t, err, room.ErrRoomNotFound)

	require.NoError(t, r.EnsureRoom(ctx, "r2"))
	require.NoError(t, r.EnsureRoom(ctx, "r1"))
	require.NoError(t, r.EnsureRoom(ctx, "r1"))

	rooms, err := r.ListRooms(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, rooms)

	got, err := r.GetRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, got.VideoState)
	assert.Empty(t, got.Queue)
	assert.Empty(t, got.Members)

	assert.True(t, s.TTL("rooms") > 0, "rooms key must expire")
	assert.True(t, s.TTL("room:r1") > 0, "room key must expire")
}

func TestVideoState(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	first := room.VideoState{VideoId: "a", VideoTs: 1712345678901, VideoPs: room.PlayStatusPlaying}
	outcome, err := r.SetVideoStateIfNotExists(ctx, &room.SetVideoStateParams{VideoState: first, RoomName: "r1"})
	require.NoError(t, err)
	assert.Equal(t, room.OutcomeNotFound, outcome)

	require.NoError(t, r.EnsureRoom(ctx, "r1"))

	_, err = r.GetVideoState(ctx, "r1")
	require.ErrorIs(t, err, room.ErrVideoStateNotFound)

	outcome, err = r.SetVideoStateIfNotExists(ctx, &room.SetVideoStateParams{VideoState: first, RoomName: "r1"})
	require.NoError(t, err)
	assert.Equal(t, room.OutcomeApplied, outcome)

	outcome, err = r.SetVideoStateIfNotExists(ctx, &room.SetVideoStateParams{
		VideoState: room.VideoState{VideoId: "b"},
		RoomName:   "r1",
	})
	require.NoError(t, err)
	assert.Equal(t, room.OutcomeUnchanged, outcome)

	got, err := r.GetVideoState(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, first, got)

	updated := room.VideoState{VideoId: "c", VideoTs: 12.5, VideoPs: room.PlayStatusPaused}
	outcome, err = r.UpdateVideoState(ctx, &room.SetVideoStateParams{VideoState: updated, RoomName: "r1"})
	require.NoError(t, err)
	assert.Equal(t, room.OutcomeApplied, outcome)

	got, err = r.GetVideoState(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, updated, got)
}

func TestQueue(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, r.EnsureRoom(ctx, "r1"))

	for _, id := range []string{"a", "b", "c"} {
		res, err := r.AppendVideo(ctx, &room.AppendVideoParams{Video: video(id), RoomName: "r1"})
		require.NoError(t, err)
		assert.Equal(t, room.OutcomeApplied, res.Outcome)
	}

	res, err := r.RemoveVideoAt(ctx, &room.RemoveVideoAtParams{Index: 3, RoomName: "r1"})
	require.NoError(t, err)
	assert.Equal(t, room.OutcomeUnchanged, res.Outcome)
	assert.Equal(t, []string{"a", "b", "c"}, externalIds(res.Queue))

	res, err = r.RemoveVideoAt(ctx, &room.RemoveVideoAtParams{Index: 1, RoomName: "r1"})
	require.NoError(t, err)
	assert.Equal(t, room.OutcomeApplied, res.Outcome)
	assert.Equal(t, []string{"a", "c"}, externalIds(res.Queue))

	// metadata survives the round trip untouched
	assert.JSONEq(t, `{"id":{"videoId":"a"},"snippet":{"title":"a"}}`, string(res.Queue[0].Metadata))

	pop, err := r.PopNextVideo(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, pop.Video)
	assert.Equal(t, "a", pop.Video.ExternalId)
	assert.Equal(t, []string{"c"}, externalIds(pop.Queue))

	pop, err = r.PopNextVideo(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, pop.Video)
	assert.Empty(t, pop.Queue)

	pop, err = r.PopNextVideo(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, pop.Video)
	assert.Equal(t, room.OutcomeUnchanged, pop.Outcome)

	appendRes, err := r.AppendVideo(ctx, &room.AppendVideoParams{Video: video("x"), RoomName: "missing"})
	require.NoError(t, err)
	assert.Equal(t, room.OutcomeNotFound, appendRes.Outcome)
}

func TestMembers(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, r.EnsureRoom(ctx, "r1"))
	require.NoError(t, r.EnsureRoom(ctx, "r2"))

	require.NoError(t, r.AddMember(ctx, &room.AddMemberParams{ConnId: "c1", Username: "Alice", RoomName: "r1"}))
	require.NoError(t, r.AddMember(ctx, &room.AddMemberParams{ConnId: "c2", Username: "Bob", RoomName: "r1"}))

	connIds, err := r.GetMemberConnIds(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, connIds)

	require.NoError(t, r.AddMember(ctx, &room.AddMemberParams{ConnId: "c1", Username: "Alice", RoomName: "r2"}))
	connIds, err = r.GetMemberConnIds(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c2"}, connIds)

	got, err := r.GetRoom(ctx, "r2")
	require.NoError(t, err)
	assert.Equal(t, []room.Member{{ConnId: "c1", Username: "Alice", RoomName: "r2"}}, got.Members)

	res, err := r.RemoveMember(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, room.OutcomeApplied, res.Outcome)
	assert.Equal(t, "Bob", res.Member.Username)
	assert.Equal(t, "r1", res.Member.RoomName)

	res, err = r.RemoveMember(ctx, "c2")
	require.NoError(t, err)
	assert.Equal(t, room.OutcomeNotFound, res.Outcome)
	assert.Equal(t, room.Member{}, res.Member)

	err = r.AddMember(ctx, &room.AddMemberParams{ConnId: "c3", Username: "Eve", RoomName: "missing"})
	require.ErrorIs(t, err, room.ErrRoomNotFound)
}

func TestActiveRoomOutlivesExpiration(t *testing.T) {
	r, s := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, r.EnsureRoom(ctx, "r1"))
	require.NoError(t, r.AddMember(ctx, &room.AddMemberParams{ConnId: "c1", Username: "Alice", RoomName: "r1"}))
	require.NoError(t, r.AddMember(ctx, &room.AddMemberParams{ConnId: "c2", Username: "Bob", RoomName: "r1"}))

	state := room.VideoState{VideoId: "abc", VideoTs: 1, VideoPs: room.PlayStatusPlaying}
	_, err := r.SetVideoStateIfNotExists(ctx, &room.SetVideoStateParams{VideoState: state, RoomName: "r1"})
	require.NoError(t, err)

	// the hour long expiration is passed several times over by a room that
	// keeps getting events, some of which only read the audience
	for i := range 6 {
		s.FastForward(25 * time.Minute)

		if i%2 == 0 {
			res, err := r.AppendVideo(ctx, &room.AppendVideoParams{Video: video("v"), RoomName: "r1"})
			require.NoError(t, err)
			assert.Equal(t, room.OutcomeApplied, res.Outcome, "append after %d min", (i+1)*25)
		} else {
			_, err := r.GetMemberConnIds(ctx, "r1")
			require.NoError(t, err)
		}
	}

	outcome, err := r.UpdateVideoState(ctx, &room.SetVideoStateParams{VideoState: state, RoomName: "r1"})
	require.NoError(t, err)
	assert.Equal(t, room.OutcomeApplied, outcome)

	rooms, err := r.ListRooms(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, rooms)

	got, err := r.GetRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Len(t, got.Queue, 3)
	require.NotNil(t, got.VideoState)
	// bob never sent anything and is still a member
	require.Len(t, got.Members, 2)
	assert.Equal(t, []string{"Alice", "Bob"}, []string{got.Members[0].Username, got.Members[1].Username})
}

func TestIdleRoomExpires(t *testing.T) {
	r, s := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, r.EnsureRoom(ctx, "idle"))
	require.NoError(t, r.EnsureRoom(ctx, "busy"))

	s.FastForward(40 * time.Minute)
	_, err := r.AppendVideo(ctx, &room.AppendVideoParams{Video: video("v"), RoomName: "busy"})
	require.NoError(t, err)
	s.FastForward(40 * time.Minute)

	_, err = r.GetRoom(ctx, "idle")
	require.ErrorIs(t, err, room.ErrRoomNotFound)

	res, err := r.AppendVideo(ctx, &room.AppendVideoParams{Video: video("v"), RoomName: "idle"})
	require.NoError(t, err)
	assert.Equal(t, room.OutcomeNotFound, res.Outcome)

	rooms, err := r.ListRooms(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"busy"}, rooms)
	registered, err := s.Members("rooms")
	require.NoError(t, err)
	assert.Equal(t, []string{"busy"}, registered)

	// joining again brings it back
	require.NoError(t, r.EnsureRoom(ctx, "idle"))
	_, err = r.GetRoom(ctx, "idle")
	require.NoError(t, err)
}

func TestScriptsSurviveFlush(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, r.EnsureRoom(ctx, "r1"))
	require.NoError(t, r.AddMember(ctx, &room.AddMemberParams{ConnId: "c1", Username: "Alice", RoomName: "r1"}))

	require.NoError(t, r.rc.ScriptFlush(ctx).Err())

	require.NoError(t, r.AddMember(ctx, &room.AddMemberParams{ConnId: "c2", Username: "Bob", RoomName: "r1"}))
	connIds, err := r.GetMemberConnIds(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, connIds)

	outcome, err := r.SetVideoStateIfNotExists(ctx, &room.SetVideoStateParams{
		VideoState: room.VideoState{VideoId: "abc", VideoPs: room.PlayStatusPlaying},
		RoomName:   "r1",
	})
	require.NoError(t, err)
	assert.Equal(t, room.OutcomeApplied, outcome)

	_, err = r.AppendVideo(ctx, &room.AppendVideoParams{Video: video("a"), RoomName: "r1"})
	require.NoError(t, err)
	res, err := r.RemoveVideoAt(ctx, &room.RemoveVideoAtParams{Index: 0, RoomName: "r1"})
	require.NoError(t, err)
	assert.Equal(t, room.OutcomeApplied, res.Outcome)
}

func TestAddMemberFailsWhenStoreFails(t *testing.T) {
	r, s := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, r.EnsureRoom(ctx, "r1"))

	// a member key of the wrong type makes the previous room lookup fail
	require.NoError(t, s.Set(r.getMemberKey("c1"), "not a hash"))

	err := r.AddMember(ctx, &room.AddMemberParams{ConnId: "c1", Username: "Alice", RoomName: "r1"})
	assert.Error(t, err)

	connIds, err := r.GetMemberConnIds(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, connIds)
}
