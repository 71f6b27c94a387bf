package commands

import (
	"context"
	"testing"

	"github.com/eskrenkovic/chat-against-humanity/internal/modules/game/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const (
	testCommunity = "community-1"
	testBoard     = "channel:board"
)

type commandFixture struct {
	state    *memoryState
	sessions *memorySessionStore
	players  *memoryPlayerStore
	gateway  *fakeGateway
}

func newCommandFixture() *commandFixture {
	state := newMemoryState()
	return &commandFixture{
		state:    state,
		sessions: &memorySessionStore{state},
		players:  &memoryPlayerStore{state},
		gateway:  &fakeGateway{},
	}
}

func (f *commandFixture) createSession(t *testing.T, mutate ...func(*domain.Session)) domain.Session {
	t.Helper()

	session := domain.Session{
		CommunityID:     testCommunity,
		BoardChannel:    testBoard,
		CategoryChannel: "channel:Cards Against Humanity",
		ScoreTarget:     5,
		Voting:          domain.VotingNobody,
	}
	for _, m := range mutate {
		m(&session)
	}

	require.NoError(t, f.sessions.Save(context.Background(), &session))
	return session
}

func (f *commandFixture) addPlayer(t *testing.T, userRef string, mutate ...func(*domain.Player)) domain.Player {
	t.Helper()

	player := domain.Player{
		CommunityID: testCommunity,
		UserRef:     userRef,
		ChannelRef:  "channel:" + userRef,
	}
	for _, m := range mutate {
		m(&player)
	}

	require.NoError(t, f.players.Save(context.Background(), uuid.Nil, &player))
	return player
}

func (f *commandFixture) session(t *testing.T) domain.Session {
	t.Helper()

	session, err := f.sessions.FindByCommunity(context.Background(), testCommunity)
	require.NoError(t, err)
	return session
}
