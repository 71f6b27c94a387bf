package commands

import (
	"context"
	"strings"
	"sync"

	"github.com/eskrenkovic/chat-against-humanity/internal/modules/catalog"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/game/domain"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/messaging"

	"github.com/google/uuid"
)

// memoryState backs the in-memory stores. Like the SQL repositories, the
// roster is derived from the player rows in join order, and session saves
// never persist PlayerIDs.
type memoryState struct {
	mu      sync.Mutex
	session *domain.Session
	players map[uuid.UUID]domain.Player
	order   []uuid.UUID
}

func newMemoryState() *memoryState {
	return &memoryState{players: make(map[uuid.UUID]domain.Player)}
}

func cloneSession(s domain.Session) domain.Session {
	s.PlayerIDs = append([]uuid.UUID(nil), s.PlayerIDs...)
	s.UsedBlackCardIDs = append([]uuid.UUID(nil), s.UsedBlackCardIDs...)
	s.UsedWhiteCardIDs = append([]uuid.UUID(nil), s.UsedWhiteCardIDs...)
	s.RoundResults = append([]domain.RoundResult(nil), s.RoundResults...)
	return s
}

func clonePlayer(p domain.Player) domain.Player {
	p.Hand = append([]uuid.UUID(nil), p.Hand...)
	p.SubmittedAnswers = append([]uuid.UUID(nil), p.SubmittedAnswers...)
	return p
}

type memorySessionStore struct {
	state *memoryState
}

func (s *memorySessionStore) FindByCommunity(_ context.Context, communityID string) (domain.Session, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	if s.state.session == nil || s.state.session.CommunityID != communityID {
		return domain.Session{}, domain.ErrNoActiveSession
	}

	session := cloneSession(*s.state.session)
	session.PlayerIDs = nil
	for _, id := range s.state.order {
		if s.state.players[id].CommunityID == communityID {
			session.PlayerIDs = append(session.PlayerIDs, id)
		}
	}

	return session, nil
}

func (s *memorySessionStore) Save(_ context.Context, session *domain.Session) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}

	saved := cloneSession(*session)
	saved.PlayerIDs = nil
	s.state.session = &saved

	return nil
}

func (s *memorySessionStore) Delete(_ context.Context, id uuid.UUID) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	if s.state.session != nil && s.state.session.ID == id {
		s.state.session = nil
	}
	return nil
}

type memoryPlayerStore struct {
	state *memoryState
}

func (s *memoryPlayerStore) Find(_ context.Context, id uuid.UUID) (domain.Player, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	player, ok := s.state.players[id]
	if !ok {
		return domain.Player{}, domain.ErrNotAPlayer
	}
	return clonePlayer(player), nil
}

func (s *memoryPlayerStore) FindByUser(_ context.Context, communityID, userRef string) (domain.Player, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	for _, id := range s.state.order {
		player := s.state.players[id]
		if player.CommunityID == communityID && player.UserRef == userRef {
			return clonePlayer(player), nil
		}
	}
	return domain.Player{}, domain.ErrNotAPlayer
}

func (s *memoryPlayerStore) FindByCommunity(_ context.Context, communityID string) ([]domain.Player, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	var players []domain.Player
	for _, id := range s.state.order {
		player := s.state.players[id]
		if player.CommunityID == communityID {
			players = append(players, clonePlayer(player))
		}
	}
	return players, nil
}

func (s *memoryPlayerStore) Save(_ context.Context, _ uuid.UUID, player *domain.Player) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	if player.ID == uuid.Nil {
		player.ID = uuid.New()
	}

	if _, ok := s.state.players[player.ID]; !ok {
		s.state.order = append(s.state.order, player.ID)
	}
	s.state.players[player.ID] = clonePlayer(*player)

	return nil
}

func (s *memoryPlayerStore) Delete(_ context.Context, id uuid.UUID) error {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	delete(s.state.players, id)
	for i, orderedID := range s.state.order {
		if orderedID == id {
			s.state.order = append(s.state.order[:i], s.state.order[i+1:]...)
			break
		}
	}
	return nil
}

type sentMessage struct {
	Channel string
	Message messaging.Message
}

type fakeGateway struct {
	mu       sync.Mutex
	messages []sentMessage
	created  []string
	deleted  []string
}

func (g *fakeGateway) SendMessage(_ context.Context, channelRef string, message messaging.Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.messages = append(g.messages, sentMessage{Channel: channelRef, Message: message})
	return nil
}

func (g *fakeGateway) CreateChannel(_ context.Context, _, name string, _ messaging.Visibility) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ref := "channel:" + name
	g.created = append(g.created, ref)
	return ref, nil
}

func (g *fakeGateway) DeleteChannel(_ context.Context, channelRef string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deleted = append(g.deleted, channelRef)
	return nil
}

func (g *fakeGateway) SetPermissions(context.Context, string, string, messaging.PermissionPolicy) error {
	return nil
}

func (g *fakeGateway) received(channel, fragment string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, sent := range g.messages {
		if sent.Channel != channel {
			continue
		}
		if strings.Contains(sent.Message.Title, fragment) || strings.Contains(sent.Message.Body, fragment) {
			return true
		}
	}
	return false
}

type fakeCardFinder struct {
	cards map[uuid.UUID]catalog.Card
}

func (f *fakeCardFinder) Find(_ context.Context, id uuid.UUID) (catalog.Card, error) {
	card, ok := f.cards[id]
	if !ok {
		return catalog.Card{}, catalog.ErrCatalogExhausted
	}
	return card, nil
}
