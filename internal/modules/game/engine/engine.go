package engine

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/eskrenkovic/chat-against-humanity/internal/modules/catalog"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/core"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/game/domain"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/messaging"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// CardSource is the slice of the card catalog the engine needs: random
// draws without repetition, and text lookups for rendering.
type CardSource interface {
	DrawUnused(ctx context.Context, kind catalog.CardKind, excluded map[uuid.UUID]struct{}) (catalog.Card, error)
	FindAll(ctx context.Context, ids []uuid.UUID) ([]catalog.Card, error)
}

type Config struct {
	HandSize     int
	MinPlayers   int
	PollInterval time.Duration
}

// errGameStopped aborts the current round cleanly when an explicit stop is
// observed. It never escapes Run as an error.
var errGameStopped = errors.New("game stopped")

// errStaleChoice means the judge's cast no longer matches the proposals.
var errStaleChoice = errors.New("judge choice is stale")

// Engine drives the round state machine for one community at a time:
// Dealing -> PlayersVoting -> JudgeVoting -> Resolving, looping until a
// score reaches the target or the game is stopped. All state reads go
// through the stores so input submitted by concurrent commands is picked
// up at the next poll tick.
type Engine struct {
	sessions domain.SessionStore
	players  domain.PlayerStore
	cards    CardSource
	gateway  messaging.Gateway
	clock    core.Clock
	locks    *core.KeyedMutex
	logger   *zap.Logger
	rng      *rand.Rand
	config   Config
}

func New(
	sessions domain.SessionStore,
	players domain.PlayerStore,
	cards CardSource,
	gateway messaging.Gateway,
	clock core.Clock,
	locks *core.KeyedMutex,
	logger *zap.Logger,
	rng *rand.Rand,
	config Config,
) *Engine {
	return &Engine{
		sessions: sessions,
		players:  players,
		cards:    cards,
		gateway:  gateway,
		clock:    clock,
		locks:    locks,
		logger:   logger,
		rng:      rng,
		config:   config,
	}
}

// Run plays rounds for the community until the session finishes. An
// engine-internal failure (catalog exhaustion, persistence) forces the
// session into a finished state with a diagnostic notice instead of
// leaving it wedged mid-phase.
func (e *Engine) Run(ctx context.Context, communityID string) error {
	logger := e.logger.With(zap.String("community_id", communityID))

	if err := e.ensureJudge(ctx, communityID); err != nil {
		return e.failGame(ctx, communityID, logger, err)
	}

	for {
		done, err := e.playRound(ctx, communityID, logger)
		switch {
		case errors.Is(err, errGameStopped):
			logger.Info("game stopped")
			return e.finishGame(ctx, communityID, "The game has been stopped.")
		case err != nil:
			return e.failGame(ctx, communityID, logger, err)
		case done:
			return e.finishGame(ctx, communityID, "The game is over!")
		}
	}
}

// ensureJudge assigns the very first judge uniformly at random. Later
// rounds rotate the judge to the round winner.
func (e *Engine) ensureJudge(ctx context.Context, communityID string) error {
	unlock := e.locks.Lock(communityID)
	defer unlock()

	session, err := e.sessions.FindByCommunity(ctx, communityID)
	if err != nil {
		return err
	}

	if session.JudgeID != uuid.Nil {
		return nil
	}

	if err := session.AssignRandomJudge(e.rng); err != nil {
		return err
	}

	return e.sessions.Save(ctx, &session)
}

func (e *Engine) playRound(ctx context.Context, communityID string, logger *zap.Logger) (done bool, err error) {
	blackCard, err := e.deal(ctx, communityID)
	if err != nil {
		return false, err
	}
	logger.Info("dealt round", zap.String("black_card", blackCard.ID.String()))

	if err := e.waitForPlayers(ctx, communityID); err != nil {
		return false, err
	}

	if err := e.resolveSubmissions(ctx, communityID, blackCard); err != nil {
		return false, err
	}

	var winnerRef string
	for {
		if err := e.waitForJudge(ctx, communityID); err != nil {
			return false, err
		}

		winnerRef, err = e.resolveWinner(ctx, communityID)
		if errors.Is(err, errStaleChoice) {
			// A leave scrubbed the proposals between the cast and the
			// resolution. The judge has to pick again.
			continue
		}
		if err != nil {
			return false, err
		}
		break
	}
	logger.Info("round resolved", zap.String("winner", winnerRef))

	return e.checkFinished(ctx, communityID)
}

// deal draws the round's black card, announces it, and tops every
// non-judge player's hand up to the configured size. The exclusion set
// grows as hands fill so no card ends up in two hands at once.
func (e *Engine) deal(ctx context.Context, communityID string) (catalog.Card, error) {
	unlock := e.locks.Lock(communityID)
	defer unlock()

	session, err := e.sessions.FindByCommunity(ctx, communityID)
	if err != nil {
		return catalog.Card{}, err
	}
	if !session.Playing {
		return catalog.Card{}, errGameStopped
	}

	blackCard, err := e.cards.DrawUnused(ctx, catalog.KindBlack, excludedSet(session.UsedBlackCardIDs))
	if err != nil {
		return catalog.Card{}, err
	}

	session.MarkBlackCardUsed(blackCard.ID)
	if err := e.sessions.Save(ctx, &session); err != nil {
		return catalog.Card{}, err
	}

	players, err := e.players.FindByCommunity(ctx, communityID)
	if err != nil {
		return catalog.Card{}, err
	}

	judgeRef := ""
	for _, player := range players {
		if session.IsJudge(player.ID) {
			judgeRef = player.UserRef
			break
		}
	}

	e.send(ctx, session.BoardChannel, messaging.Text(
		fmt.Sprintf("%s, you are the judge this round!", judgeRef),
	))
	e.send(ctx, session.BoardChannel, messaging.Message{
		Title: fmt.Sprintf("Question - Pick %d", blackCard.Pick),
		Body:  blackCard.Text,
	})

	excluded := excludedSet(session.UsedWhiteCardIDs)
	for _, player := range players {
		for _, id := range player.Hand {
			excluded[id] = struct{}{}
		}
		for _, id := range player.SubmittedAnswers {
			excluded[id] = struct{}{}
		}
	}

	for i := range players {
		player := &players[i]
		if session.IsJudge(player.ID) {
			continue
		}

		for len(player.Hand) < e.config.HandSize {
			card, err := e.cards.DrawUnused(ctx, catalog.KindWhite, excluded)
			if err != nil {
				return catalog.Card{}, err
			}
			player.Hand = append(player.Hand, card.ID)
			excluded[card.ID] = struct{}{}
		}

		if err := e.players.Save(ctx, session.ID, player); err != nil {
			return catalog.Card{}, err
		}

		hand, err := e.renderHand(ctx, player.Hand)
		if err != nil {
			return catalog.Card{}, err
		}
		e.send(ctx, player.ChannelRef, messaging.Message{Title: "Your hand", Body: hand})
	}

	return blackCard, nil
}

// waitForPlayers suspends the round until every non-judge player has
// submitted. The predicate is recomputed from the store each tick, so a
// leaving player lowers the requirement and a leaving judge retargets the
// later judge wait.
func (e *Engine) waitForPlayers(ctx context.Context, communityID string) error {
	if err := e.setVoting(ctx, communityID, domain.VotingPlayers); err != nil {
		return err
	}

	session, err := e.sessions.FindByCommunity(ctx, communityID)
	if err != nil {
		return err
	}
	e.send(ctx, session.BoardChannel, messaging.Text(
		"Time to vote! Submit your answers with the vote command in your private channel.",
	))

	for {
		session, err := e.sessions.FindByCommunity(ctx, communityID)
		if err != nil {
			return err
		}
		if !session.Playing {
			return errGameStopped
		}
		if !session.HasQuorum(e.config.MinPlayers) {
			return domain.ErrNotEnoughPlayers
		}

		players, err := e.players.FindByCommunity(ctx, communityID)
		if err != nil {
			return err
		}

		submitted := 0
		for _, player := range players {
			if !session.IsJudge(player.ID) && player.HasSubmitted() {
				submitted++
			}
		}

		if submitted >= len(session.PlayerIDs)-1 {
			break
		}

		if err := e.clock.Sleep(ctx, e.config.PollInterval); err != nil {
			return err
		}
	}

	return e.setVoting(ctx, communityID, domain.VotingNobody)
}

// resolveSubmissions renders every submission into the black card's
// blanks, shuffles the proposals to anonymize order, and exposes them to
// the judge and the board. Submitted cards move to the session's used pool
// and each player's round state is cleared.
func (e *Engine) resolveSubmissions(ctx context.Context, communityID string, blackCard catalog.Card) error {
	unlock := e.locks.Lock(communityID)
	defer unlock()

	session, err := e.sessions.FindByCommunity(ctx, communityID)
	if err != nil {
		return err
	}
	if !session.Playing {
		return errGameStopped
	}

	players, err := e.players.FindByCommunity(ctx, communityID)
	if err != nil {
		return err
	}

	var results []domain.RoundResult
	for i := range players {
		player := &players[i]
		if session.IsJudge(player.ID) || !player.HasSubmitted() {
			continue
		}

		texts, err := e.cardTexts(ctx, player.SubmittedAnswers)
		if err != nil {
			return err
		}

		results = append(results, domain.RoundResult{
			PlayerID: player.ID,
			Rendered: blackCard.Render(texts),
		})

		session.MarkWhiteCardsUsed(player.SubmittedAnswers...)
		player.ClearRoundState()
		if err := e.players.Save(ctx, session.ID, player); err != nil {
			return err
		}
	}

	e.rng.Shuffle(len(results), func(i, j int) {
		results[i], results[j] = results[j], results[i]
	})
	session.RoundResults = results

	if err := e.sessions.Save(ctx, &session); err != nil {
		return err
	}

	proposals := renderProposals(results)
	e.send(ctx, session.BoardChannel, messaging.Message{Title: "Proposals", Body: proposals})

	for _, player := range players {
		if session.IsJudge(player.ID) {
			e.send(ctx, player.ChannelRef, messaging.Message{Title: "Proposals", Body: proposals})
		}
	}

	return nil
}

// waitForJudge suspends until the acting judge has cast a choice. Judge
// identity is re-read from the store every tick - if the judge left and a
// new one was assigned, the wait targets the new judge's choice.
func (e *Engine) waitForJudge(ctx context.Context, communityID string) error {
	if err := e.setVoting(ctx, communityID, domain.VotingJudge); err != nil {
		return err
	}

	session, err := e.sessions.FindByCommunity(ctx, communityID)
	if err != nil {
		return err
	}
	e.send(ctx, session.BoardChannel, messaging.Text(
		"Time for the judge to decide! Cast your choice with the judge command in your private channel.",
	))

	for {
		session, err := e.sessions.FindByCommunity(ctx, communityID)
		if err != nil {
			return err
		}
		if !session.Playing {
			return errGameStopped
		}
		if !session.HasQuorum(e.config.MinPlayers) {
			return domain.ErrNotEnoughPlayers
		}

		if session.JudgeID != uuid.Nil {
			judge, err := e.players.Find(ctx, session.JudgeID)
			if err != nil && !errors.Is(err, domain.ErrNotAPlayer) {
				return err
			}
			if err == nil && judge.JudgeChoice >= 1 && judge.JudgeChoice <= len(session.RoundResults) {
				break
			}
		}

		if err := e.clock.Sleep(ctx, e.config.PollInterval); err != nil {
			return err
		}
	}

	return e.setVoting(ctx, communityID, domain.VotingNobody)
}

// resolveWinner reads the judge's 1-based choice, awards the point, and
// rotates the judge to the winner.
func (e *Engine) resolveWinner(ctx context.Context, communityID string) (string, error) {
	unlock := e.locks.Lock(communityID)
	defer unlock()

	session, err := e.sessions.FindByCommunity(ctx, communityID)
	if err != nil {
		return "", err
	}
	if !session.Playing {
		return "", errGameStopped
	}

	judge, err := e.players.Find(ctx, session.JudgeID)
	if err != nil {
		return "", err
	}

	choice := judge.JudgeChoice
	if choice < 1 || choice > len(session.RoundResults) {
		judge.JudgeChoice = 0
		if err := e.players.Save(ctx, session.ID, &judge); err != nil {
			return "", err
		}
		return "", errStaleChoice
	}

	judge.JudgeChoice = 0
	if err := e.players.Save(ctx, session.ID, &judge); err != nil {
		return "", err
	}

	result := session.RoundResults[choice-1]
	winner, err := e.players.Find(ctx, result.PlayerID)
	if err != nil {
		return "", err
	}

	winner.Score++
	if err := e.players.Save(ctx, session.ID, &winner); err != nil {
		return "", err
	}

	session.JudgeID = winner.ID
	if err := e.sessions.Save(ctx, &session); err != nil {
		return "", err
	}

	e.send(ctx, session.BoardChannel, messaging.Text(
		fmt.Sprintf("%s has won this round!", winner.UserRef),
	))

	return winner.UserRef, nil
}

// checkFinished reports whether any score reached the target.
func (e *Engine) checkFinished(ctx context.Context, communityID string) (bool, error) {
	session, err := e.sessions.FindByCommunity(ctx, communityID)
	if err != nil {
		return false, err
	}
	if !session.Playing {
		return false, errGameStopped
	}

	players, err := e.players.FindByCommunity(ctx, communityID)
	if err != nil {
		return false, err
	}

	scores := core.Map(players, func(p domain.Player) int { return p.Score })
	return session.IsScoreCapped(scores), nil
}

// finishGame persists the terminal state and posts the final scoreboard.
func (e *Engine) finishGame(ctx context.Context, communityID, notice string) error {
	unlock := e.locks.Lock(communityID)
	defer unlock()

	session, err := e.sessions.FindByCommunity(ctx, communityID)
	if err != nil {
		return err
	}

	session.Playing = false
	session.Voting = domain.VotingNobody
	if err := e.sessions.Save(ctx, &session); err != nil {
		return err
	}

	players, err := e.players.FindByCommunity(ctx, communityID)
	if err != nil {
		return err
	}

	var scoreboard strings.Builder
	scoreboard.WriteString(notice)
	for _, player := range players {
		scoreboard.WriteString(fmt.Sprintf("\n%s: %d", player.UserRef, player.Score))
	}

	e.send(ctx, session.BoardChannel, messaging.Message{Title: "Final scores", Body: scoreboard.String()})
	return nil
}

// failGame forces the session out of its current phase after an internal
// error so no wait is left running against a wedged round.
func (e *Engine) failGame(ctx context.Context, communityID string, logger *zap.Logger, cause error) error {
	logger.Error("round failed", zap.Error(cause))

	notice := fmt.Sprintf("The game ended because the round could not continue: %s", cause)
	if err := e.finishGame(ctx, communityID, notice); err != nil {
		logger.Error("failed to finish game after round failure", zap.Error(err))
	}

	return cause
}

func (e *Engine) setVoting(ctx context.Context, communityID string, voting domain.Voting) error {
	unlock := e.locks.Lock(communityID)
	defer unlock()

	session, err := e.sessions.FindByCommunity(ctx, communityID)
	if err != nil {
		return err
	}
	if !session.Playing {
		return errGameStopped
	}

	session.Voting = voting
	return e.sessions.Save(ctx, &session)
}

// send pushes a notification without failing the round on delivery errors.
func (e *Engine) send(ctx context.Context, channelRef string, message messaging.Message) {
	if err := e.gateway.SendMessage(ctx, channelRef, message); err != nil {
		e.logger.Warn("failed to send message", zap.String("channel", channelRef), zap.Error(err))
	}
}

// cardTexts resolves card ids to their texts, preserving the given order.
func (e *Engine) cardTexts(ctx context.Context, ids []uuid.UUID) ([]string, error) {
	cards, err := e.cards.FindAll(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]string, len(cards))
	for _, card := range cards {
		byID[card.ID] = card.Text
	}

	texts := make([]string, 0, len(ids))
	for _, id := range ids {
		text, ok := byID[id]
		if !ok {
			return nil, errors.Errorf("card %s missing from catalog", id)
		}
		texts = append(texts, text)
	}

	return texts, nil
}

func (e *Engine) renderHand(ctx context.Context, hand []uuid.UUID) (string, error) {
	texts, err := e.cardTexts(ctx, hand)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i, text := range texts {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("%d. %s", i+1, text))
	}

	return b.String(), nil
}

func renderProposals(results []domain.RoundResult) string {
	var b strings.Builder
	for i, result := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("%d. %s", i+1, result.Rendered))
	}
	return b.String()
}

func excludedSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
