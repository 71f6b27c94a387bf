package game

import (
	"net/http"
	"path"

	"github.com/eskrenkovic/chat-against-humanity/internal/modules/core"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/game/commands"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/game/queries"

	"github.com/eskrenkovic/mediator-go"
	"github.com/go-chi/chi"
)

// GameHTTPHandler adapts the chat gateway's HTTP calls onto the command
// bus. The community id always comes from the URL; the acting user and
// originating channel come from the body the gateway forwards.
type GameHTTPHandler struct {
	m *mediator.Mediator
}

func NewGameHTTPHandler(m *mediator.Mediator) *GameHTTPHandler {
	return &GameHTTPHandler{m}
}

func (h *GameHTTPHandler) HandleCreateGame(w http.ResponseWriter, r *http.Request) {
	command := commands.CreateGameCommand{
		CommunityID: chi.URLParam(r, "communityID"),
	}

	if _, err := mediator.Send[commands.CreateGameCommand, commands.CreateGameResponse](
		h.m,
		r.Context(),
		command,
	); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	location := path.Join(r.Host, "communities", command.CommunityID, "game")
	core.WriteCreated(w, r, location)
}

func (h *GameHTTPHandler) HandleDeleteGame(w http.ResponseWriter, r *http.Request) {
	command := commands.DeleteGameCommand{
		CommunityID: chi.URLParam(r, "communityID"),
	}

	if _, err := mediator.Send[commands.DeleteGameCommand, core.Unit](h.m, r.Context(), command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, nil)
}

func (h *GameHTTPHandler) HandleJoinGame(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[commands.JoinGameCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}
	command.CommunityID = chi.URLParam(r, "communityID")

	if _, err := mediator.Send[commands.JoinGameCommand, core.Unit](h.m, r.Context(), command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, nil)
}

func (h *GameHTTPHandler) HandleLeaveGame(w http.ResponseWriter, r *http.Request) {
	command := commands.LeaveGameCommand{
		CommunityID: chi.URLParam(r, "communityID"),
		UserRef:     chi.URLParam(r, "userRef"),
	}

	if _, err := mediator.Send[commands.LeaveGameCommand, core.Unit](h.m, r.Context(), command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, nil)
}

func (h *GameHTTPHandler) HandleStartGame(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[commands.StartGameCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}
	command.CommunityID = chi.URLParam(r, "communityID")

	if _, err := mediator.Send[commands.StartGameCommand, core.Unit](h.m, r.Context(), command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, nil)
}

func (h *GameHTTPHandler) HandleStopGame(w http.ResponseWriter, r *http.Request) {
	command := commands.StopGameCommand{
		CommunityID: chi.URLParam(r, "communityID"),
	}

	if _, err := mediator.Send[commands.StopGameCommand, core.Unit](h.m, r.Context(), command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, nil)
}

func (h *GameHTTPHandler) HandleSubmitAnswers(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[commands.SubmitAnswersCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}
	command.CommunityID = chi.URLParam(r, "communityID")

	if _, err := mediator.Send[commands.SubmitAnswersCommand, core.Unit](h.m, r.Context(), command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, nil)
}

func (h *GameHTTPHandler) HandleJudgeChoice(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[commands.JudgeChoiceCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}
	command.CommunityID = chi.URLParam(r, "communityID")

	if _, err := mediator.Send[commands.JudgeChoiceCommand, core.Unit](h.m, r.Context(), command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, nil)
}

func (h *GameHTTPHandler) HandleGetScoreboard(w http.ResponseWriter, r *http.Request) {
	query := queries.GetScoreboardQuery{
		CommunityID: chi.URLParam(r, "communityID"),
	}

	response, err := mediator.Send[queries.GetScoreboardQuery, []queries.PlayerScore](
		h.m,
		r.Context(),
		query,
	)
	if err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, response)
}

func (h *GameHTTPHandler) HandleReminder(w http.ResponseWriter, r *http.Request) {
	command, err := core.RequestBody[commands.ReminderCommand](r)
	if err != nil {
		core.WriteBadRequest(w, r, err)
		return
	}
	command.CommunityID = chi.URLParam(r, "communityID")

	if _, err := mediator.Send[commands.ReminderCommand, core.Unit](h.m, r.Context(), command); err != nil {
		core.WriteCommandError(w, r, err)
		return
	}

	core.WriteOK(w, r, nil)
}
