package server

import (
	"context"
	"database/sql"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/eskrenkovic/chat-against-humanity/internal/config"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/catalog"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/core"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/game"
	gamecommands "github.com/eskrenkovic/chat-against-humanity/internal/modules/game/commands"
	gameengine "github.com/eskrenkovic/chat-against-humanity/internal/modules/game/engine"
	gamequeries "github.com/eskrenkovic/chat-against-humanity/internal/modules/game/queries"
	"github.com/eskrenkovic/chat-against-humanity/internal/modules/messaging"

	"github.com/eskrenkovic/mediator-go"
	"github.com/eskrenkovic/migrate-go"
	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

type Server interface {
	Start() error
	Stop() error
}

var _ Server = (*HTTPServer)(nil)

// HTTPServer is the composition root. Every dependency is wired here and
// passed down explicitly - no package-level state.
type HTTPServer struct {
	server  *http.Server
	cancel  context.CancelFunc
	baseCtx context.Context
}

// engineCardSource joins the drawer and the repository into the card view
// the round engine needs.
type engineCardSource struct {
	*catalog.Drawer
	*catalog.CardRepository
}

func NewHTTPServer(config config.Config) (Server, error) {
	baseCtx, cancel := context.WithCancel(context.Background())

	db, err := sqlx.Open("postgres", config.DatabaseURL)
	if err != nil {
		cancel()
		return nil, err
	}

	if err := migrate.Run(baseCtx, db.DB, config.MigrationsPath); err != nil {
		cancel()
		return nil, err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		cancel()
		return nil, err
	}

	locks := core.NewKeyedMutex()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	clock := core.SystemClock{}

	gateway := messaging.NewClient(config.ChatGateway.Host, config.ChatGateway.Token)

	cardRepository := catalog.NewCardRepository(db)
	drawer := catalog.NewDrawer(cardRepository, config.Game.DrawMaxAttempts)
	cards := engineCardSource{drawer, cardRepository}

	sessionRepository := game.NewSessionRepository(db.DB)
	playerRepository := game.NewPlayerRepository(db.DB)

	roundEngine := gameengine.New(
		sessionRepository,
		playerRepository,
		cards,
		gateway,
		clock,
		locks,
		logger,
		rng,
		gameengine.Config{
			HandSize:     config.Game.HandSize,
			MinPlayers:   config.Game.MinPlayers,
			PollInterval: config.Game.PollInterval,
		},
	)

	m := mediator.NewMediator()

	requestLoggingBehavior := core.RequestLoggingBehavior{Logger: logger}
	handlerErrorLoggingBehavior := core.HandlerErrorLoggingBehavior{Logger: logger}
	requestValidationBehavior := core.RequestValidationBehavior{}
	requestLockingBehavior := core.RequestLockingBehavior{Locks: locks}

	mediator.RegisterPipelineBehavior(m, &requestLoggingBehavior)
	mediator.RegisterPipelineBehavior(m, &handlerErrorLoggingBehavior)
	mediator.RegisterPipelineBehavior(m, &requestValidationBehavior)
	mediator.RegisterPipelineBehavior(m, &requestLockingBehavior)

	// game command handlers

	createGameHandler := gamecommands.NewCreateGameCommandHandler(
		sessionRepository,
		gateway,
		config.Game.DefaultScoreTarget,
	)
	err = mediator.RegisterRequestHandler[gamecommands.CreateGameCommand, gamecommands.CreateGameResponse](
		m,
		createGameHandler,
	)
	if err != nil {
		cancel()
		return nil, err
	}

	deleteGameHandler := gamecommands.NewDeleteGameCommandHandler(sessionRepository, playerRepository, gateway)
	err = mediator.RegisterRequestHandler[gamecommands.DeleteGameCommand, core.Unit](m, deleteGameHandler)
	if err != nil {
		cancel()
		return nil, err
	}

	joinGameHandler := gamecommands.NewJoinGameCommandHandler(sessionRepository, playerRepository, gateway)
	err = mediator.RegisterRequestHandler[gamecommands.JoinGameCommand, core.Unit](m, joinGameHandler)
	if err != nil {
		cancel()
		return nil, err
	}

	leaveGameHandler := gamecommands.NewLeaveGameCommandHandler(sessionRepository, playerRepository, gateway, rng)
	err = mediator.RegisterRequestHandler[gamecommands.LeaveGameCommand, core.Unit](m, leaveGameHandler)
	if err != nil {
		cancel()
		return nil, err
	}

	startGameHandler := gamecommands.NewStartGameCommandHandler(
		sessionRepository,
		playerRepository,
		gateway,
		roundEngine,
		baseCtx,
		config.Game.MinPlayers,
	)
	err = mediator.RegisterRequestHandler[gamecommands.StartGameCommand, core.Unit](m, startGameHandler)
	if err != nil {
		cancel()
		return nil, err
	}

	stopGameHandler := gamecommands.NewStopGameCommandHandler(sessionRepository)
	err = mediator.RegisterRequestHandler[gamecommands.StopGameCommand, core.Unit](m, stopGameHandler)
	if err != nil {
		cancel()
		return nil, err
	}

	submitAnswersHandler := gamecommands.NewSubmitAnswersCommandHandler(
		sessionRepository,
		playerRepository,
		cardRepository,
		gateway,
	)
	err = mediator.RegisterRequestHandler[gamecommands.SubmitAnswersCommand, core.Unit](m, submitAnswersHandler)
	if err != nil {
		cancel()
		return nil, err
	}

	judgeChoiceHandler := gamecommands.NewJudgeChoiceCommandHandler(sessionRepository, playerRepository, gateway)
	err = mediator.RegisterRequestHandler[gamecommands.JudgeChoiceCommand, core.Unit](m, judgeChoiceHandler)
	if err != nil {
		cancel()
		return nil, err
	}

	reminderHandler := gamecommands.NewReminderCommandHandler(gateway)
	err = mediator.RegisterRequestHandler[gamecommands.ReminderCommand, core.Unit](m, reminderHandler)
	if err != nil {
		cancel()
		return nil, err
	}

	scoreboardHandler := gamequeries.NewGetScoreboardQueryHandler(db.DB, sessionRepository, gateway)
	err = mediator.RegisterRequestHandler[gamequeries.GetScoreboardQuery, []gamequeries.PlayerScore](
		m,
		scoreboardHandler,
	)
	if err != nil {
		cancel()
		return nil, err
	}

	// http

	gameHandler := game.NewGameHTTPHandler(m)

	router := chi.NewRouter()
	router.Use(core.CorrelationIDHTTPMiddleware)
	router.Use(core.RequestLoggerHTTPMiddleware(logger))

	router.Route("/communities/{communityID}/game", func(r chi.Router) {
		r.Post("/", gameHandler.HandleCreateGame)
		r.Delete("/", gameHandler.HandleDeleteGame)

		r.Post("/players", gameHandler.HandleJoinGame)
		r.Delete("/players/{userRef}", gameHandler.HandleLeaveGame)

		r.Post("/actions/start", gameHandler.HandleStartGame)
		r.Post("/actions/stop", gameHandler.HandleStopGame)
		r.Post("/actions/vote", gameHandler.HandleSubmitAnswers)
		r.Post("/actions/judge", gameHandler.HandleJudgeChoice)
		r.Post("/actions/reminder", gameHandler.HandleReminder)

		r.Get("/scoreboard", gameHandler.HandleGetScoreboard)
	})

	server := http.Server{
		Addr:    net.JoinHostPort("", strconv.Itoa(config.Port)),
		Handler: router,
		BaseContext: func(net.Listener) context.Context {
			return baseCtx
		},
	}

	return &HTTPServer{
		server:  &server,
		cancel:  cancel,
		baseCtx: baseCtx,
	}, nil
}

func (s *HTTPServer) Start() error {
	return s.server.ListenAndServe()
}

// Stop cancels the engine round tasks before shutting the listener down.
func (s *HTTPServer) Stop() error {
	s.cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}
