package config

import (
	"log/slog"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/eskrenkovic/chat-against-humanity/internal/modules/env"
)

const (
	PortEnv        = "PORT"
	DatabaseUrlEnv = "DATABASE_URL"
	RootPathEnv    = "ROOT_PATH"

	ChatGatewayURLEnv   = "CHAT_GATEWAY_URL"
	ChatGatewayTokenEnv = "CHAT_GATEWAY_TOKEN"

	HandSizeEnv           = "GAME_HAND_SIZE"
	MinPlayersEnv         = "GAME_MIN_PLAYERS"
	DefaultScoreTargetEnv = "GAME_DEFAULT_SCORE_TARGET"
	PollIntervalEnv       = "GAME_POLL_INTERVAL_SECONDS"
	DrawMaxAttemptsEnv    = "GAME_DRAW_MAX_ATTEMPTS"
)

type ChatGatewayConfiguration struct {
	Host  *url.URL
	Token string
}

// GameConfiguration holds the round-engine tunables.
type GameConfiguration struct {
	HandSize           int
	MinPlayers         int
	DefaultScoreTarget int
	PollInterval       time.Duration
	DrawMaxAttempts    int
}

type Config struct {
	Logger *slog.Logger

	Port           int
	DatabaseURL    string
	MigrationsPath string

	ChatGateway ChatGatewayConfiguration
	Game        GameConfiguration
}

func Load() (Config, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	port := env.MustGetInt(PortEnv)
	dbURL := env.MustGetString(DatabaseUrlEnv)

	rootPath := env.MustGetString(RootPathEnv)
	migrationsPath := path.Join(rootPath, "db", "migrations")

	gatewayURL := env.MustGetURL(ChatGatewayURLEnv)
	gatewayToken := env.GetStringOrDefault(ChatGatewayTokenEnv, "")

	game := GameConfiguration{
		HandSize:           env.GetIntOrDefault(HandSizeEnv, 7),
		MinPlayers:         env.GetIntOrDefault(MinPlayersEnv, 2),
		DefaultScoreTarget: env.GetIntOrDefault(DefaultScoreTargetEnv, 5),
		PollInterval:       time.Duration(env.GetIntOrDefault(PollIntervalEnv, 5)) * time.Second,
		DrawMaxAttempts:    env.GetIntOrDefault(DrawMaxAttemptsEnv, 100),
	}

	return Config{
		Logger:         logger,
		Port:           port,
		DatabaseURL:    dbURL,
		MigrationsPath: migrationsPath,
		ChatGateway: ChatGatewayConfiguration{
			Host:  gatewayURL,
			Token: gatewayToken,
		},
		Game: game,
	}, nil
}
