package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path"
	"strings"
	"sync"
	"testing"

	"github.com/eskrenkovic/chat-against-humanity/internal/config"
	"github.com/eskrenkovic/chat-against-humanity/internal/server"
	"github.com/eskrenkovic/chat-against-humanity/internal/test"

	"github.com/docker/go-connections/nat"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go/wait"
)

type IntegrationTestFixture struct {
	client  *http.Client
	baseURL string
	db      *sql.DB
	gateway *fakeChatGateway
}

var fixture = IntegrationTestFixture{gateway: &fakeChatGateway{}}

func TestMain(m *testing.M) {
	rootPath := "../../"
	if err := os.Setenv(config.RootPathEnv, rootPath); err != nil {
		log.Fatal(err)
	}

	localConfigPath := path.Join(rootPath, "config.local.env")
	if _, err := os.Stat(localConfigPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			f, err := os.Create(localConfigPath)
			if err != nil {
				log.Fatal(err)
			}
			defer func() {
				if err := f.Close(); err != nil {
					log.Fatal(err)
				}
			}()

			if _, err := f.Write([]byte("SKIP_INFRASTRUCTURE=false")); err != nil {
				log.Fatal(err)
			}
		}
	}

	if err := godotenv.Load(localConfigPath); err != nil {
		log.Fatal(err)
	}

	if err := godotenv.Load(path.Join(rootPath, "config.env")); err != nil {
		log.Fatal(err)
	}

	// The chat gateway is faked for the whole suite - the game API is
	// exercised for real, channel traffic lands here.
	chatGateway := httptest.NewServer(fixture.gateway)
	defer chatGateway.Close()

	if err := os.Setenv(config.ChatGatewayURLEnv, chatGateway.URL); err != nil {
		log.Fatal(err)
	}

	conf, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	pgPort := nat.Port("5432/tcp")

	f, err := test.NewLocalTestFixture(
		path.Join(rootPath, "docker-compose.yml"),
		test.ServiceWait{
			Service:  "cah-postgres",
			Port:     5432,
			Strategy: wait.ForSQL(pgPort, "postgres", func(nat.Port) string { return conf.DatabaseURL }),
		},
	)
	if err != nil {
		log.Fatal(err)
	}

	defer func() {
		if err := f.Stop(); err != nil {
			log.Fatal(err)
		}
	}()

	if err := f.Start(); err != nil {
		log.Fatal(err)
	}

	if err := initFixture(conf); err != nil {
		log.Fatal(err)
	}

	srv, err := server.NewHTTPServer(conf)
	if err != nil {
		log.Fatal(err)
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	_ = m.Run()
}

func initFixture(conf config.Config) error {
	fixture.client = &http.Client{}

	u := url.URL{
		Scheme: "http",
		Host:   fmt.Sprintf("%s:%d", "localhost", conf.Port),
	}
	fixture.baseURL = u.String()

	db, err := sql.Open("postgres", conf.DatabaseURL)
	if err != nil {
		return err
	}

	fixture.db = db

	return nil
}

type channelMessage struct {
	ChannelRef string
	Title      string `json:"title"`
	Body       string `json:"body"`
}

// fakeChatGateway answers the gateway API surface the server calls:
// channel creation echoes a ref derived from the channel name, messages
// are recorded for assertions, everything else acknowledges.
type fakeChatGateway struct {
	mu       sync.Mutex
	messages []channelMessage
}

func (g *fakeChatGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost && r.URL.Path == "/channels" {
		var request struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"channel_ref": "channel-" + strings.ReplaceAll(request.Name, " ", "-"),
		})
		return
	}

	if r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/messages") {
		var message channelMessage
		if err := json.NewDecoder(r.Body).Decode(&message); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		message.ChannelRef = strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/channels/"), "/messages")

		g.mu.Lock()
		g.messages = append(g.messages, message)
		g.mu.Unlock()
	}

	w.WriteHeader(http.StatusOK)
}

func (g *fakeChatGateway) received(title, fragment string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, message := range g.messages {
		if message.Title == title && strings.Contains(message.Body, fragment) {
			return true
		}
	}

	return false
}
