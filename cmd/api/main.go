package main

import (
	"log"
	"os"
	"path"

	"github.com/eskrenkovic/chat-against-humanity/internal/config"
	"github.com/eskrenkovic/chat-against-humanity/internal/server"

	"github.com/joho/godotenv"
)

func main() {
	if len(os.Args) > 1 {
		rootPath := os.Args[1]
		if rootPath == "" {
			log.Fatal("root directory path is empty")
		}

		if err := godotenv.Load(path.Join(rootPath, "config.env")); err != nil {
			log.Fatal(err)
		}
	}

	config, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	server, err := server.NewHTTPServer(config)
	if err != nil {
		log.Fatal(err)
	}

	defer func() {
		if err := server.Stop(); err != nil {
			log.Fatal(err)
		}
	}()

	if err := server.Start(); err != nil {
		log.Fatal(err)
	}
}
