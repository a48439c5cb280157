package main

import (
	"log"

	"github.com/devflowhq/backend/internal/config"
	"github.com/devflowhq/backend/internal/server"
)

func main() {
	cfg := config.Load()

	if cfg.JWTSecret == "" {
		log.Println("⚠️  JWT_SECRET is not set; issued tokens will not be secure")
	}

	srv := server.NewServer(cfg)

	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
