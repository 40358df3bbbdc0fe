package main

import (
	"github.com/joho/godotenv"

	"github.com/maicon-romano/previzi/internal/cli"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cli.Execute()
}
