package main

import (
	"context"

	"github.com/joho/godotenv"

	"github.com/d9i2r2t1/hh-parser/pkg/cli"
)

func main() {
	// Secrets may come from a local .env file instead of the environment.
	_ = godotenv.Load()

	cli.Execute(context.Background())
}
