// Package main is the entry point for the voclens CLI.
package main

import (
	"github.com/joho/godotenv"

	"github.com/meridian-ops/voclens/internal/app"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0"
var version = "dev"

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	app.SetVersion(version)
	app.Execute()
}
