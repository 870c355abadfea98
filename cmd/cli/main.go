package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/dkarpov/handin/internal/buildinfo"
	"github.com/dkarpov/handin/internal/cli"
	"github.com/dkarpov/handin/internal/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	// A missing .env is fine; flags and defaults still apply.
	_ = godotenv.Load()

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
