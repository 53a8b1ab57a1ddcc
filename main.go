package main

import (
	"github.com/wfunc/pagerace/config"
	"github.com/wfunc/pagerace/logger"
	"github.com/wfunc/pagerace/server"
	"github.com/wfunc/pagerace/wiki"
)

func main() {
	logger.Init()
	defer logger.Sync()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	provider := wiki.NewClient(
		cfg.Wiki.BaseURL,
		cfg.Wiki.Language,
		cfg.Wiki.UserAgent,
		cfg.Wiki.Timeout,
	)

	gameServer := server.NewGameServer(cfg, provider)

	logger.Log.Infof("Starting pagerace server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
