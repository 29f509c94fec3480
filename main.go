package main

import (
	"github.com/punishpad/server/config"
	"github.com/punishpad/server/logger"
	"github.com/punishpad/server/monitor"
	"github.com/punishpad/server/notify"
	"github.com/punishpad/server/persistence"
	"github.com/punishpad/server/server"
)

func main() {
	// Initialize logger
	logger.Init()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Session archive is optional; the game runs fully in memory without it.
	var db persistence.Database
	if cfg.Database.Postgres.Host != "" {
		gormDB, err := persistence.NewGormPostgreSQL(
			cfg.Database.Postgres.Host,
			cfg.Database.Postgres.Port,
			cfg.Database.Postgres.User,
			cfg.Database.Postgres.Password,
			cfg.Database.Postgres.DBName,
		)
		if err != nil {
			logger.Log.Fatalf("Failed to connect to database: %v", err)
		}
		db = gormDB
		logger.Log.Info("Database connection successful.")
	} else {
		logger.Log.Info("No database configured, session archive disabled.")
	}

	// Push dispatcher
	var dispatcher notify.Dispatcher = notify.NopDispatcher{}
	if cfg.Notify.Endpoint != "" {
		dispatcher = notify.NewHTTPDispatcher(cfg.Notify.Endpoint, cfg.Notify.ServerKey)
	} else {
		logger.Log.Info("No push endpoint configured, notifications disabled.")
	}

	// Metrics
	mon := monitor.NewMonitor("punishpad")
	mon.StartServer(cfg.Server.MetricsAddress)

	// Start Server
	gameServer := server.NewGameServer(cfg, db, dispatcher, mon)
	logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
