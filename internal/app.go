// Package internal assembles the pokerlog application.
package internal

import (
	"fmt"

	"github.com/karloscodes/cartridge"

	"pokerlog/internal/config"
	"pokerlog/internal/database"
	"pokerlog/internal/jobs"
)

// Application wraps cartridge.Application with the pokerlog DB manager.
type Application struct {
	*cartridge.Application
	DBManager *database.DBManager // exposes MigrateDatabase to the binaries
}

// NewApp creates a new application instance with default settings
func NewApp() (*Application, error) {
	return NewAppWithRoutes(config.GetConfig(), MountAppRoutes)
}

// NewAppWithRoutes creates a new application with a custom route mounting function
func NewAppWithRoutes(cfg *config.Config, routeMount func(*cartridge.Server)) (*Application, error) {
	logger := cartridge.NewLogger(cfg, nil)

	dbManager := database.NewDBManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app, err := cartridge.NewApplication(cartridge.ApplicationOptions{
		Config:            cfg,
		Logger:            logger,
		DBManager:         dbManager,
		RouteMountFunc:    routeMount,
		BackgroundWorkers: []cartridge.BackgroundWorker{jobs.NewJobs(dbManager, logger)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	return &Application{
		Application: app,
		DBManager:   dbManager,
	}, nil
}
