// Package commands implements the duende-configure subcommands.
package commands

import (
	"fmt"

	"github.com/enp09/duende/internal/config"
	"github.com/enp09/duende/internal/database"
)

// openDB loads configuration and connects to the database. Callers close the DB.
func openDB() (*config.Config, *database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return cfg, db, nil
}
