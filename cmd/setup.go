package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/ytfm/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the config.toml template to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", configPath)

	r.writePlain("✓ Config template written to %s\n", configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Fill in [credentials.lastfm] api_key, api_secret, username and password\n")
	r.writePlain("2. Point [credentials.youtube] proxy_url at your YouTube Music proxy\n")
	r.writePlain("3. Run 'ytfm auth lastfm' and 'ytfm auth google'\n")
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err != nil && r.config == nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
		}
	}

	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("rollback") {
		db, err := shared.NewDatabase(config.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		migration, err := shared.NewMigrator(db, shared.WithLogger(r.logger, "component", "migrations")).Down()
		if err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		return r.writePlain("✓ Rolled back migration %04d_%s on %s\n", migration.Version, migration.Name, config.Database.Path)
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return r.writePlain("✓ Database ready at %s\n", config.Database.Path)
}
