package di

import (
	"context"
	"fmt"

	"github.com/kabumemo/kabumemo/internal/clientdata"
	"github.com/kabumemo/kabumemo/internal/config"
	"github.com/kabumemo/kabumemo/internal/database"
	"github.com/kabumemo/kabumemo/internal/storage"
	"github.com/rs/zerolog"
)

// InitializeDatabases opens and migrates the SQLite mirror.
func InitializeDatabases(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	mirrorDB, err := database.New(database.Config{
		Path: cfg.SQLitePath(),
		Name: "mirror",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize mirror database: %w", err)
	}
	if err := mirrorDB.Migrate(); err != nil {
		mirrorDB.Close()
		return nil, fmt.Errorf("failed to migrate mirror database: %w", err)
	}

	log.Info().Str("path", mirrorDB.Path()).Msg("Mirror database ready")
	return &Container{MirrorDB: mirrorDB}, nil
}

// InitializeRepositories creates the JSON repository and the provider cache.
func InitializeRepositories(container *Container, cfg *config.Config, log zerolog.Logger) error {
	repo, err := storage.NewRepository(cfg.JSONDir, storage.NewMirror(container.MirrorDB, log), log)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	container.Repository = repo
	container.CacheRepo = clientdata.NewRepository(container.MirrorDB.Conn())
	return nil
}

// PrepareStorage seeds the default funding groups and brings the mirror in
// line with the JSON files.
func PrepareStorage(ctx context.Context, container *Container) error {
	if err := container.Repository.EnsureDefaultGroups(); err != nil {
		return fmt.Errorf("failed to seed default funding groups: %w", err)
	}
	if err := container.Repository.SyncMirror(ctx); err != nil {
		return fmt.Errorf("failed to synchronize mirror: %w", err)
	}
	return nil
}

// OpenStorage opens the mirror and repository without touching their
// contents. Used by maintenance commands that must observe drift.
func OpenStorage(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container, err := InitializeDatabases(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := InitializeRepositories(container, cfg, log); err != nil {
		container.Close()
		return nil, err
	}
	return container, nil
}
