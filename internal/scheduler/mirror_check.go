package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kabumemo/kabumemo/internal/database"
	"github.com/kabumemo/kabumemo/internal/storage"
	"github.com/rs/zerolog"
)

// MirrorStore is the part of storage.Repository the mirror check needs.
type MirrorStore interface {
	CheckSync(ctx context.Context) (storage.SyncReport, error)
	SyncMirror(ctx context.Context) error
}

// MirrorCheckJob verifies the SQLite mirror and resynchronizes it from the
// JSON files when the two have drifted.
type MirrorCheckJob struct {
	db    *database.DB
	store MirrorStore
	log   zerolog.Logger
}

// NewMirrorCheckJob creates a new MirrorCheckJob
func NewMirrorCheckJob(db *database.DB, store MirrorStore, log zerolog.Logger) *MirrorCheckJob {
	return &MirrorCheckJob{
		db:    db,
		store: store,
		log:   log.With().Str("job", "mirror_check").Logger(),
	}
}

// Name returns the job name
func (j *MirrorCheckJob) Name() string {
	return "mirror_check"
}

// Run executes the integrity check and the JSON comparison.
func (j *MirrorCheckJob) Run() error {
	if j.db != nil {
		if err := checkDatabaseIntegrity(j.db.Conn()); err != nil {
			// A corrupted mirror cannot be repaired in place; the JSON files stay authoritative.
			j.log.Error().Err(err).Str("database", j.db.Name()).Msg("Mirror integrity check failed")
			return fmt.Errorf("database %s is corrupted: %w", j.db.Name(), err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	report, err := j.store.CheckSync(ctx)
	if err != nil {
		return fmt.Errorf("failed to compare mirror: %w", err)
	}
	if report.Clean() {
		j.log.Debug().Msg("Mirror in sync")
		return nil
	}

	for _, c := range report.Collections {
		if c.Clean() {
			continue
		}
		j.log.Warn().
			Str("collection", c.Label).
			Int("missing_in_sqlite", len(c.MissingInSQLite)).
			Int("missing_in_json", len(c.MissingInJSON)).
			Int("mismatched", len(c.Mismatched)).
			Msg("Mirror drift detected")
	}

	if err := j.store.SyncMirror(ctx); err != nil {
		return fmt.Errorf("failed to resync mirror: %w", err)
	}
	j.log.Info().Msg("Mirror resynchronized from JSON")
	return nil
}

// checkDatabaseIntegrity runs SQLite's PRAGMA integrity_check
func checkDatabaseIntegrity(db *sql.DB) error {
	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check returned: %s", result)
	}
	return nil
}
