package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/heartmarshall/course-search/migrations"
)

// Migrator applies the embedded goose migrations over an existing pool.
type Migrator struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewMigrator creates a Migrator bound to pool.
func NewMigrator(pool *pgxpool.Pool, logger *slog.Logger) *Migrator {
	return &Migrator{pool: pool, log: logger.With("component", "migrator")}
}

// Up applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	return m.run(func(p *goose.Provider) error {
		results, err := p.Up(ctx)
		for _, r := range results {
			m.log.InfoContext(ctx, "migration applied",
				slog.Int64("version", r.Source.Version),
				slog.Duration("took", r.Duration),
			)
		}
		return err
	})
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) error {
	return m.run(func(p *goose.Provider) error {
		r, err := p.Down(ctx)
		if r != nil {
			m.log.InfoContext(ctx, "migration rolled back", slog.Int64("version", r.Source.Version))
		}
		return err
	})
}

// MigrationStatus is the state of a single migration.
type MigrationStatus struct {
	Version int64
	Path    string
	Applied bool
}

// Status reports every known migration and whether it is applied.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	var out []MigrationStatus
	err := m.run(func(p *goose.Provider) error {
		statuses, err := p.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range statuses {
			out = append(out, MigrationStatus{
				Version: s.Source.Version,
				Path:    s.Source.Path,
				Applied: s.State == goose.StateApplied,
			})
		}
		return nil
	})
	return out, err
}

func (m *Migrator) run(fn func(p *goose.Provider) error) error {
	// goose requires *sql.DB. The wrapper keeps no idle connections of its
	// own and is left open so the shared pool is never closed through it.
	db := stdlib.OpenDBFromPool(m.pool)

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("goose new provider: %w", err)
	}

	if err := fn(provider); err != nil {
		return fmt.Errorf("goose: %w", err)
	}
	return nil
}
