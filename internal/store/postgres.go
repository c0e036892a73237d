package store

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/JonMunkholm/crudtables/internal/config"
	"github.com/JonMunkholm/crudtables/internal/core"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Postgres stores records in PostgreSQL as JSONB.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects a pool sized by cfg and, when cfg.AutoMigrate is
// set, applies pending migrations.
func OpenPostgres(ctx context.Context, cfg config.StoreConfig) (*Postgres, error) {
	pool, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	p := &Postgres{pool: pool}
	if cfg.AutoMigrate {
		if err := p.MigrateUp(); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return p, nil
}

// Connect opens and pings a pgx pool.
func Connect(ctx context.Context, cfg config.StoreConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	poolCfg.MinConns = int32(cfg.MinConns)
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// NewPostgres wraps an existing pool. The caller owns the schema.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Resource implements core.ResourceProvider.
func (p *Postgres) Resource(name string) core.Resource {
	return &postgresResource{pool: p.pool, name: name}
}

// Ping checks the connection.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close implements Backend.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// newMigrator builds a migrator over the embedded migrations. The sql.DB
// bridge borrows connections from the pool; closing it leaves the pool open.
func (p *Postgres) newMigrator() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}

	db := stdlib.OpenDBFromPool(p.pool)
	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return nil, fmt.Errorf("create migration instance: %w", err)
	}
	return m, nil
}

// MigrateUp applies all pending migrations.
func (p *Postgres) MigrateUp() error {
	return p.runMigration("up", func(m *migrate.Migrate) error { return m.Up() })
}

// MigrateDown rolls back the given number of migrations.
func (p *Postgres) MigrateDown(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("migrate down: steps must be positive, got %d", steps)
	}
	return p.runMigration("down", func(m *migrate.Migrate) error { return m.Steps(-steps) })
}

// MigrationVersion reports the applied version and whether the last
// migration failed halfway.
func (p *Postgres) MigrationVersion() (version uint, dirty bool, err error) {
	m, err := p.newMigrator()
	if err != nil {
		return 0, false, err
	}
	defer m.Close()

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (p *Postgres) runMigration(name string, run func(*migrate.Migrate) error) error {
	m, err := p.newMigrator()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := run(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: %w", name, err)
	}
	return nil
}

type postgresResource struct {
	pool *pgxpool.Pool
	name string
}

func (r *postgresResource) List(ctx context.Context) ([]core.Record, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, data, archived FROM records WHERE resource = $1 ORDER BY id`, r.name)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.name, err)
	}
	defer rows.Close()

	var out []core.Record
	for rows.Next() {
		var (
			id       int64
			data     []byte
			archived bool
		)
		if err := rows.Scan(&id, &data, &archived); err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.name, err)
		}
		rec, err := decodeRecord(id, data, archived)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *postgresResource) Create(ctx context.Context, data core.Record) (core.Record, error) {
	b, err := encodeData(data)
	if err != nil {
		return nil, err
	}

	var id int64
	err = r.pool.QueryRow(ctx,
		`INSERT INTO records (resource, data) VALUES ($1, $2) RETURNING id`,
		r.name, string(b)).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", r.name, err)
	}
	return decodeRecord(id, b, false)
}

func (r *postgresResource) Update(ctx context.Context, id any, data core.Record) (core.Record, error) {
	key, err := parseID(id)
	if err != nil {
		return nil, err
	}
	b, err := encodeData(data)
	if err != nil {
		return nil, err
	}

	var archived bool
	err = r.pool.QueryRow(ctx,
		`UPDATE records SET data = $1, updated_at = NOW()
		 WHERE resource = $2 AND id = $3 RETURNING archived`,
		string(b), r.name, key).Scan(&archived)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(r.name, key)
	}
	if err != nil {
		return nil, fmt.Errorf("update %s %d: %w", r.name, key, err)
	}
	return decodeRecord(key, b, archived)
}

func (r *postgresResource) Delete(ctx context.Context, id any) error {
	key, err := parseID(id)
	if err != nil {
		return err
	}
	return r.exec(ctx, key, "delete",
		`DELETE FROM records WHERE resource = $1 AND id = $2`, r.name, key)
}

func (r *postgresResource) Archive(ctx context.Context, id any) error {
	return r.setArchived(ctx, id, true)
}

func (r *postgresResource) Restore(ctx context.Context, id any) error {
	return r.setArchived(ctx, id, false)
}

func (r *postgresResource) setArchived(ctx context.Context, id any, archived bool) error {
	key, err := parseID(id)
	if err != nil {
		return err
	}
	op := "archive"
	if !archived {
		op = "restore"
	}
	return r.exec(ctx, key, op,
		`UPDATE records SET archived = $1, updated_at = NOW() WHERE resource = $2 AND id = $3`,
		archived, r.name, key)
}

func (r *postgresResource) exec(ctx context.Context, key int64, op, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s %s %d: %w", op, r.name, key, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(r.name, key)
	}
	return nil
}
