package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/NunoFAntunes/realtor-buddy/internal/apperrors"
	"github.com/NunoFAntunes/realtor-buddy/internal/config"
	"github.com/NunoFAntunes/realtor-buddy/internal/logger"
	"github.com/NunoFAntunes/realtor-buddy/internal/metrics"
	"github.com/NunoFAntunes/realtor-buddy/internal/model"
)

const listingsTable = "agency_properties"

// PostgresRepository executes validated, read-only SQL against the
// listings database.
type PostgresRepository struct {
	db               *sqlx.DB
	statementTimeout time.Duration
	log              *zap.Logger
}

// NewPostgresRepository opens the pool and pings the database.
func NewPostgresRepository(ctx context.Context, cfg *config.Config, log *zap.Logger) (*PostgresRepository, error) {
	db, err := sqlx.Open("postgres", cfg.GetPostgreSQLDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pg := cfg.PostgreSQL
	db.SetMaxOpenConns(pg.MaxConnections)
	db.SetMaxIdleConns(pg.MaxIdleConnections)
	db.SetConnMaxLifetime(pg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(2 * time.Minute)

	repo := NewWithDB(db, cfg.Search.StatementTimeout, log)
	if err := repo.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// NewWithDB wraps an existing handle.
func NewWithDB(db *sqlx.DB, statementTimeout time.Duration, log *zap.Logger) *PostgresRepository {
	return &PostgresRepository{db: db, statementTimeout: statementTimeout, log: logger.OrNop(log)}
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// Ping checks connectivity.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", apperrors.ErrDatabase, err)
	}
	return nil
}

// TableStats counts the listings table.
func (r *PostgresRepository) TableStats(ctx context.Context) (*model.TableStats, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, "SELECT count(*) FROM "+listingsTable); err != nil {
		return nil, fmt.Errorf("%w: table stats: %w", apperrors.ErrDatabase, err)
	}
	return &model.TableStats{Table: listingsTable, RowCount: n}, nil
}

// Execute runs query in a read-only transaction and returns at most
// rowLimit rows keyed by column name. Byte values come back as strings.
// Reading one row past the limit fails with ErrResultTooLarge.
func (r *PostgresRepository) Execute(ctx context.Context, query string, rowLimit int) ([]map[string]any, error) {
	start := time.Now()
	defer func() { metrics.QueryDuration.Observe(time.Since(start).Seconds()) }()

	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("%w: begin: %w", apperrors.ErrDatabase, err)
	}
	// Nothing is ever written, so the transaction is always rolled back.
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			r.log.Warn("rollback failed", zap.Error(err))
		}
	}()

	if r.statementTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL statement_timeout = %d", r.statementTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("%w: statement timeout: %w", apperrors.ErrDatabase, err)
		}
	}

	rows, err := tx.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	out := make([]map[string]any, 0)
	for rows.Next() {
		if rowLimit > 0 && len(out) == rowLimit {
			return nil, fmt.Errorf("%w: more than %d rows", apperrors.ErrResultTooLarge, rowLimit)
		}
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("%w: scan: %w", apperrors.ErrDatabase, err)
		}
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows: %w", apperrors.ErrDatabase, err)
	}

	r.log.Debug("query executed", zap.Int("rows", len(out)), zap.Duration("elapsed", time.Since(start)))
	return out, nil
}
