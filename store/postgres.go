// Package store publishes reconciled ledgers to PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"fmt"

	optionpl "github.com/etnz/optionpl"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Postgres writes ledger entries into a single table. Every publication is
// a run, identified by a UUID, so that successive reconciliations can be
// compared.
type Postgres struct {
	db     *sql.DB
	table  string
	logger *zap.Logger
}

// New wraps an open database handle.
func New(db *sql.DB, table string, logger *zap.Logger) *Postgres {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Postgres{db: db, table: table, logger: logger}
}

// Open connects to the database at dsn and checks the connection.
func Open(ctx context.Context, dsn, table string, logger *zap.Logger) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	p := New(db, table, logger)
	p.logger.Info("postgres-store-connected", zap.String("table", table))
	return p, nil
}

func (p *Postgres) ident() string { return pq.QuoteIdentifier(p.table) }

// EnsureSchema creates the ledger table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS ` + p.ident() + ` (
			run_id    UUID    NOT NULL,
			as_of     DATE    NOT NULL,
			seq       INTEGER NOT NULL,
			symbol    TEXT    NOT NULL,
			kind      TEXT    NOT NULL,
			strategy  TEXT    NOT NULL,
			year      INTEGER NOT NULL,
			duration  INTEGER NOT NULL,
			quantity  NUMERIC NOT NULL,
			profit    NUMERIC NOT NULL,
			cost      NUMERIC NOT NULL,
			currency  TEXT    NOT NULL,
			opened    DATE    NOT NULL,
			settled   DATE    NOT NULL,
			PRIMARY KEY (run_id, seq)
		)`
	if _, err := p.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", p.table, err)
	}
	return nil
}

// Publish inserts every entry of the report in a single transaction and
// returns the run id. An empty runID gets a fresh UUID.
func (p *Postgres) Publish(ctx context.Context, runID string, report *optionpl.Report) (string, error) {
	if runID == "" {
		runID = uuid.New().String()
	} else if _, err := uuid.Parse(runID); err != nil {
		return "", fmt.Errorf("invalid run id %q: %w", runID, err)
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO `+p.ident()+` (
			run_id, as_of, seq, symbol, kind, strategy, year, duration,
			quantity, profit, cost, currency, opened, settled
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)`)
	if err != nil {
		return "", fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	entries := report.Entries()
	for i, e := range entries {
		_, err := stmt.ExecContext(ctx,
			runID,
			report.AsOf.String(),
			i,
			e.Symbol,
			e.Kind.String(),
			e.Strategy.String(),
			e.Year,
			e.Duration,
			e.Quantity.String(),
			e.Profit.Decimal().String(),
			e.Cost.Decimal().String(),
			e.Profit.Currency(),
			e.Opened.String(),
			e.Settled.String(),
		)
		if err != nil {
			return "", fmt.Errorf("insert entry %d of %s: %w", i, e.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	p.logger.Info("ledger-published",
		zap.String("run-id", runID),
		zap.Stringer("as-of", report.AsOf),
		zap.Int("entries", len(entries)))
	return runID, nil
}

// Close closes the database connection.
func (p *Postgres) Close() error {
	p.logger.Info("closing-postgres-store")
	return p.db.Close()
}
