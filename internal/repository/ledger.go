package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/qrdoc-tracker/internal/common"
	"github.com/joseph-ayodele/qrdoc-tracker/internal/entity"
)

// Ledger tracks which remote files have been seen and stores their parsed attributes.
// It is the only reader and writer of processed_files.
type Ledger interface {
	// IsProcessed is true only for an existing row with processed=true.
	IsProcessed(ctx context.Context, fileName string) (bool, error)
	// MarkExtracted upserts the record and sets processed=true (last write wins).
	MarkExtracted(ctx context.Context, fileName string, rec entity.ValidityRecord) error
	// MarkSeenUnprocessed inserts a processed=false row unless one already exists.
	MarkSeenUnprocessed(ctx context.Context, fileName string) error
	Get(ctx context.Context, fileName string) (entity.LedgerEntry, bool, error)
	List(ctx context.Context) ([]entity.LedgerEntry, error)
	Close() error
}

// DBTX is the subset of pgxpool.Pool the postgres ledger needs; pgxmock satisfies it too.
type DBTX interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const (
	pgSelectProcessed = `SELECT processed FROM processed_files WHERE file_name = $1`

	pgUpsertExtracted = `
		INSERT INTO processed_files (file_name, file_type, person_identifier, start_validity, end_validity, processed, processed_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, CURRENT_TIMESTAMP)
		ON CONFLICT (file_name) DO UPDATE
		SET file_type = EXCLUDED.file_type,
			person_identifier = EXCLUDED.person_identifier,
			start_validity = EXCLUDED.start_validity,
			end_validity = EXCLUDED.end_validity,
			processed = TRUE,
			processed_at = CURRENT_TIMESTAMP`

	pgInsertSeen = `
		INSERT INTO processed_files (file_name, processed)
		VALUES ($1, FALSE)
		ON CONFLICT (file_name) DO NOTHING`

	pgSelectEntry = `
		SELECT file_name, file_type, person_identifier, start_validity, end_validity, processed, processed_at
		FROM processed_files WHERE file_name = $1`

	pgListEntries = `
		SELECT file_name, file_type, person_identifier, start_validity, end_validity, processed, processed_at
		FROM processed_files ORDER BY file_name`
)

type PostgresLedger struct {
	db     DBTX
	close  func()
	logger *slog.Logger
}

func NewPostgresLedger(db DBTX, logger *slog.Logger) *PostgresLedger {
	return &PostgresLedger{db: db, logger: loggerOrDefault(logger)}
}

// NewPoolLedger owns pool: Close closes it.
func NewPoolLedger(pool *pgxpool.Pool, logger *slog.Logger) *PostgresLedger {
	l := NewPostgresLedger(pool, logger)
	l.close = pool.Close
	return l
}

func (l *PostgresLedger) IsProcessed(ctx context.Context, fileName string) (bool, error) {
	var processed bool
	err := l.db.QueryRow(ctx, pgSelectProcessed, fileName).Scan(&processed)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		l.logger.Error("failed to check processed state", "file", fileName, "error", err)
		return false, common.KindError(common.ErrLedgerRead, "check processed "+fileName, err)
	}
	return processed, nil
}

func (l *PostgresLedger) MarkExtracted(ctx context.Context, fileName string, rec entity.ValidityRecord) error {
	return l.execTx(ctx, fileName, pgUpsertExtracted,
		fileName, rec.DocumentType, rec.PersonIdentifier, rec.StartValidity, rec.EndValidity)
}

func (l *PostgresLedger) MarkSeenUnprocessed(ctx context.Context, fileName string) error {
	return l.execTx(ctx, fileName, pgInsertSeen, fileName)
}

// execTx commits a single statement in its own transaction.
func (l *PostgresLedger) execTx(ctx context.Context, fileName, query string, args ...any) error {
	tx, err := l.db.Begin(ctx)
	if err != nil {
		l.logger.Error("ledger begin failed", "file", fileName, "error", err)
		return common.KindError(common.ErrLedgerWrite, "begin "+fileName, err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			l.logger.Warn("ledger rollback failed", "file", fileName, "error", rbErr)
		}
		l.logger.Error("ledger write failed", "file", fileName, "error", err)
		return common.KindError(common.ErrLedgerWrite, "write "+fileName, err)
	}
	if err := tx.Commit(ctx); err != nil {
		l.logger.Error("ledger commit failed", "file", fileName, "error", err)
		return common.KindError(common.ErrLedgerWrite, "commit "+fileName, err)
	}
	return nil
}

func (l *PostgresLedger) Get(ctx context.Context, fileName string) (entity.LedgerEntry, bool, error) {
	e, err := scanEntry(l.db.QueryRow(ctx, pgSelectEntry, fileName))
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.LedgerEntry{}, false, nil
	}
	if err != nil {
		return entity.LedgerEntry{}, false, common.KindError(common.ErrLedgerRead, "get "+fileName, err)
	}
	return e, true, nil
}

func (l *PostgresLedger) List(ctx context.Context) ([]entity.LedgerEntry, error) {
	rows, err := l.db.Query(ctx, pgListEntries)
	if err != nil {
		return nil, common.KindError(common.ErrLedgerRead, "list entries", err)
	}
	defer rows.Close()

	var out []entity.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, common.KindError(common.ErrLedgerRead, "scan entry", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, common.KindError(common.ErrLedgerRead, "iterate entries", err)
	}
	return out, nil
}

func (l *PostgresLedger) Close() error {
	if l.close != nil {
		l.logger.Info("closing database connections")
		l.close()
	}
	return nil
}

func scanEntry(row pgx.Row) (entity.LedgerEntry, error) {
	var (
		name               string
		fileType, personID *string
		start, end, procAt *time.Time
		processed          bool
	)
	if err := row.Scan(&name, &fileType, &personID, &start, &end, &processed, &procAt); err != nil {
		return entity.LedgerEntry{}, err
	}
	return buildEntry(name, fileType, personID, start, end, processed, procAt), nil
}

// buildEntry attaches a record only when all four attribute columns are set.
func buildEntry(name string, fileType, personID *string, start, end *time.Time, processed bool, processedAt *time.Time) entity.LedgerEntry {
	e := entity.LedgerEntry{FileName: name, Processed: processed, ProcessedAt: processedAt}
	if fileType != nil && personID != nil && start != nil && end != nil {
		e.Record = &entity.ValidityRecord{
			DocumentType:     *fileType,
			PersonIdentifier: *personID,
			StartValidity:    *start,
			EndValidity:      *end,
		}
	}
	return e
}
