package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/qrdoc-tracker/internal/common"
	"github.com/joseph-ayodele/qrdoc-tracker/internal/entity"
)

const sqliteTimestampLayout = "2006-01-02 15:04:05"

const (
	sqliteSelectProcessed = `SELECT processed FROM processed_files WHERE file_name = ?`

	sqliteUpsertExtracted = `
		INSERT INTO processed_files (file_name, file_type, person_identifier, start_validity, end_validity, processed, processed_at)
		VALUES (?, ?, ?, ?, ?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT (file_name) DO UPDATE
		SET file_type = excluded.file_type,
			person_identifier = excluded.person_identifier,
			start_validity = excluded.start_validity,
			end_validity = excluded.end_validity,
			processed = 1,
			processed_at = CURRENT_TIMESTAMP`

	sqliteInsertSeen = `
		INSERT INTO processed_files (file_name, processed)
		VALUES (?, 0)
		ON CONFLICT (file_name) DO NOTHING`

	sqliteSelectEntry = `
		SELECT file_name, file_type, person_identifier, start_validity, end_validity, processed, processed_at
		FROM processed_files WHERE file_name = ?`

	sqliteListEntries = `
		SELECT file_name, file_type, person_identifier, start_validity, end_validity, processed, processed_at
		FROM processed_files ORDER BY file_name`
)

// SQLiteLedger is the ledger over database/sql + modernc sqlite, used for --inmem and local runs.
type SQLiteLedger struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteLedger(db *sql.DB, logger *slog.Logger) *SQLiteLedger {
	return &SQLiteLedger{db: db, logger: loggerOrDefault(logger)}
}

func (l *SQLiteLedger) IsProcessed(ctx context.Context, fileName string) (bool, error) {
	var processed bool
	err := l.db.QueryRowContext(ctx, sqliteSelectProcessed, fileName).Scan(&processed)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		l.logger.Error("failed to check processed state", "file", fileName, "error", err)
		return false, common.KindError(common.ErrLedgerRead, "check processed "+fileName, err)
	}
	return processed, nil
}

func (l *SQLiteLedger) MarkExtracted(ctx context.Context, fileName string, rec entity.ValidityRecord) error {
	return l.execTx(ctx, fileName, sqliteUpsertExtracted,
		fileName, rec.DocumentType, rec.PersonIdentifier,
		rec.StartValidity.Format(entity.DateLayout), rec.EndValidity.Format(entity.DateLayout))
}

func (l *SQLiteLedger) MarkSeenUnprocessed(ctx context.Context, fileName string) error {
	return l.execTx(ctx, fileName, sqliteInsertSeen, fileName)
}

func (l *SQLiteLedger) execTx(ctx context.Context, fileName, query string, args ...any) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		l.logger.Error("ledger begin failed", "file", fileName, "error", err)
		return common.KindError(common.ErrLedgerWrite, "begin "+fileName, err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			l.logger.Warn("ledger rollback failed", "file", fileName, "error", rbErr)
		}
		l.logger.Error("ledger write failed", "file", fileName, "error", err)
		return common.KindError(common.ErrLedgerWrite, "write "+fileName, err)
	}
	if err := tx.Commit(); err != nil {
		l.logger.Error("ledger commit failed", "file", fileName, "error", err)
		return common.KindError(common.ErrLedgerWrite, "commit "+fileName, err)
	}
	return nil
}

func (l *SQLiteLedger) Get(ctx context.Context, fileName string) (entity.LedgerEntry, bool, error) {
	e, err := scanSQLiteEntry(l.db.QueryRowContext(ctx, sqliteSelectEntry, fileName))
	if errors.Is(err, sql.ErrNoRows) {
		return entity.LedgerEntry{}, false, nil
	}
	if err != nil {
		return entity.LedgerEntry{}, false, common.KindError(common.ErrLedgerRead, "get "+fileName, err)
	}
	return e, true, nil
}

func (l *SQLiteLedger) List(ctx context.Context) ([]entity.LedgerEntry, error) {
	rows, err := l.db.QueryContext(ctx, sqliteListEntries)
	if err != nil {
		return nil, common.KindError(common.ErrLedgerRead, "list entries", err)
	}
	defer rows.Close()

	var out []entity.LedgerEntry
	for rows.Next() {
		e, err := scanSQLiteEntry(rows)
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

func (l *SQLiteLedger) Close() error {
	l.logger.Info("closing sqlite ledger")
	return l.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteEntry(row rowScanner) (entity.LedgerEntry, error) {
	var (
		name                    string
		fileType, personID      sql.NullString
		start, end, processedAt sql.NullString
		processed               bool
	)
	if err := row.Scan(&name, &fileType, &personID, &start, &end, &processed, &processedAt); err != nil {
		return entity.LedgerEntry{}, err
	}

	startT, err := parseNullable(start, entity.DateLayout)
	if err != nil {
		return entity.LedgerEntry{}, err
	}
	endT, err := parseNullable(end, entity.DateLayout)
	if err != nil {
		return entity.LedgerEntry{}, err
	}
	procT, err := parseNullable(processedAt, sqliteTimestampLayout)
	if err != nil {
		return entity.LedgerEntry{}, err
	}
	return buildEntry(name, nullString(fileType), nullString(personID), startT, endT, processed, procT), nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

func parseNullable(s sql.NullString, layout string) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := time.Parse(layout, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
