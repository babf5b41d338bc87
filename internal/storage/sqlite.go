package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Run operations

func createRun(ctx context.Context, q querier, run *Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	query := `
		INSERT INTO runs (id, kind, root_path, files_scanned, files_failed, block_count, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		run.ID.String(), string(run.Kind), run.RootPath,
		run.FilesScanned, run.FilesFailed, run.BlockCount, run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

func finishRun(ctx context.Context, q querier, run *Run) error {
	query := `
		UPDATE runs
		SET files_scanned = ?, files_failed = ?, block_count = ?, finished_at = ?
		WHERE id = ?
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		run.FilesScanned, run.FilesFailed, run.BlockCount, now, run.ID.String())
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	run.FinishedAt = now
	return nil
}

const runColumns = `id, kind, root_path, files_scanned, files_failed, block_count, started_at, finished_at`

func scanRun(row interface{ Scan(...interface{}) error }) (*Run, error) {
	var run Run
	var id, kind string
	var finishedAt sql.NullTime
	err := row.Scan(&id, &kind, &run.RootPath, &run.FilesScanned, &run.FilesFailed,
		&run.BlockCount, &run.StartedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if run.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", id, err)
	}
	run.Kind = RunKind(kind)
	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}
	return &run, nil
}

func getRun(ctx context.Context, q querier, id uuid.UUID) (*Run, error) {
	row := q.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id.String())
	return scanRun(row)
}

func latestRun(ctx context.Context, q querier, kind RunKind) (*Run, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE kind = ? ORDER BY started_at DESC, rowid DESC LIMIT 1`,
		string(kind))
	return scanRun(row)
}

// Block operations

func insertBlock(ctx context.Context, q querier, block *Block) error {
	query := `
		INSERT INTO blocks (run_id, block_id, content, content_hash, line_count,
		                    file_path, start_line, end_line, content_start, content_end)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	err := q.QueryRowContext(ctx, query,
		block.RunID.String(), block.BlockID, block.Content, block.ContentHash[:], block.LineCount,
		block.FilePath, block.StartLine, block.EndLine, block.ContentStart, block.ContentEnd).Scan(&block.ID)
	if err != nil {
		return fmt.Errorf("failed to insert block %q: %w", block.BlockID, err)
	}
	return nil
}

const blockColumns = `id, run_id, block_id, content, content_hash, line_count,
	file_path, start_line, end_line, content_start, content_end`

func scanBlock(row interface{ Scan(...interface{}) error }) (*Block, error) {
	var block Block
	var runID string
	var hash []byte
	err := row.Scan(&block.ID, &runID, &block.BlockID, &block.Content, &hash, &block.LineCount,
		&block.FilePath, &block.StartLine, &block.EndLine, &block.ContentStart, &block.ContentEnd)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if block.RunID, err = uuid.Parse(runID); err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", runID, err)
	}
	copy(block.ContentHash[:], hash)
	return &block, nil
}

func getBlock(ctx context.Context, q querier, runID uuid.UUID, blockID string) (*Block, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+blockColumns+` FROM blocks WHERE run_id = ? AND block_id = ?`,
		runID.String(), blockID)
	return scanBlock(row)
}

func listBlocks(ctx context.Context, q querier, runID uuid.UUID) ([]*Block, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+blockColumns+` FROM blocks WHERE run_id = ? ORDER BY block_id`,
		runID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list blocks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var blocks []*Block
	for rows.Next() {
		block, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	return blocks, rows.Err()
}

// Failure and outcome operations

func insertFileError(ctx context.Context, q querier, fe *FileError) error {
	err := q.QueryRowContext(ctx,
		`INSERT INTO file_errors (run_id, file_path, message) VALUES (?, ?, ?) RETURNING id`,
		fe.RunID.String(), fe.FilePath, fe.Message).Scan(&fe.ID)
	if err != nil {
		return fmt.Errorf("failed to insert file error: %w", err)
	}
	return nil
}

func listFileErrors(ctx context.Context, q querier, runID uuid.UUID) ([]*FileError, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, file_path, message FROM file_errors WHERE run_id = ? ORDER BY file_path, id`,
		runID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list file errors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*FileError
	for rows.Next() {
		fe := &FileError{RunID: runID}
		if err := rows.Scan(&fe.ID, &fe.FilePath, &fe.Message); err != nil {
			return nil, err
		}
		out = append(out, fe)
	}
	return out, rows.Err()
}

func insertOutcome(ctx context.Context, q querier, o *Outcome) error {
	err := q.QueryRowContext(ctx,
		`INSERT INTO outcomes (run_id, file_path, region_id, line, status) VALUES (?, ?, ?, ?, ?) RETURNING id`,
		o.RunID.String(), o.FilePath, o.RegionID, o.Line, o.Status).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("failed to insert outcome: %w", err)
	}
	return nil
}

func listOutcomes(ctx context.Context, q querier, runID uuid.UUID) ([]*Outcome, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, file_path, region_id, line, status FROM outcomes WHERE run_id = ? ORDER BY file_path, line`,
		runID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list outcomes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*Outcome
	for rows.Next() {
		o := &Outcome{RunID: runID}
		if err := rows.Scan(&o.ID, &o.FilePath, &o.RegionID, &o.Line, &o.Status); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Storage methods on the database

func (s *SQLiteStorage) CreateRun(ctx context.Context, run *Run) error {
	return createRun(ctx, s.db, run)
}

func (s *SQLiteStorage) FinishRun(ctx context.Context, run *Run) error {
	return finishRun(ctx, s.db, run)
}

func (s *SQLiteStorage) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	return getRun(ctx, s.db, id)
}

func (s *SQLiteStorage) LatestRun(ctx context.Context, kind RunKind) (*Run, error) {
	return latestRun(ctx, s.db, kind)
}

func (s *SQLiteStorage) InsertBlock(ctx context.Context, block *Block) error {
	return insertBlock(ctx, s.db, block)
}

func (s *SQLiteStorage) GetBlock(ctx context.Context, runID uuid.UUID, blockID string) (*Block, error) {
	return getBlock(ctx, s.db, runID, blockID)
}

func (s *SQLiteStorage) ListBlocks(ctx context.Context, runID uuid.UUID) ([]*Block, error) {
	return listBlocks(ctx, s.db, runID)
}

func (s *SQLiteStorage) InsertFileError(ctx context.Context, fe *FileError) error {
	return insertFileError(ctx, s.db, fe)
}

func (s *SQLiteStorage) ListFileErrors(ctx context.Context, runID uuid.UUID) ([]*FileError, error) {
	return listFileErrors(ctx, s.db, runID)
}

func (s *SQLiteStorage) InsertOutcome(ctx context.Context, o *Outcome) error {
	return insertOutcome(ctx, s.db, o)
}

func (s *SQLiteStorage) ListOutcomes(ctx context.Context, runID uuid.UUID) ([]*Outcome, error) {
	return listOutcomes(ctx, s.db, runID)
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTx) Close() error {
	return errors.New("cannot close database from within transaction")
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	return nil, errors.New("nested transactions not supported")
}

func (t *sqliteTx) CreateRun(ctx context.Context, run *Run) error {
	return createRun(ctx, t.tx, run)
}

func (t *sqliteTx) FinishRun(ctx context.Context, run *Run) error {
	return finishRun(ctx, t.tx, run)
}

func (t *sqliteTx) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	return getRun(ctx, t.tx, id)
}

func (t *sqliteTx) LatestRun(ctx context.Context, kind RunKind) (*Run, error) {
	return latestRun(ctx, t.tx, kind)
}

func (t *sqliteTx) InsertBlock(ctx context.Context, block *Block) error {
	return insertBlock(ctx, t.tx, block)
}

func (t *sqliteTx) GetBlock(ctx context.Context, runID uuid.UUID, blockID string) (*Block, error) {
	return getBlock(ctx, t.tx, runID, blockID)
}

func (t *sqliteTx) ListBlocks(ctx context.Context, runID uuid.UUID) ([]*Block, error) {
	return listBlocks(ctx, t.tx, runID)
}

func (t *sqliteTx) InsertFileError(ctx context.Context, fe *FileError) error {
	return insertFileError(ctx, t.tx, fe)
}

func (t *sqliteTx) ListFileErrors(ctx context.Context, runID uuid.UUID) ([]*FileError, error) {
	return listFileErrors(ctx, t.tx, runID)
}

func (t *sqliteTx) InsertOutcome(ctx context.Context, o *Outcome) error {
	return insertOutcome(ctx, t.tx, o)
}

func (t *sqliteTx) ListOutcomes(ctx context.Context, runID uuid.UUID) ([]*Outcome, error) {
	return listOutcomes(ctx, t.tx, runID)
}
