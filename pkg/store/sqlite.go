// Package store persists symbol definitions to SQLite so tools can query
// grammars without re-analyzing them. Each save replaces a file's rows
// atomically and stamps them with a snapshot ID; stale rows are pruned by
// the retention scheduler.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"vislcg/cg3kit/pkg/cg/index"
)

// Symbol is one persisted definition row.
type Symbol struct {
	File     string    `json:"file"`
	Name     string    `json:"name"`
	Kind     string    `json:"kind"`
	Start    int       `json:"start"`
	End      int       `json:"end"`
	Line     int       `json:"line"`
	Column   int       `json:"column"`
	Snapshot string    `json:"snapshot"`
	SavedAt  time.Time `json:"saved_at"`
}

// SQLiteStore implements symbol persistence on a single SQLite file.
//
// The store uses a write-ahead log (WAL) for concurrent readers and
// periodic passive checkpoints to balance write performance with
// durability.
type SQLiteStore struct {
	db                 *sql.DB
	dbPath             string
	checkpointInterval time.Duration
	done               chan struct{}
	mu                 sync.RWMutex
	closeOnce          sync.Once

	insertStmt  *sql.Stmt
	loadStmt    *sql.Stmt
	queryStmt   *sql.Stmt
	deleteStmt  *sql.Stmt
	filesStmt   *sql.Stmt
	cleanupStmt *sql.Stmt
}

// Config configures the SQLite store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// CheckpointInterval is how often to checkpoint the WAL.
	// Default: 5 minutes
	CheckpointInterval time.Duration

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// Open creates or opens a symbol store with default settings.
func Open(dbPath string) (*SQLiteStore, error) {
	return OpenWithConfig(Config{DBPath: dbPath})
}

// OpenWithConfig creates or opens a symbol store with custom configuration.
func OpenWithConfig(cfg Config) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.CheckpointInterval == 0 {
		cfg.CheckpointInterval = 5 * time.Minute
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{
		db:                 db,
		dbPath:             cfg.DBPath,
		checkpointInterval: cfg.CheckpointInterval,
		done:               make(chan struct{}),
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	go s.checkpointLoop()

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS symbols (
		file TEXT NOT NULL,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		start_offset INTEGER NOT NULL,
		end_offset INTEGER NOT NULL,
		line INTEGER NOT NULL,
		column INTEGER NOT NULL,
		snapshot TEXT NOT NULL,
		saved_at INTEGER NOT NULL,
		PRIMARY KEY (file, name, kind, start_offset)
	);

	CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name, kind);
	CREATE INDEX IF NOT EXISTS idx_symbols_saved_at ON symbols(saved_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.insertStmt, err = s.db.Prepare(`
		INSERT INTO symbols (file, name, kind, start_offset, end_offset, line, column, snapshot, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (file, name, kind, start_offset) DO UPDATE SET
			end_offset = excluded.end_offset,
			line = excluded.line,
			column = excluded.column,
			snapshot = excluded.snapshot,
			saved_at = excluded.saved_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	s.loadStmt, err = s.db.Prepare(`
		SELECT file, name, kind, start_offset, end_offset, line, column, snapshot, saved_at
		FROM symbols
		WHERE file = ?
		ORDER BY start_offset
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare load statement: %w", err)
	}

	s.queryStmt, err = s.db.Prepare(`
		SELECT file, name, kind, start_offset, end_offset, line, column, snapshot, saved_at
		FROM symbols
		WHERE name = ? COLLATE NOCASE
		ORDER BY file, start_offset
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare query statement: %w", err)
	}

	s.deleteStmt, err = s.db.Prepare(`
		DELETE FROM symbols
		WHERE file = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}

	s.filesStmt, err = s.db.Prepare(`
		SELECT DISTINCT file FROM symbols ORDER BY file
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare files statement: %w", err)
	}

	s.cleanupStmt, err = s.db.Prepare(`
		DELETE FROM symbols
		WHERE saved_at < ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare cleanup statement: %w", err)
	}

	return nil
}

// Save replaces all symbol rows for a file with the definitions of the
// index, stamped with a fresh snapshot ID. It returns the snapshot ID.
func (s *SQLiteStore) Save(ctx context.Context, file string, ix *index.Index) (string, error) {
	if file == "" {
		return "", fmt.Errorf("file cannot be empty")
	}
	if ix == nil {
		return "", fmt.Errorf("index cannot be nil")
	}

	snapshot := uuid.New().String()
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.StmtContext(ctx, s.deleteStmt).ExecContext(ctx, file); err != nil {
		return "", fmt.Errorf("failed to clear previous rows: %w", err)
	}

	insert := tx.StmtContext(ctx, s.insertStmt)
	for _, def := range ix.All() {
		tok := def.NameToken()
		line, column := 0, 0
		if tok != nil {
			line, column = tok.Line, tok.Column
		}
		_, err := insert.ExecContext(ctx,
			file,
			def.Name,
			string(def.Kind),
			def.Start(),
			def.End(),
			line,
			column,
			snapshot,
			now.Unix(),
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert symbol %q: %w", def.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	return snapshot, nil
}

// Load returns all persisted symbols for a file in source order. A file
// with no rows yields an empty slice, not an error.
func (s *SQLiteStore) Load(ctx context.Context, file string) ([]Symbol, error) {
	if file == "" {
		return nil, fmt.Errorf("file cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.loadStmt.QueryContext(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("failed to load symbols: %w", err)
	}
	defer rows.Close()

	var syms []Symbol
	for rows.Next() {
		var (
			sym     Symbol
			savedAt int64
		)
		if err := rows.Scan(&sym.File, &sym.Name, &sym.Kind, &sym.Start, &sym.End,
			&sym.Line, &sym.Column, &sym.Snapshot, &savedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		sym.SavedAt = time.Unix(savedAt, 0)
		syms = append(syms, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return syms, nil
}

// QueryByName returns all persisted symbols with the given name, across
// files, matched case-insensitively.
func (s *SQLiteStore) QueryByName(ctx context.Context, name string) ([]Symbol, error) {
	if name == "" {
		return nil, fmt.Errorf("name cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.queryStmt.QueryContext(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var syms []Symbol
	for rows.Next() {
		var (
			sym     Symbol
			savedAt int64
		)
		if err := rows.Scan(&sym.File, &sym.Name, &sym.Kind, &sym.Start, &sym.End,
			&sym.Line, &sym.Column, &sym.Snapshot, &savedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		sym.SavedAt = time.Unix(savedAt, 0)
		syms = append(syms, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return syms, nil
}

// Delete removes all rows for a file.
func (s *SQLiteStore) Delete(ctx context.Context, file string) error {
	if file == "" {
		return fmt.Errorf("file cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.deleteStmt.ExecContext(ctx, file); err != nil {
		return fmt.Errorf("failed to delete symbols: %w", err)
	}
	return nil
}

// Files lists all files with persisted symbols.
func (s *SQLiteStore) Files(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.filesStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	defer rows.Close()

	var files []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return files, nil
}

// Cleanup removes rows not refreshed since the given time and returns the
// number of rows deleted.
func (s *SQLiteStore) Cleanup(ctx context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.cleanupStmt.ExecContext(ctx, olderThan.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(deleted), nil
}

// Close releases all resources. Close is idempotent.
func (s *SQLiteStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		close(s.done)

		for _, stmt := range []*sql.Stmt{s.insertStmt, s.loadStmt, s.queryStmt, s.deleteStmt, s.filesStmt, s.cleanupStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}

		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

// checkpointLoop runs periodic WAL checkpoints.
func (s *SQLiteStore) checkpointLoop() {
	ticker := time.NewTicker(s.checkpointInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
		case <-s.done:
			return
		}
	}
}
