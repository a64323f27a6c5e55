package execlog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore persists execution log entries in SQLite. It uses a write-ahead
// log for concurrent read performance and is suitable for single-instance
// deployments that need history across restarts.
type SQLiteStore struct {
	db        *sql.DB
	dbPath    string
	done      chan struct{}
	mu        sync.RWMutex
	closeOnce sync.Once

	appendStmt *sql.Stmt
	statsStmt  *sql.Stmt
}

// SQLiteStoreConfig configures the SQLite execution log store.
type SQLiteStoreConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds.
	BusyTimeout time.Duration

	// CheckpointInterval is how often to checkpoint the WAL.
	// Default: 5 minutes.
	CheckpointInterval time.Duration
}

// NewSQLiteStore opens (or creates) the execution log database at dbPath with
// default settings.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteStoreConfig{DBPath: dbPath})
}

// NewSQLiteStoreWithConfig opens the execution log database with custom
// configuration.
func NewSQLiteStoreWithConfig(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.CheckpointInterval == 0 {
		cfg.CheckpointInterval = 5 * time.Minute
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.DBPath, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{
		db:     db,
		dbPath: cfg.DBPath,
		done:   make(chan struct{}),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	go store.checkpointLoop(cfg.CheckpointInterval)

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(schemaSQL)
	if err != nil {
		return err
	}

	var version int
	err = s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		_, err = s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion)
		return err
	}
	if err != nil {
		return err
	}
	if version != schemaVersion {
		return fmt.Errorf("unsupported schema version %d (expected %d)", version, schemaVersion)
	}
	return nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.appendStmt, err = s.db.Prepare(`
		INSERT INTO execution_log
			(id, rule_code, rule_name, started_at, finished_at, duration_us,
			 status, result, error, executor, environment, rule_version, rule_set_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare append statement: %w", err)
	}

	s.statsStmt, err = s.db.Prepare(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status = 'failure' THEN 1 ELSE 0 END), 0),
		       COALESCE(AVG(duration_us), 0),
		       COALESCE(MAX(duration_us), 0),
		       COALESCE(MAX(started_at), 0)
		FROM execution_log
		WHERE rule_code = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare stats statement: %w", err)
	}

	return nil
}

// Append records entries from one execution call in a single transaction.
func (s *SQLiteStore) Append(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt := tx.StmtContext(ctx, s.appendStmt)
	for _, entry := range entries {
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		_, err := stmt.ExecContext(ctx,
			entry.ID,
			entry.RuleCode,
			entry.RuleName,
			entry.StartedAt.UnixMicro(),
			entry.FinishedAt.UnixMicro(),
			entry.Duration.Microseconds(),
			string(entry.Status),
			entry.Result,
			entry.Error,
			entry.Executor,
			entry.Environment,
			entry.RuleVersion,
			int64(entry.RuleSetVersion),
		)
		if err != nil {
			return fmt.Errorf("failed to append entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit entries: %w", err)
	}
	return nil
}

// Query returns entries matching the filter, most recent first.
func (s *SQLiteStore) Query(ctx context.Context, filter Filter) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := strings.Builder{}
	query.WriteString(`
		SELECT id, rule_code, rule_name, started_at, finished_at, duration_us,
		       status, result, error, executor, environment, rule_version, rule_set_version
		FROM execution_log
	`)

	var conds []string
	var args []any
	if filter.RuleCode != "" {
		conds = append(conds, "rule_code = ?")
		args = append(args, filter.RuleCode)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if !filter.Since.IsZero() {
		conds = append(conds, "started_at >= ?")
		args = append(args, filter.Since.UnixMicro())
	}
	if !filter.Until.IsZero() {
		conds = append(conds, "started_at <= ?")
		args = append(args, filter.Until.UnixMicro())
	}
	if len(conds) > 0 {
		query.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	query.WriteString(" ORDER BY started_at DESC, id DESC")
	if filter.Limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query.WriteString(" OFFSET ?")
			args = append(args, filter.Offset)
		}
	} else if filter.Offset > 0 {
		query.WriteString(" LIMIT -1 OFFSET ?")
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry          Entry
			startedAt      int64
			finishedAt     int64
			durationMicros int64
			status         string
			ruleSetVersion int64
		)
		if err := rows.Scan(
			&entry.ID, &entry.RuleCode, &entry.RuleName,
			&startedAt, &finishedAt, &durationMicros,
			&status, &entry.Result, &entry.Error,
			&entry.Executor, &entry.Environment,
			&entry.RuleVersion, &ruleSetVersion,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		entry.StartedAt = time.UnixMicro(startedAt)
		entry.FinishedAt = time.UnixMicro(finishedAt)
		entry.Duration = time.Duration(durationMicros) * time.Microsecond
		entry.Status = Status(status)
		entry.RuleSetVersion = uint64(ruleSetVersion)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return entries, nil
}

// Stats aggregates execution history for one rule code.
func (s *SQLiteStore) Stats(ctx context.Context, ruleCode string) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		total         int
		failures      int
		avgMicros     float64
		maxMicros     int64
		lastStartedAt int64
	)
	err := s.statsStmt.QueryRowContext(ctx, ruleCode).Scan(
		&total, &failures, &avgMicros, &maxMicros, &lastStartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}

	stats := &Stats{
		RuleCode:    ruleCode,
		Total:       total,
		Failures:    failures,
		AvgDuration: time.Duration(avgMicros) * time.Microsecond,
		MaxDuration: time.Duration(maxMicros) * time.Microsecond,
	}
	if lastStartedAt > 0 {
		stats.LastExecution = time.UnixMicro(lastStartedAt)
	}
	return stats, nil
}

// Close releases database resources. Close is idempotent.
func (s *SQLiteStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		close(s.done)

		if s.appendStmt != nil {
			s.appendStmt.Close()
		}
		if s.statsStmt != nil {
			s.statsStmt.Close()
		}
		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

func (s *SQLiteStore) checkpointLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
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
