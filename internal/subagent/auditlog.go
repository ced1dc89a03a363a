package subagent

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteAuditLog is a write-only sink of terminal job transitions: SQLite
// via database/sql, WAL mode, a migrate() bootstrapping CREATE TABLE IF
// NOT EXISTS. It is never read by any operation in this package; it
// exists purely for offline operational review.
type SQLiteAuditLog struct {
	db *sql.DB
}

// NewSQLiteAuditLog opens (creating if needed) the audit database at
// dbPath.
func NewSQLiteAuditLog(dbPath string) (*SQLiteAuditLog, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create audit db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	log := &SQLiteAuditLog{db: db}
	if err := log.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate audit db: %w", err)
	}
	return log, nil
}

func (a *SQLiteAuditLog) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS job_terminations (
		job_id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		exit_code INTEGER,
		exit_signal INTEGER,
		model TEXT,
		sandbox TEXT,
		prompt_digest TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_job_terminations_status ON job_terminations(status);
	`
	_, err := a.db.Exec(schema)
	return err
}

// Close closes the underlying database connection.
func (a *SQLiteAuditLog) Close() error {
	return a.db.Close()
}

// RecordTermination appends one row for a terminal job transition.
func (a *SQLiteAuditLog) RecordTermination(ctx context.Context, rec TerminationRecord) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO job_terminations
			(job_id, status, started_at, finished_at, exit_code, exit_signal, model, sandbox, prompt_digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			status=excluded.status, finished_at=excluded.finished_at,
			exit_code=excluded.exit_code, exit_signal=excluded.exit_signal`,
		rec.JobID, string(rec.Status), rec.StartedAt, rec.FinishedAt,
		nullableInt(rec.ExitCode), nullableInt(rec.ExitSignal),
		rec.Model, rec.Sandbox, rec.PromptDigest,
	)
	if err != nil {
		return fmt.Errorf("insert job termination: %w", err)
	}
	return nil
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

// DigestPrompt hashes a prompt for audit storage; the prompt itself is
// never written to the audit database.
func DigestPrompt(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}
