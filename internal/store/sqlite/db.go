package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"chatcore/internal/domain"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens a SQLite database with the given DSN. ":memory:" yields a private
// in-memory database pinned to a single connection. File databases run in WAL
// mode and take the write lock at BEGIN, so concurrent read-then-write
// transactions queue on busy_timeout instead of failing with SQLITE_BUSY.
func Open(dsn string) (*sql.DB, error) {
	memory := dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
	if dsn == ":memory:" {
		dsn = "file::memory:"
	}
	var params []string
	if !strings.Contains(dsn, "_pragma=") {
		params = append(params, "_pragma=foreign_keys(1)", "_pragma=busy_timeout(5000)")
		if !memory {
			params = append(params, "_pragma=journal_mode(WAL)")
		}
	}
	if !strings.Contains(dsn, "_txlock=") {
		params = append(params, "_txlock=immediate")
	}
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + strings.Join(params, "&")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if memory {
		// Every new connection to an in-memory DSN is a separate database.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return db, nil
}

// Migrate runs idempotent DDL for the chat schema.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email VARCHAR(100) UNIQUE,
			username VARCHAR(50) UNIQUE NOT NULL,
			full_name VARCHAR(100) NOT NULL DEFAULT '',
			avatar_url TEXT NOT NULL DEFAULT '',
			hashed_password VARCHAR(255) NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'ACTIVE',
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			is_group BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS conversation_participants (
			conversation_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			joined_at DATETIME NOT NULL,
			PRIMARY KEY (conversation_id, user_id),
			FOREIGN KEY (conversation_id) REFERENCES conversations(id),
			FOREIGN KEY (user_id) REFERENCES users(id)
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id INTEGER NOT NULL,
			sender_id INTEGER NOT NULL,
			content TEXT DEFAULT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (conversation_id) REFERENCES conversations(id),
			FOREIGN KEY (sender_id) REFERENCES users(id)
		);`,
		`CREATE TABLE IF NOT EXISTS message_media (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			url TEXT NOT NULL,
			type VARCHAR(16) NOT NULL,
			FOREIGN KEY (message_id) REFERENCES messages(id)
		);`,
		`CREATE TABLE IF NOT EXISTS message_reactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			message_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			type VARCHAR(16) NOT NULL,
			created_at DATETIME NOT NULL,
			UNIQUE (message_id, user_id),
			FOREIGN KEY (message_id) REFERENCES messages(id),
			FOREIGN KEY (user_id) REFERENCES users(id)
		);`,
		`CREATE TABLE IF NOT EXISTS posts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			caption TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id)
		);`,
		`CREATE TABLE IF NOT EXISTS post_reactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			post_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			UNIQUE (post_id, user_id),
			FOREIGN KEY (post_id) REFERENCES posts(id),
			FOREIGN KEY (user_id) REFERENCES users(id)
		);`,
		`CREATE TABLE IF NOT EXISTS blocked_users (
			user_id INTEGER NOT NULL,
			blocked_user_id INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (user_id, blocked_user_id),
			FOREIGN KEY (user_id) REFERENCES users(id),
			FOREIGN KEY (blocked_user_id) REFERENCES users(id)
		);`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			message TEXT NOT NULL,
			is_read BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			sender_id INTEGER NOT NULL,
			receiver_id INTEGER NOT NULL,
			conversation_id INTEGER NOT NULL,
			FOREIGN KEY (sender_id) REFERENCES users(id),
			FOREIGN KEY (receiver_id) REFERENCES users(id),
			FOREIGN KEY (conversation_id) REFERENCES conversations(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_conv_participants_user ON conversation_participants(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conv_created ON messages(conversation_id, created_at, id);`,
		`CREATE INDEX IF NOT EXISTS idx_message_media_message ON message_media(message_id, position);`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_receiver ON notifications(receiver_id, created_at DESC);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// runInTx runs fn inside a transaction unless q already is one.
func runInTx(ctx context.Context, q DBTX, fn func(DBTX) error) error {
	db, ok := q.(*sql.DB)
	if !ok {
		return fn(q)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return busyAsConflict(fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return busyAsConflict(err)
	}
	if err := tx.Commit(); err != nil {
		return busyAsConflict(fmt.Errorf("commit: %w", err))
	}
	return nil
}

// busyAsConflict marks lock contention that outlived busy_timeout as a
// retryable conflict.
func busyAsConflict(err error) error {
	if isBusy(err) && !errors.Is(err, domain.ErrConflict) {
		return fmt.Errorf("%w: %w", domain.ErrConflict, err)
	}
	return err
}

// placeholders returns "?,?,?" for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func sqliteCode(err error) (int, bool) {
	var target interface{ Code() int }
	if errors.As(err, &target) {
		return target.Code(), true
	}
	return 0, false
}

// isBusy reports SQLITE_BUSY or SQLITE_LOCKED, including extended codes.
func isBusy(err error) bool {
	code, ok := sqliteCode(err)
	return ok && (code&0xff == 5 || code&0xff == 6)
}

// isForeignKeyViolation reports SQLITE_CONSTRAINT_FOREIGNKEY.
func isForeignKeyViolation(err error) bool {
	code, ok := sqliteCode(err)
	return ok && code == 787
}

// isUniqueViolation reports whether err is a SQLite unique or primary key violation.
func isUniqueViolation(err error) bool {
	code, ok := sqliteCode(err)
	// SQLITE_CONSTRAINT_UNIQUE / SQLITE_CONSTRAINT_PRIMARYKEY
	return ok && (code == 2067 || code == 1555)
}
