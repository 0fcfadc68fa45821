package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens a PostgreSQL database using the pgx stdlib driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate runs idempotent DDL migrations for the chat schema on PostgreSQL.
func Migrate(db *sql.DB) error {
	stmts := []string{
		// Users
		`CREATE TABLE IF NOT EXISTS users (
			id               BIGSERIAL    PRIMARY KEY,
			email            VARCHAR(100) UNIQUE,
			username         VARCHAR(50)  UNIQUE NOT NULL,
			full_name        VARCHAR(100) NOT NULL DEFAULT '',
			avatar_url       TEXT         NOT NULL DEFAULT '',
			hashed_password  VARCHAR(255) NOT NULL,
			status           VARCHAR(16)  NOT NULL DEFAULT 'ACTIVE',
			created_at       TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,

		// Conversations
		`CREATE TABLE IF NOT EXISTS conversations (
			id         BIGSERIAL    PRIMARY KEY,
			is_group   BOOLEAN      NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS conversation_participants (
			conversation_id BIGINT      NOT NULL REFERENCES conversations(id),
			user_id         BIGINT      NOT NULL REFERENCES users(id),
			joined_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (conversation_id, user_id)
		)`,

		// Messages and their owned rows
		`CREATE TABLE IF NOT EXISTS messages (
			id              BIGSERIAL   PRIMARY KEY,
			conversation_id BIGINT      NOT NULL REFERENCES conversations(id),
			sender_id       BIGINT      NOT NULL REFERENCES users(id),
			content         TEXT,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS message_media (
			id         BIGSERIAL   PRIMARY KEY,
			message_id BIGINT      NOT NULL REFERENCES messages(id),
			position   INTEGER     NOT NULL,
			url        TEXT        NOT NULL,
			type       VARCHAR(16) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS message_reactions (
			id         BIGSERIAL   PRIMARY KEY,
			message_id BIGINT      NOT NULL REFERENCES messages(id),
			user_id    BIGINT      NOT NULL REFERENCES users(id),
			type       VARCHAR(16) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (message_id, user_id)
		)`,

		// Post graph
		`CREATE TABLE IF NOT EXISTS posts (
			id         BIGSERIAL   PRIMARY KEY,
			user_id    BIGINT      NOT NULL REFERENCES users(id),
			caption    TEXT        NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS post_reactions (
			id         BIGSERIAL   PRIMARY KEY,
			post_id    BIGINT      NOT NULL REFERENCES posts(id),
			user_id    BIGINT      NOT NULL REFERENCES users(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (post_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS blocked_users (
			user_id         BIGINT      NOT NULL REFERENCES users(id),
			blocked_user_id BIGINT      NOT NULL REFERENCES users(id),
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, blocked_user_id)
		)`,

		// Notifications
		`CREATE TABLE IF NOT EXISTS notifications (
			id              BIGSERIAL   PRIMARY KEY,
			message         TEXT        NOT NULL,
			is_read         BOOLEAN     NOT NULL DEFAULT FALSE,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			sender_id       BIGINT      NOT NULL REFERENCES users(id),
			receiver_id     BIGINT      NOT NULL REFERENCES users(id),
			conversation_id BIGINT      NOT NULL REFERENCES conversations(id)
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_conv_participants_user ON conversation_participants(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conv_created ON messages(conversation_id, created_at, id)`,
		`CREATE INDEX IF NOT EXISTS idx_message_media_message ON message_media(message_id, position)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_receiver ON notifications(receiver_id, created_at DESC)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w\nSQL: %s", err, stmt)
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
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// placeholders returns "$from,$from+1,..." for n arguments.
func placeholders(from, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "$" + strconv.Itoa(from+i)
	}
	return strings.Join(parts, ",")
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
