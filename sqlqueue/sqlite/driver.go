// Package sqlite provides an implementation of sqlqueue.Driver for SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dogmatiq/morgue/internal/x/sqlx"
)

// Driver is an implementation of sqlqueue.Driver for SQLite.
var Driver = driver{}

type driver struct{}

// IsCompatibleWith returns nil if this driver can be used with db.
func (driver) IsCompatibleWith(ctx context.Context, db *sql.DB) error {
	// Verify that we're using SQLite and that $1-style placeholders are
	// supported.
	return db.QueryRowContext(
		ctx,
		`SELECT sqlite_version() WHERE 1 = $1`,
		1,
	).Err()
}

// Begin starts a transaction.
func (driver) Begin(ctx context.Context, db *sql.DB) (*sql.Tx, error) {
	return db.BeginTx(ctx, nil)
}

// CreateSchema creates any SQL schema elements required by the driver.
func (driver) CreateSchema(
	ctx context.Context,
	db *sql.DB,
	letterTable, claimTable string,
) (err error) {
	defer sqlx.Recover(&err)

	tx := sqlx.Begin(ctx, db)
	defer tx.Rollback() // nolint:errcheck

	sqlx.Exec(
		ctx,
		tx,
		fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (
				processing_group    TEXT NOT NULL,
				sequence_id         TEXT NOT NULL,
				idx                 BIGINT NOT NULL,
				letter_id           TEXT NOT NULL UNIQUE,
				cause_type          TEXT NOT NULL DEFAULT '',
				cause_message       TEXT NOT NULL DEFAULT '',
				enqueued_at         BIGINT NOT NULL,
				last_touched        BIGINT NOT NULL,
				diagnostics         BINARY,
				message_id          TEXT NOT NULL,
				source_app_name     TEXT NOT NULL,
				source_app_key      TEXT NOT NULL,
				source_handler_name TEXT NOT NULL,
				source_handler_key  TEXT NOT NULL,
				created_at          TEXT NOT NULL, -- RFC3339Nano
				description         TEXT NOT NULL,
				portable_name       TEXT NOT NULL,
				media_type          TEXT NOT NULL,
				data                BINARY NOT NULL,

				PRIMARY KEY (processing_group, sequence_id, idx)
			) WITHOUT ROWID`,
			letterTable,
		),
	)

	sqlx.Exec(
		ctx,
		tx,
		fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (
				processing_group TEXT NOT NULL,
				sequence_id      TEXT NOT NULL,
				acquired_at      BIGINT NOT NULL,

				PRIMARY KEY (processing_group, sequence_id)
			) WITHOUT ROWID`,
			claimTable,
		),
	)

	return tx.Commit()
}

// DropSchema removes any SQL schema elements created by CreateSchema().
func (driver) DropSchema(
	ctx context.Context,
	db *sql.DB,
	letterTable, claimTable string,
) (err error) {
	defer sqlx.Recover(&err)

	sqlx.Exec(ctx, db, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, letterTable))
	sqlx.Exec(ctx, db, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, claimTable))

	return nil
}
