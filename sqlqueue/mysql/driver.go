// Package mysql provides an implementation of sqlqueue.Driver for MySQL and
// compatible databases such as MariaDB.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dogmatiq/morgue/internal/x/sqlx"
)

// Driver is an implementation of sqlqueue.Driver for MySQL.
var Driver = driver{}

type driver struct{}

// IsCompatibleWith returns nil if this driver can be used with db.
func (driver) IsCompatibleWith(ctx context.Context, db *sql.DB) error {
	// Verify that ?-style placeholders are supported.
	err := db.QueryRowContext(
		ctx,
		`SELECT ?`,
		1,
	).Err()

	if err != nil {
		return err
	}

	// Verify that we're using something compatible with MySQL (because the
	// SHOW VARIABLES syntax is supported) and that InnoDB is available.
	return db.QueryRowContext(
		ctx,
		`SHOW VARIABLES LIKE "innodb_page_size"`,
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

	// Key columns are limited to VARCHAR(191) so that composite indexes
	// remain within InnoDB's key-length limit under utf8mb4.
	sqlx.Exec(
		ctx,
		db,
		fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (
				processing_group    VARCHAR(191) NOT NULL,
				sequence_id         VARCHAR(191) NOT NULL,
				idx                 BIGINT NOT NULL,
				letter_id           VARCHAR(191) NOT NULL UNIQUE,
				cause_type          VARCHAR(255) NOT NULL DEFAULT '',
				cause_message       TEXT NOT NULL,
				enqueued_at         BIGINT NOT NULL,
				last_touched        BIGINT NOT NULL,
				diagnostics         LONGBLOB,
				message_id          VARCHAR(191) NOT NULL,
				source_app_name     VARCHAR(255) NOT NULL,
				source_app_key      VARCHAR(255) NOT NULL,
				source_handler_name VARCHAR(255) NOT NULL,
				source_handler_key  VARCHAR(255) NOT NULL,
				created_at          VARCHAR(64) NOT NULL, -- RFC3339Nano
				description         TEXT NOT NULL,
				portable_name       VARCHAR(255) NOT NULL,
				media_type          VARCHAR(255) NOT NULL,
				data                LONGBLOB NOT NULL,

				PRIMARY KEY (processing_group, sequence_id, idx)
			) ENGINE=InnoDB`,
			letterTable,
		),
	)

	sqlx.Exec(
		ctx,
		db,
		fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (
				processing_group VARCHAR(191) NOT NULL,
				sequence_id      VARCHAR(191) NOT NULL,
				acquired_at      BIGINT NOT NULL,

				PRIMARY KEY (processing_group, sequence_id)
			) ENGINE=InnoDB`,
			claimTable,
		),
	)

	return nil
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
