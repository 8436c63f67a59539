package sqlqueue

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dogmatiq/morgue/deadletter"
	"github.com/dogmatiq/morgue/sqlqueue/mysql"
	"github.com/dogmatiq/morgue/sqlqueue/postgres"
	"github.com/dogmatiq/morgue/sqlqueue/sqlite"
	"go.uber.org/multierr"
)

// Driver is used to interface with the underlying SQL database.
//
// Table names are passed as strings rather than as a Schema so that driver
// implementations do not need to depend on this package.
type Driver interface {
	// IsCompatibleWith returns nil if this driver can be used with db.
	IsCompatibleWith(ctx context.Context, db *sql.DB) error

	// Begin starts a transaction.
	Begin(ctx context.Context, db *sql.DB) (*sql.Tx, error)

	// CreateSchema creates any SQL schema elements required by the driver.
	CreateSchema(ctx context.Context, db *sql.DB, letterTable, claimTable string) error

	// DropSchema removes any SQL schema elements created by CreateSchema().
	DropSchema(ctx context.Context, db *sql.DB, letterTable, claimTable string) error

	// InsertLetter inserts a dead letter at the tail of its sequence.
	InsertLetter(ctx context.Context, tx *sql.Tx, table, group string, l deadletter.Letter) error

	// UpdateLetter updates the cause, diagnostics and last-touched time of a
	// letter that is already stored.
	//
	// It returns false if the letter does not exist.
	UpdateLetter(ctx context.Context, tx *sql.Tx, table, group string, l deadletter.Letter) (bool, error)

	// DeleteLetter deletes a letter by its ID.
	//
	// It returns false if the letter does not exist.
	DeleteLetter(ctx context.Context, tx *sql.Tx, table, group, id string) (bool, error)

	// SelectLetter selects a letter by its ID.
	SelectLetter(ctx context.Context, tx *sql.Tx, table, group, id string) (deadletter.Letter, bool, error)

	// SelectHead selects the first letter of a sequence.
	SelectHead(ctx context.Context, tx *sql.Tx, table, group, sid string) (deadletter.Letter, bool, error)

	// SelectLetters selects all of the letters of a sequence, in insertion
	// order.
	SelectLetters(ctx context.Context, tx *sql.Tx, table, group, sid string) ([]deadletter.Letter, error)

	// SelectSequenceIDs selects the IDs of all sequences in a processing
	// group, ordered oldest-first by the last-touched time of each sequence's
	// head letter.
	SelectSequenceIDs(ctx context.Context, tx *sql.Tx, table, group string) ([]string, error)

	// CountSequences returns the number of distinct sequences in a processing
	// group.
	CountSequences(ctx context.Context, tx *sql.Tx, table, group string) (int, error)

	// CountLetters returns the number of letters in a sequence.
	CountLetters(ctx context.Context, tx *sql.Tx, table, group, sid string) (int, error)

	// DeleteLetters deletes all of the letters in a processing group.
	DeleteLetters(ctx context.Context, tx *sql.Tx, table, group string) error

	// AcquireClaim attempts to acquire the claim on a sequence.
	//
	// It returns false if the sequence is already claimed.
	AcquireClaim(ctx context.Context, db *sql.DB, table, group, sid string, at time.Time) (bool, error)

	// ReleaseClaim releases the claim on a sequence.
	ReleaseClaim(ctx context.Context, db *sql.DB, table, group, sid string) error

	// ReleaseAllClaims releases every claim held against a processing group.
	ReleaseAllClaims(ctx context.Context, db *sql.DB, table, group string) error
}

// builtInDrivers is a list of the built-in drivers.
var builtInDrivers = []Driver{
	mysql.Driver,
	postgres.Driver,
	sqlite.Driver,
}

// selectDriver returns the appropriate driver implementation to use with the
// given database from the list of built-in drivers.
func selectDriver(ctx context.Context, db *sql.DB) (Driver, error) {
	var err error

	for _, d := range builtInDrivers {
		e := d.IsCompatibleWith(ctx, db)
		if e == nil {
			return d, nil
		}

		err = multierr.Append(err, fmt.Errorf(
			"%T is not compatible with %T: %w",
			d,
			db.Driver(),
			e,
		))
	}

	return nil, multierr.Append(err, fmt.Errorf(
		"can not deduce the appropriate SQL driver for %T",
		db.Driver(),
	))
}
