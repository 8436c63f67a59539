package sqlqueue

import (
	"context"
	"database/sql"
)

// Schema describes the names of the SQL schema elements used to store dead
// letters.
//
// The names are interpolated directly into SQL statements. They must come
// from a trusted source, never from user input.
type Schema struct {
	// LetterTable is the name of the table that holds the dead letters
	// themselves. If it is empty, "dead_letter" is used.
	LetterTable string

	// ClaimTable is the name of the table that holds the sequence claims. If
	// it is empty, "dead_letter_claim" is used.
	ClaimTable string
}

// DefaultSchema is the schema used by queues that are not configured with a
// custom schema.
var DefaultSchema = Schema{
	LetterTable: "dead_letter",
	ClaimTable:  "dead_letter_claim",
}

// WithDefaults returns a copy of s with any empty name replaced by its
// default.
func (s Schema) WithDefaults() Schema {
	if s.LetterTable == "" {
		s.LetterTable = DefaultSchema.LetterTable
	}

	if s.ClaimTable == "" {
		s.ClaimTable = DefaultSchema.ClaimTable
	}

	return s
}

// CreateSchema creates the schema elements necessary to use the given
// database with the default schema names.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	d, err := selectDriver(ctx, db)
	if err != nil {
		return err
	}

	return d.CreateSchema(
		ctx,
		db,
		DefaultSchema.LetterTable,
		DefaultSchema.ClaimTable,
	)
}

// DropSchema drops the schema elements created by CreateSchema().
func DropSchema(ctx context.Context, db *sql.DB) error {
	d, err := selectDriver(ctx, db)
	if err != nil {
		return err
	}

	return d.DropSchema(
		ctx,
		db,
		DefaultSchema.LetterTable,
		DefaultSchema.ClaimTable,
	)
}
