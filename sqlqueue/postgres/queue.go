package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dogmatiq/morgue/deadletter"
	"github.com/dogmatiq/morgue/envelope"
	"github.com/dogmatiq/morgue/internal/x/sqlx"
	"github.com/fxamacker/cbor/v2"
)

// letterColumns is the column list shared by the letter SELECT statements.
const letterColumns = `
	sequence_id,
	letter_id,
	cause_type,
	cause_message,
	enqueued_at,
	last_touched,
	diagnostics,
	message_id,
	source_app_name,
	source_app_key,
	source_handler_name,
	source_handler_key,
	created_at,
	description,
	portable_name,
	media_type,
	data`

// InsertLetter inserts a dead letter at the tail of its sequence.
func (driver) InsertLetter(
	ctx context.Context,
	tx *sql.Tx,
	table, group string,
	l deadletter.Letter,
) (err error) {
	defer sqlx.Recover(&err)

	ct, cm := causeColumns(l)

	sqlx.Exec(
		ctx,
		tx,
		fmt.Sprintf(
			`INSERT INTO %s (
				processing_group,
				sequence_id,
				idx,
				letter_id,
				cause_type,
				cause_message,
				enqueued_at,
				last_touched,
				diagnostics,
				message_id,
				source_app_name,
				source_app_key,
				source_handler_name,
				source_handler_key,
				created_at,
				description,
				portable_name,
				media_type,
				data
			) SELECT
				$1, $2, COALESCE(MAX(idx) + 1, 0), $3,
				$4, $5, $6, $7, $8,
				$9, $10, $11, $12, $13, $14, $15, $16, $17, $18
			FROM %s
			WHERE processing_group = $1
			AND sequence_id = $2`,
			table,
			table,
		),
		group,
		l.SequenceID,
		l.ID,
		ct,
		cm,
		l.EnqueuedAt.UnixNano(),
		l.LastTouched.UnixNano(),
		marshalDiagnostics(l.Diagnostics),
		l.Envelope.MessageID,
		l.Envelope.Source.Application.Name,
		l.Envelope.Source.Application.Key,
		l.Envelope.Source.Handler.Name,
		l.Envelope.Source.Handler.Key,
		sqlx.MarshalTime(l.Envelope.CreatedAt),
		l.Envelope.Description,
		l.Envelope.PortableName,
		l.Envelope.Packet.MediaType,
		l.Envelope.Packet.Data,
	)

	return nil
}

// UpdateLetter updates the cause, diagnostics and last-touched time of a
// letter that is already stored.
//
// It returns false if the letter does not exist.
func (driver) UpdateLetter(
	ctx context.Context,
	tx *sql.Tx,
	table, group string,
	l deadletter.Letter,
) (_ bool, err error) {
	defer sqlx.Recover(&err)

	ct, cm := causeColumns(l)

	return sqlx.TryExecRow(
		ctx,
		tx,
		fmt.Sprintf(
			`UPDATE %s SET
				cause_type = $1,
				cause_message = $2,
				last_touched = $3,
				diagnostics = $4
			WHERE processing_group = $5
			AND letter_id = $6`,
			table,
		),
		ct,
		cm,
		l.LastTouched.UnixNano(),
		marshalDiagnostics(l.Diagnostics),
		group,
		l.ID,
	), nil
}

// DeleteLetter deletes a letter by its ID.
//
// It returns false if the letter does not exist.
func (driver) DeleteLetter(
	ctx context.Context,
	tx *sql.Tx,
	table, group, id string,
) (_ bool, err error) {
	defer sqlx.Recover(&err)

	return sqlx.TryExecRow(
		ctx,
		tx,
		fmt.Sprintf(
			`DELETE FROM %s
			WHERE processing_group = $1
			AND letter_id = $2`,
			table,
		),
		group,
		id,
	), nil
}

// SelectLetter selects a letter by its ID.
func (driver) SelectLetter(
	ctx context.Context,
	tx *sql.Tx,
	table, group, id string,
) (deadletter.Letter, bool, error) {
	row := tx.QueryRowContext(
		ctx,
		fmt.Sprintf(
			`SELECT %s FROM %s
			WHERE processing_group = $1
			AND letter_id = $2`,
			letterColumns,
			table,
		),
		group,
		id,
	)

	return scanLetter(row)
}

// SelectHead selects the first letter of a sequence.
func (driver) SelectHead(
	ctx context.Context,
	tx *sql.Tx,
	table, group, sid string,
) (deadletter.Letter, bool, error) {
	row := tx.QueryRowContext(
		ctx,
		fmt.Sprintf(
			`SELECT %s FROM %s
			WHERE processing_group = $1
			AND sequence_id = $2
			ORDER BY idx
			LIMIT 1`,
			letterColumns,
			table,
		),
		group,
		sid,
	)

	return scanLetter(row)
}

// SelectLetters selects all of the letters of a sequence, in insertion order.
func (driver) SelectLetters(
	ctx context.Context,
	tx *sql.Tx,
	table, group, sid string,
) (_ []deadletter.Letter, err error) {
	defer sqlx.Recover(&err)

	rows := sqlx.Query(
		ctx,
		tx,
		fmt.Sprintf(
			`SELECT %s FROM %s
			WHERE processing_group = $1
			AND sequence_id = $2
			ORDER BY idx`,
			letterColumns,
			table,
		),
		group,
		sid,
	)
	defer rows.Close()

	var letters []deadletter.Letter

	for rows.Next() {
		l, _, err := scanLetter(rows)
		sqlx.Must(err)

		letters = append(letters, l)
	}

	return letters, rows.Err()
}

// SelectSequenceIDs selects the IDs of all sequences in a processing group,
// ordered oldest-first by the last-touched time of each sequence's head
// letter.
func (driver) SelectSequenceIDs(
	ctx context.Context,
	tx *sql.Tx,
	table, group string,
) (_ []string, err error) {
	defer sqlx.Recover(&err)

	rows := sqlx.Query(
		ctx,
		tx,
		fmt.Sprintf(
			`SELECT q.sequence_id
			FROM %s AS q
			WHERE q.processing_group = $1
			AND q.idx = (
				SELECT MIN(x.idx) FROM %s AS x
				WHERE x.processing_group = q.processing_group
				AND x.sequence_id = q.sequence_id
			)
			ORDER BY q.last_touched, q.sequence_id`,
			table,
			table,
		),
		group,
	)
	defer rows.Close()

	var ids []string

	for rows.Next() {
		var sid string
		sqlx.Must(rows.Scan(&sid))

		ids = append(ids, sid)
	}

	return ids, rows.Err()
}

// CountSequences returns the number of distinct sequences in a processing
// group.
func (driver) CountSequences(
	ctx context.Context,
	tx *sql.Tx,
	table, group string,
) (_ int, err error) {
	defer sqlx.Recover(&err)

	return int(sqlx.QueryInt64(
		ctx,
		tx,
		fmt.Sprintf(
			`SELECT COUNT(DISTINCT sequence_id) FROM %s
			WHERE processing_group = $1`,
			table,
		),
		group,
	)), nil
}

// CountLetters returns the number of letters in a sequence.
func (driver) CountLetters(
	ctx context.Context,
	tx *sql.Tx,
	table, group, sid string,
) (_ int, err error) {
	defer sqlx.Recover(&err)

	return int(sqlx.QueryInt64(
		ctx,
		tx,
		fmt.Sprintf(
			`SELECT COUNT(*) FROM %s
			WHERE processing_group = $1
			AND sequence_id = $2`,
			table,
		),
		group,
		sid,
	)), nil
}

// DeleteLetters deletes all of the letters in a processing group.
func (driver) DeleteLetters(
	ctx context.Context,
	tx *sql.Tx,
	table, group string,
) (err error) {
	defer sqlx.Recover(&err)

	sqlx.Exec(
		ctx,
		tx,
		fmt.Sprintf(
			`DELETE FROM %s
			WHERE processing_group = $1`,
			table,
		),
		group,
	)

	return nil
}

// AcquireClaim attempts to acquire the claim on a sequence.
//
// It returns false if the sequence is already claimed.
func (driver) AcquireClaim(
	ctx context.Context,
	db *sql.DB,
	table, group, sid string,
	at time.Time,
) (_ bool, err error) {
	defer sqlx.Recover(&err)

	return sqlx.TryExecRow(
		ctx,
		db,
		fmt.Sprintf(
			`INSERT INTO %s (
				processing_group,
				sequence_id,
				acquired_at
			) VALUES (
				$1, $2, $3
			) ON CONFLICT (processing_group, sequence_id) DO NOTHING`,
			table,
		),
		group,
		sid,
		at.UnixNano(),
	), nil
}

// ReleaseClaim releases the claim on a sequence.
func (driver) ReleaseClaim(
	ctx context.Context,
	db *sql.DB,
	table, group, sid string,
) (err error) {
	defer sqlx.Recover(&err)

	sqlx.Exec(
		ctx,
		db,
		fmt.Sprintf(
			`DELETE FROM %s
			WHERE processing_group = $1
			AND sequence_id = $2`,
			table,
		),
		group,
		sid,
	)

	return nil
}

// ReleaseAllClaims releases every claim held against a processing group.
func (driver) ReleaseAllClaims(
	ctx context.Context,
	db *sql.DB,
	table, group string,
) (err error) {
	defer sqlx.Recover(&err)

	sqlx.Exec(
		ctx,
		db,
		fmt.Sprintf(
			`DELETE FROM %s
			WHERE processing_group = $1`,
			table,
		),
		group,
	)

	return nil
}

// scanLetter scans a letter from a row produced by one of the letter SELECT
// statements.
func scanLetter(row sqlx.Scanner) (deadletter.Letter, bool, error) {
	var (
		l           deadletter.Letter
		causeType   string
		causeMsg    string
		enqueuedAt  int64
		lastTouched int64
		diagnostics []byte
		createdAt   []byte
	)

	l.Envelope = &envelope.Envelope{}

	err := row.Scan(
		&l.SequenceID,
		&l.ID,
		&causeType,
		&causeMsg,
		&enqueuedAt,
		&lastTouched,
		&diagnostics,
		&l.Envelope.MessageID,
		&l.Envelope.Source.Application.Name,
		&l.Envelope.Source.Application.Key,
		&l.Envelope.Source.Handler.Name,
		&l.Envelope.Source.Handler.Key,
		&createdAt,
		&l.Envelope.Description,
		&l.Envelope.PortableName,
		&l.Envelope.Packet.MediaType,
		&l.Envelope.Packet.Data,
	)
	if err == sql.ErrNoRows {
		return deadletter.Letter{}, false, nil
	}
	if err != nil {
		return deadletter.Letter{}, false, err
	}

	if causeType != "" {
		l.Cause = &deadletter.Cause{
			Type:    causeType,
			Message: causeMsg,
		}
	}

	l.EnqueuedAt = time.Unix(0, enqueuedAt)
	l.LastTouched = time.Unix(0, lastTouched)
	l.Diagnostics = unmarshalDiagnostics(diagnostics)
	l.Envelope.CreatedAt = sqlx.UnmarshalTime(createdAt)

	return l, true, nil
}

// causeColumns returns the values of the cause columns for l.
//
// A letter without a cause is stored with empty strings in both columns.
func causeColumns(l deadletter.Letter) (string, string) {
	if l.Cause == nil {
		return "", ""
	}

	return l.Cause.Type, l.Cause.Message
}

// marshalDiagnostics marshals a letter's diagnostics to their storage
// representation.
func marshalDiagnostics(d deadletter.Diagnostics) []byte {
	if len(d) == 0 {
		return nil
	}

	data, err := cbor.Marshal(d)
	sqlx.Must(err)

	return data
}

// unmarshalDiagnostics unmarshals a letter's diagnostics from their storage
// representation.
func unmarshalDiagnostics(data []byte) deadletter.Diagnostics {
	if len(data) == 0 {
		return nil
	}

	var d deadletter.Diagnostics
	sqlx.Must(cbor.Unmarshal(data, &d))

	return d
}
