// Package sqlxrepos implements the repositories on postgres with sqlx.
package sqlxrepos

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/libdesk/core"
)

const (
	uniqueViolation           = "23505"
	invalidTextRepresentation = "22P02" // e.g. a malformed uuid
)

// constraintFields maps unique constraints to the field reported in conflicts.
var constraintFields = map[string]string{
	"founders_email_key":        "email",
	"libraries_code_key":        "code",
	"libraries_admin_email_key": "adminEmail",
	"students_mobile_key":       "mobile",
	"students_aadhar_key":       "aadhar",
	"students_roll_number_key":  "rollNumber",
}

// trapNoRowsErr maps psql "no rows" err to notFound.
// An id that is not a valid uuid cannot match a row either.
func trapNoRowsErr(err, notFound error, msg string) error {
	cause := errors.Cause(err)
	if cause == sql.ErrNoRows {
		return notFound
	}
	if pqErr, ok := cause.(*pq.Error); ok && pqErr.Code == invalidTextRepresentation {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// trapUniqueErr maps unique violations to a core.ConflictError naming the field
func trapUniqueErr(err error, msg string) error {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == uniqueViolation {
		if field, ok := constraintFields[pqErr.Constraint]; ok {
			return core.NewConflictError(field)
		}
	}
	return errors.Wrap(err, msg)
}

// checkAffected returns notFound when a write by id touched no row.
// More than one row means the primary key is gone: the app must stop writing.
func checkAffected(res sql.Result, notFound error, msg string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, msg)
	}
	switch {
	case n == 0:
		return notFound
	case n > 1:
		return core.NewShutdownError(fmt.Sprintf("%s: %d rows affected by a single-row write", msg, n))
	}
	return nil
}
