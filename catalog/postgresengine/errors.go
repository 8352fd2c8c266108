package postgresengine

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/AntonStoeckl/tour-catalog-go/catalog"
)

const (
	sqlStateUniqueViolation    = "23505"
	sqlStateInvalidText        = "22P02"
	sqlStateInvalidDatetime    = "22007"
	sqlStateUndefinedColumn    = "42703"
	sqlStateUndefinedFunction  = "42883"
	sqlStateDatatypeMismatch   = "42804"
	nameConstraintSuffix       = "_name_key"
	reasonRejectedByPostgreSQL = "rejected by PostgreSQL: "
)

// sqlState extracts the SQLSTATE code and the violated constraint from pgx or lib/pq errors.
func sqlState(err error) (code, constraint string, ok bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code, pgErr.ConstraintName, true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code), pqErr.Constraint, true
	}

	return "", "", false
}

// mapWriteError reports unique violations as *catalog.UniquenessConflict and wraps everything else.
func mapWriteError(err error, tour catalog.Tour, sentinel error) error {
	code, constraint, ok := sqlState(err)
	if ok && code == sqlStateUniqueViolation {
		if strings.HasSuffix(constraint, nameConstraintSuffix) {
			return &catalog.UniquenessConflict{Field: catalog.FieldName, Value: tour.Name, Err: err}
		}

		return &catalog.UniquenessConflict{Field: catalog.FieldID, Value: tour.ID, Err: err}
	}

	return errors.Join(sentinel, err)
}

// mapReadError reports values PostgreSQL could not compare or cast as *catalog.QueryParseError.
func mapReadError(err error, sentinel error) error {
	code, _, ok := sqlState(err)
	if ok {
		switch code {
		case sqlStateInvalidText, sqlStateInvalidDatetime, sqlStateUndefinedColumn,
			sqlStateUndefinedFunction, sqlStateDatatypeMismatch:
			return &catalog.QueryParseError{Reason: reasonRejectedByPostgreSQL + err.Error(), Err: err}
		}
	}

	return errors.Join(sentinel, err)
}
