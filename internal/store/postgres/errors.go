package postgres

import (
	"errors"

	"github.com/lib/pq"
)

// describe annotates an operation with the Postgres SQLSTATE of err, when
// there is one, for server-side logs.
func describe(op string, err error) string {
	if code := sqlState(err); code != "" {
		return op + " (sqlstate " + code + ")"
	}
	return op
}

// sqlState returns the SQLSTATE code of a *pq.Error in err's chain.
func sqlState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
