package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/motivatem3/server/internal/database"
)

// ErrDuplicateEmail is returned by AccountRepository.Create when another
// account already owns the normalized email.
var ErrDuplicateEmail = errors.New("email already registered")

const pqUniqueViolation = "23505"

// getOne scans a single row into a new T. A missing row is (nil, nil) so
// callers can tell "absent" apart from a failed query.
func getOne[T any](ctx context.Context, db database.DBTX, query string, args ...any) (*T, error) {
	var dest T
	err := db.GetContext(ctx, &dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &dest, nil
}

// affected returns how many rows an UPDATE or DELETE touched.
func affected(result sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
