package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicate reports that an insert lost a race against a unique constraint.
var ErrDuplicate = errors.New("duplicate record")

const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}
