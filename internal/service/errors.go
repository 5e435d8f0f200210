package service

import (
	"database/sql"
	"errors"

	"github.com/noah-isme/gradebook-api/internal/repository"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

// mapRepoError translates repository sentinels into typed API errors.
func mapRepoError(err error, conflictMsg, internalMsg string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "")
	case errors.Is(err, repository.ErrDuplicate):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, conflictMsg)
	default:
		return appErrors.Internal(err, internalMsg)
	}
}
