package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/models"
)

func TestClassRepositoryList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, created_at FROM classes ORDER BY name")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}).
			AddRow("c1", "10A", time.Now()).
			AddRow("c2", "10B", time.Now()))

	classes, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"c1": "10A", "c2": "10B"}, models.ClassNameIndex(classes))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryFindByNameIgnoresCase(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(name) = LOWER($1)")).
		WithArgs("10a").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}).AddRow("c1", "10A", time.Now()))

	class, err := repo.FindByName(context.Background(), "10a")
	require.NoError(t, err)
	assert.Equal(t, "10A", class.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec("INSERT INTO classes").
		WithArgs(sqlmock.AnyArg(), "10C", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	class := &models.Class{Name: "10C"}
	require.NoError(t, repo.Create(context.Background(), class))
	assert.NotEmpty(t, class.ID)

	mock.ExpectExec("INSERT INTO classes").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})
	err := repo.Create(context.Background(), &models.Class{Name: "10c"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}
