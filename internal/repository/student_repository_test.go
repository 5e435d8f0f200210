package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/models"
)

func TestStudentRepositoryListBySubjectWithEntries(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, class_id, subject_id, created_at FROM students WHERE subject_id = $1 ORDER BY created_at, id")).
		WithArgs("sub-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "class_id", "subject_id", "created_at"}).
			AddRow("st1", "Ali", "c1", "sub-1", time.Now()).
			AddRow("st2", "Bina", "c1", "sub-1", time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("FROM exam_entries WHERE student_id IN ($1,$2)")).
		WithArgs("st1", "st2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "session_name", "subject_id", "p1", "p2", "p3", "p4", "updated_at"}).
			AddRow("e1", "st1", "May/June 2024", "sub-1", 40.0, nil, nil, nil, time.Now()).
			AddRow("e2", "st1", "Oct/Nov 2024", "sub-1", 35.5, 20.0, nil, nil, time.Now()))

	students, err := repo.ListBySubject(context.Background(), "sub-1")
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Len(t, students[0].Entries, 2)
	assert.Equal(t, 35.5, students[0].Entries[1].Mark(0))
	assert.NotNil(t, students[1].Entries)
	assert.Empty(t, students[1].Entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListBySubjectEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("FROM students WHERE subject_id").
		WithArgs("sub-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "class_id", "subject_id", "created_at"}))

	students, err := repo.ListBySubject(context.Background(), "sub-1")
	require.NoError(t, err)
	assert.Empty(t, students)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryBulkCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO students").
		WithArgs(sqlmock.AnyArg(), "Ali", "c1", "sub-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO students").
		WithArgs(sqlmock.AnyArg(), "Bina", "c1", "sub-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	students := []models.Student{
		{Name: "Ali", ClassID: "c1", SubjectID: "sub-1"},
		{Name: "Bina", ClassID: "c1", SubjectID: "sub-1"},
	}
	require.NoError(t, repo.BulkCreate(context.Background(), students))
	assert.NotEmpty(t, students[0].ID)
	assert.True(t, students[1].CreatedAt.After(students[0].CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryBulkCreateRollsBack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO students").WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := repo.BulkCreate(context.Background(), []models.Student{{Name: "Ali", ClassID: "c1", SubjectID: "sub-1"}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = $1")).
		WithArgs("st1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "st1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
