package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/models"
)

var subjectRowColumns = []string{"id", "teacher_id", "name", "classes", "start_year", "end_year", "papers", "max_marks", "created_at"}

func TestSubjectRepositoryListByTeacher(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM subjects WHERE teacher_id = $1 ORDER BY created_at DESC")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows(subjectRowColumns).
			AddRow("s1", "t1", "Physics", "{10A,10B}", 2023, 2024, "{P1,P2}", "{75,100}", time.Now()).
			AddRow("s2", "t1", "Maths", "{10A}", 2024, 2024, "{}", nil, time.Now()))

	subjects, err := repo.ListByTeacher(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, pq.StringArray{"10A", "10B"}, subjects[0].Classes)
	assert.Equal(t, 175.0, subjects[0].SessionMaxSum())
	assert.Nil(t, subjects[1].MaxMarks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectExec("INSERT INTO subjects").
		WillReturnResult(sqlmock.NewResult(1, 1))

	subject := &models.Subject{TeacherID: "t1", Name: "Physics", Classes: pq.StringArray{"10A"}, StartYear: 2024, EndYear: 2024, Papers: pq.StringArray{"P1"}, MaxMarks: pq.Int64Array{75}}
	require.NoError(t, repo.Create(context.Background(), subject))
	assert.NotEmpty(t, subject.ID)
	assert.False(t, subject.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectRepositoryDeleteScopedToTeacher(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSubjectRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM subjects WHERE id = $1 AND teacher_id = $2")).
		WithArgs("s1", "t2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "s1", "t2"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
