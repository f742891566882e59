package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/faculty-timetable-api/internal/models"
)

func TestFacultyRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFacultyRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, department, designation, created_at FROM faculty WHERE id = $1")).
		WithArgs("fac-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "department", "designation", "created_at"}).
			AddRow("fac-1", "Dr. Rao", "CSE", "Professor", time.Now()))

	faculty, err := repo.FindByID(context.Background(), "fac-1")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Rao", faculty.Name)

	mock.ExpectQuery(regexp.QuoteMeta("FROM faculty WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListByFaculty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "faculty_id", "course_id", "batch_id", "course_type", "contact_periods"}).
		AddRow("fc-1", "fac-1", "course-1", "batch-1", "LAB", 4).
		AddRow("fc-2", "fac-1", "course-2", "batch-1", "ACADEMIC", 3)
	mock.ExpectQuery(regexp.QuoteMeta("FROM faculty_courses fc\nJOIN courses c ON c.id = fc.course_id\nWHERE fc.faculty_id = $1")).
		WithArgs("fac-1").
		WillReturnRows(rows)

	assignments, err := repo.ListByFaculty(context.Background(), "fac-1")
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	assert.Equal(t, models.CourseTypeLab, assignments[0].CourseType)
	assert.Equal(t, 4, assignments[0].ContactPeriods)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListBatchesByCourse(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT batch_id FROM faculty_courses WHERE course_id = $1\nUNION\nSELECT batch_id FROM timetable_entries WHERE course_id = $1")).
		WithArgs("course-1").
		WillReturnRows(sqlmock.NewRows([]string{"batch_id"}).AddRow("batch-1").AddRow("batch-2"))

	batches, err := repo.ListBatchesByCourse(context.Background(), "course-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"batch-1", "batch-2"}, batches)
	assert.NoError(t, mock.ExpectationsWereMet())
}
