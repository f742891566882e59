package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/faculty-timetable-api/internal/models"
)

// AssignmentRepository reads faculty course assignments joined with their course attributes.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ListByFaculty returns every assignment of the faculty with course type and contact periods.
func (r *AssignmentRepository) ListByFaculty(ctx context.Context, facultyID string) ([]models.Assignment, error) {
	const query = `
SELECT fc.id, fc.faculty_id, fc.course_id, fc.batch_id, c.type AS course_type, c.contact_periods
FROM faculty_courses fc
JOIN courses c ON c.id = fc.course_id
WHERE fc.faculty_id = $1
ORDER BY c.code ASC, fc.batch_id ASC`
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, facultyID); err != nil {
		return nil, fmt.Errorf("list faculty assignments: %w", err)
	}
	return assignments, nil
}

// ListBatchesByCourse returns the batches a course is assigned to or already scheduled for.
func (r *AssignmentRepository) ListBatchesByCourse(ctx context.Context, courseID string) ([]string, error) {
	const query = `
SELECT batch_id FROM faculty_courses WHERE course_id = $1
UNION
SELECT batch_id FROM timetable_entries WHERE course_id = $1
ORDER BY batch_id ASC`
	var batches []string
	if err := r.db.SelectContext(ctx, &batches, query, courseID); err != nil {
		return nil, fmt.Errorf("list course batches: %w", err)
	}
	return batches, nil
}
