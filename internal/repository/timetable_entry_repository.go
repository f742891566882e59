package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/faculty-timetable-api/internal/models"
)

const entryDetailSelect = `
SELECT te.id, te.faculty_id, te.course_id, te.batch_id, te.time_slot_id, te.academic_year, te.semester, te.created_at,
       f.name AS faculty_name, c.title AS course_title, c.code AS course_code, c.type AS course_type,
       b.batch_name, b.department AS batch_department, b.section AS batch_section,
       ts.day_of_week, ts.period_number, ts.start_time, ts.end_time
FROM timetable_entries te
JOIN faculty f ON f.id = te.faculty_id
JOIN courses c ON c.id = te.course_id
JOIN batches b ON b.id = te.batch_id
JOIN time_slots ts ON ts.id = te.time_slot_id`

// TimetableEntryRepository persists generated timetable entries.
type TimetableEntryRepository struct {
	db *sqlx.DB
}

// NewTimetableEntryRepository constructs the repository.
func NewTimetableEntryRepository(db *sqlx.DB) *TimetableEntryRepository {
	return &TimetableEntryRepository{db: db}
}

func (r *TimetableEntryRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListByFaculty returns the faculty's entries ordered by day and period.
func (r *TimetableEntryRepository) ListByFaculty(ctx context.Context, facultyID string) ([]models.TimetableEntryDetail, error) {
	query := entryDetailSelect + `
WHERE te.faculty_id = $1
ORDER BY ts.day_of_week ASC, ts.period_number ASC`
	var entries []models.TimetableEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, facultyID); err != nil {
		return nil, fmt.Errorf("list faculty timetable: %w", err)
	}
	return entries, nil
}

// ListByBatchTerm returns a batch's entries for one academic year and semester.
func (r *TimetableEntryRepository) ListByBatchTerm(ctx context.Context, batchID, academicYear, semester string) ([]models.TimetableEntryDetail, error) {
	query := entryDetailSelect + `
WHERE te.batch_id = $1 AND te.academic_year = $2 AND te.semester = $3
ORDER BY ts.day_of_week ASC, ts.period_number ASC`
	var entries []models.TimetableEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query, batchID, academicYear, semester); err != nil {
		return nil, fmt.Errorf("list batch timetable: %w", err)
	}
	return entries, nil
}

// ListOccupancy returns the (day, period) cells already held by the faculty or any of the batches.
func (r *TimetableEntryRepository) ListOccupancy(ctx context.Context, exec sqlx.ExtContext, facultyID string, batchIDs []string) ([]models.SlotOccupancy, error) {
	target := r.exec(exec)
	query := `
SELECT te.faculty_id, te.batch_id, ts.day_of_week, ts.period_number
FROM timetable_entries te
JOIN time_slots ts ON ts.id = te.time_slot_id
WHERE te.faculty_id = ?`
	args := []interface{}{facultyID}
	if len(batchIDs) > 0 {
		inQuery, inArgs, err := sqlx.In(` OR te.batch_id IN (?)`, batchIDs)
		if err != nil {
			return nil, fmt.Errorf("build occupancy query: %w", err)
		}
		query += inQuery
		args = append(args, inArgs...)
	}
	var rows []models.SlotOccupancy
	if err := sqlx.SelectContext(ctx, target, &rows, target.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list slot occupancy: %w", err)
	}
	return rows, nil
}

// IsFacultyBusy reports whether the faculty holds any entry at (day, period).
func (r *TimetableEntryRepository) IsFacultyBusy(ctx context.Context, facultyID string, day models.DayOfWeek, period int) (bool, error) {
	const query = `
SELECT COUNT(*)
FROM timetable_entries te
JOIN time_slots ts ON ts.id = te.time_slot_id
WHERE te.faculty_id = $1 AND ts.day_of_week = $2 AND ts.period_number = $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, facultyID, day, period); err != nil {
		return false, fmt.Errorf("check faculty availability: %w", err)
	}
	return count > 0, nil
}

// DeleteByFaculty removes every entry of the faculty and returns the number removed.
func (r *TimetableEntryRepository) DeleteByFaculty(ctx context.Context, exec sqlx.ExtContext, facultyID string) (int64, error) {
	return r.deleteWhere(ctx, exec, "faculty_id", facultyID)
}

// DeleteByCourse removes every entry of the course.
func (r *TimetableEntryRepository) DeleteByCourse(ctx context.Context, exec sqlx.ExtContext, courseID string) (int64, error) {
	return r.deleteWhere(ctx, exec, "course_id", courseID)
}

// DeleteByBatch removes every entry of the batch.
func (r *TimetableEntryRepository) DeleteByBatch(ctx context.Context, exec sqlx.ExtContext, batchID string) (int64, error) {
	return r.deleteWhere(ctx, exec, "batch_id", batchID)
}

func (r *TimetableEntryRepository) deleteWhere(ctx context.Context, exec sqlx.ExtContext, column, value string) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM timetable_entries WHERE %s = $1`, column)
	result, err := r.exec(exec).ExecContext(ctx, query, value)
	if err != nil {
		return 0, fmt.Errorf("delete timetable entries by %s: %w", column, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check deleted timetable rows: %w", err)
	}
	return affected, nil
}

// BulkCreate inserts all entries in one statement, assigning ids and timestamps.
func (r *TimetableEntryRepository) BulkCreate(ctx context.Context, exec sqlx.ExtContext, entries []models.TimetableEntry) error {
	if len(entries) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
		if entries[i].CreatedAt.IsZero() {
			entries[i].CreatedAt = now
		}
	}
	const query = `INSERT INTO timetable_entries (id, faculty_id, course_id, batch_id, time_slot_id, academic_year, semester, created_at)
VALUES (:id, :faculty_id, :course_id, :batch_id, :time_slot_id, :academic_year, :semester, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, entries); err != nil {
		return fmt.Errorf("insert timetable entries: %w", err)
	}
	return nil
}
