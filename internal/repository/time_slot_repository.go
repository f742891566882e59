package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/faculty-timetable-api/internal/models"
)

// TimeSlotRepository manages the weekly slot catalog.
type TimeSlotRepository struct {
	db *sqlx.DB
}

// NewTimeSlotRepository constructs the repository.
func NewTimeSlotRepository(db *sqlx.DB) *TimeSlotRepository {
	return &TimeSlotRepository{db: db}
}

func (r *TimeSlotRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// ListNonBreak returns schedulable slots ordered by day then period.
func (r *TimeSlotRepository) ListNonBreak(ctx context.Context) ([]models.TimeSlot, error) {
	const query = `SELECT id, day_of_week, period_number, start_time, end_time, is_break
FROM time_slots WHERE is_break = FALSE ORDER BY day_of_week ASC, period_number ASC`
	var slots []models.TimeSlot
	if err := r.db.SelectContext(ctx, &slots, query); err != nil {
		return nil, fmt.Errorf("list time slots: %w", err)
	}
	return slots, nil
}

// Count returns the number of catalog rows including breaks.
func (r *TimeSlotRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM time_slots`); err != nil {
		return 0, fmt.Errorf("count time slots: %w", err)
	}
	return count, nil
}

// BulkCreate inserts the slots in one statement.
func (r *TimeSlotRepository) BulkCreate(ctx context.Context, exec sqlx.ExtContext, slots []models.TimeSlot) error {
	if len(slots) == 0 {
		return nil
	}
	for i := range slots {
		if slots[i].ID == "" {
			slots[i].ID = uuid.NewString()
		}
	}
	const query = `INSERT INTO time_slots (id, day_of_week, period_number, start_time, end_time, is_break)
VALUES (:id, :day_of_week, :period_number, :start_time, :end_time, :is_break)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, slots); err != nil {
		return fmt.Errorf("insert time slots: %w", err)
	}
	return nil
}
