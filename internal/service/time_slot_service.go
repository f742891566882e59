package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/faculty-timetable-api/internal/models"
	appErrors "github.com/noah-isme/faculty-timetable-api/pkg/errors"
)

type timeSlotStore interface {
	ListNonBreak(ctx context.Context) ([]models.TimeSlot, error)
	Count(ctx context.Context) (int, error)
	BulkCreate(ctx context.Context, exec sqlx.ExtContext, slots []models.TimeSlot) error
}

// SlotGridConfig describes the default weekly grid seeded into an empty catalog.
type SlotGridConfig struct {
	Enabled       bool
	PeriodsPerDay int
	DayStart      string
	PeriodLength  time.Duration
	// BreakAfter[i] is the period a break follows; BreakLengths[i] is its duration.
	BreakAfter   []int
	BreakLengths []time.Duration
}

// TimeSlotService owns the slot catalog.
type TimeSlotService struct {
	repo   timeSlotStore
	grid   SlotGridConfig
	logger *zap.Logger
}

// NewTimeSlotService constructs the service.
func NewTimeSlotService(repo timeSlotStore, grid SlotGridConfig, logger *zap.Logger) *TimeSlotService {
	if grid.PeriodsPerDay <= 0 {
		grid.PeriodsPerDay = 8
	}
	if grid.DayStart == "" {
		grid.DayStart = "09:00"
	}
	if grid.PeriodLength <= 0 {
		grid.PeriodLength = 50 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimeSlotService{repo: repo, grid: grid, logger: logger}
}

// EnsureCatalog seeds the default grid when the catalog table is empty and seeding is enabled.
// It returns the number of rows inserted.
func (s *TimeSlotService) EnsureCatalog(ctx context.Context) (int, error) {
	if !s.grid.Enabled {
		return 0, nil
	}
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count time slots")
	}
	if count > 0 {
		return 0, nil
	}
	slots, err := DefaultSlotGrid(s.grid)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid default slot grid")
	}
	if err := s.repo.BulkCreate(ctx, nil, slots); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed time slots")
	}
	s.logger.Info("seeded default time slot catalog", zap.Int("slots", len(slots)))
	return len(slots), nil
}

// ListSchedulable returns the non-break catalog.
func (s *TimeSlotService) ListSchedulable(ctx context.Context) ([]models.TimeSlot, error) {
	slots, err := s.repo.ListNonBreak(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time slots")
	}
	return slots, nil
}

// DefaultSlotGrid lays out Monday..Saturday with the configured periods and breaks.
// Break rows carry period number 0.
func DefaultSlotGrid(cfg SlotGridConfig) ([]models.TimeSlot, error) {
	start, err := time.Parse("15:04", cfg.DayStart)
	if err != nil {
		return nil, fmt.Errorf("parse day start %q: %w", cfg.DayStart, err)
	}
	if len(cfg.BreakAfter) != len(cfg.BreakLengths) {
		return nil, fmt.Errorf("break periods (%d) and lengths (%d) differ", len(cfg.BreakAfter), len(cfg.BreakLengths))
	}
	breaks := make(map[int]time.Duration, len(cfg.BreakAfter))
	for i, period := range cfg.BreakAfter {
		breaks[period] = cfg.BreakLengths[i]
	}

	var slots []models.TimeSlot
	for _, day := range models.TeachingDays {
		cursor := start
		for period := 1; period <= cfg.PeriodsPerDay; period++ {
			end := cursor.Add(cfg.PeriodLength)
			slots = append(slots, models.TimeSlot{
				Day:          day,
				PeriodNumber: period,
				StartTime:    cursor.Format("15:04"),
				EndTime:      end.Format("15:04"),
			})
			cursor = end
			if length, ok := breaks[period]; ok && period < cfg.PeriodsPerDay {
				breakEnd := cursor.Add(length)
				slots = append(slots, models.TimeSlot{
					Day:       day,
					StartTime: cursor.Format("15:04"),
					EndTime:   breakEnd.Format("15:04"),
					IsBreak:   true,
				})
				cursor = breakEnd
			}
		}
	}
	return slots, nil
}
