// Package scheduler places a faculty member's weekly sessions onto the time slot catalog.
//
// The package is a pure in-memory engine: callers load the catalog, the assignments and the
// persisted occupancy of other timetables, run an Allocator, and persist the resulting entries.
package scheduler

import (
	"fmt"
	"sort"

	"github.com/noah-isme/faculty-timetable-api/internal/models"
)

// Catalog is the ordered, read-only set of non-break slots.
type Catalog struct {
	slots []models.TimeSlot
	byDay map[models.DayOfWeek][]models.TimeSlot
}

// NewCatalog filters break rows and orders slots by day then period.
// Two non-break slots on the same (day, period) are rejected.
func NewCatalog(slots []models.TimeSlot) (*Catalog, error) {
	seen := make(map[cell]struct{}, len(slots))
	filtered := make([]models.TimeSlot, 0, len(slots))
	for _, slot := range slots {
		if slot.IsBreak {
			continue
		}
		if !slot.Day.Valid() || slot.PeriodNumber < 1 {
			return nil, fmt.Errorf("invalid time slot %s period %d", slot.Day, slot.PeriodNumber)
		}
		key := cell{day: slot.Day, period: slot.PeriodNumber}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("duplicate time slot %s period %d", slot.Day, slot.PeriodNumber)
		}
		seen[key] = struct{}{}
		filtered = append(filtered, slot)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Day == filtered[j].Day {
			return filtered[i].PeriodNumber < filtered[j].PeriodNumber
		}
		return filtered[i].Day < filtered[j].Day
	})

	byDay := make(map[models.DayOfWeek][]models.TimeSlot)
	for _, slot := range filtered {
		byDay[slot.Day] = append(byDay[slot.Day], slot)
	}
	return &Catalog{slots: filtered, byDay: byDay}, nil
}

// Len returns the number of schedulable slots.
func (c *Catalog) Len() int {
	return len(c.slots)
}

// Slots returns a copy of every slot in day/period order.
func (c *Catalog) Slots() []models.TimeSlot {
	out := make([]models.TimeSlot, len(c.slots))
	copy(out, c.slots)
	return out
}

// Day returns the slots of one day in period order.
func (c *Catalog) Day(day models.DayOfWeek) []models.TimeSlot {
	slots := c.byDay[day]
	out := make([]models.TimeSlot, len(slots))
	copy(out, slots)
	return out
}

// FirstPeriod returns the lowest period number on the day, or 0 when the day is empty.
func (c *Catalog) FirstPeriod(day models.DayOfWeek) int {
	slots := c.byDay[day]
	if len(slots) == 0 {
		return 0
	}
	return slots[0].PeriodNumber
}

// LastPeriod returns the highest period number on the day, or 0 when the day is empty.
func (c *Catalog) LastPeriod(day models.DayOfWeek) int {
	slots := c.byDay[day]
	if len(slots) == 0 {
		return 0
	}
	return slots[len(slots)-1].PeriodNumber
}

// LabCandidates returns the day's slots excluding period 1.
func (c *Catalog) LabCandidates(day models.DayOfWeek) []models.TimeSlot {
	var out []models.TimeSlot
	for _, slot := range c.byDay[day] {
		if slot.PeriodNumber > 1 {
			out = append(out, slot)
		}
	}
	return out
}

// InteriorSlots returns slots strictly between the day's first and last period.
func (c *Catalog) InteriorSlots(day models.DayOfWeek) []models.TimeSlot {
	first, last := c.FirstPeriod(day), c.LastPeriod(day)
	var out []models.TimeSlot
	for _, slot := range c.byDay[day] {
		if slot.PeriodNumber > first && slot.PeriodNumber < last {
			out = append(out, slot)
		}
	}
	return out
}

// Lookup finds the slot at (day, period).
func (c *Catalog) Lookup(day models.DayOfWeek, period int) (models.TimeSlot, bool) {
	for _, slot := range c.byDay[day] {
		if slot.PeriodNumber == period {
			return slot, true
		}
	}
	return models.TimeSlot{}, false
}

// contiguous reports whether the slots form an unbroken run of period numbers on one day.
func contiguous(slots []models.TimeSlot) bool {
	for i := 1; i < len(slots); i++ {
		if slots[i].Day != slots[i-1].Day || slots[i].PeriodNumber != slots[i-1].PeriodNumber+1 {
			return false
		}
	}
	return true
}

// Weekdays returns the days that have at least one slot, in calendar order.
func (c *Catalog) Weekdays() []models.DayOfWeek {
	days := make([]models.DayOfWeek, 0, len(c.byDay))
	for _, day := range models.TeachingDays {
		if len(c.byDay[day]) > 0 {
			days = append(days, day)
		}
	}
	if len(c.byDay[models.Sunday]) > 0 {
		days = append(days, models.Sunday)
	}
	return days
}
