package scheduler

import "github.com/noah-isme/faculty-timetable-api/internal/models"

// LabPlan splits a lab's contact periods into per-day occurrence lengths.
// More than four periods are split into two halves; otherwise one occurrence holds them all.
func LabPlan(periods int, rounding LabRounding) []int {
	if periods <= 0 {
		return nil
	}
	perDay := periods
	if periods > 4 {
		perDay = periods / 2
	}
	days := periods / perDay
	plan := make([]int, 0, days+1)
	for i := 0; i < days; i++ {
		plan = append(plan, perDay)
	}
	if rounding == LabRoundingCeil {
		if rest := periods - days*perDay; rest > 0 {
			plan = append(plan, rest)
		}
	}
	return plan
}

// allocateLab places each occurrence as a contiguous window on a distinct day.
func (r *run) allocateLab(item models.Assignment) int {
	plan := LabPlan(item.ContactPeriods, r.alloc.rounding)
	days := shuffled(r.alloc.shuffler, models.TeachingDays)
	used := make(map[models.DayOfWeek]bool, len(plan))
	placed := 0

	for _, length := range plan {
		for _, day := range days {
			if used[day] || !r.labDayOpen(item, day) {
				continue
			}
			window := r.labWindow(item, day, length)
			if window == nil {
				continue
			}
			for _, slot := range window {
				r.commit(item, slot)
			}
			used[day] = true
			placed += len(window)
			break
		}
	}
	return placed
}

// labDayOpen enforces the per-batch daily lab course limit, counted over this run only.
func (r *run) labDayOpen(item models.Assignment, day models.DayOfWeek) bool {
	count, present := r.working.LabCoursesOn(item.BatchID, day, item.CourseID)
	return present || count < r.alloc.maxLabsPerDay
}

// labWindow returns the first run of length consecutive periods (period 1 excluded) that is free.
func (r *run) labWindow(item models.Assignment, day models.DayOfWeek, length int) []models.TimeSlot {
	candidates := r.catalog.LabCandidates(day)
	for i := 0; i+length <= len(candidates); i++ {
		window := candidates[i : i+length]
		if !contiguous(window) {
			continue
		}
		if r.oracle.AllFree(r.facultyID, item.BatchID, window) {
			return window
		}
	}
	return nil
}

// allocateNonAcademic spreads periods one per day over interior slots, preferring unused days.
func (r *run) allocateNonAcademic(item models.Assignment) int {
	used := make(map[models.DayOfWeek]bool)
	placed := 0

	for placed < item.ContactPeriods {
		var fresh, reused []models.DayOfWeek
		for _, day := range models.TeachingDays {
			if used[day] {
				reused = append(reused, day)
			} else {
				fresh = append(fresh, day)
			}
		}

		day, ok := r.placeInterior(item, fresh)
		if !ok {
			day, ok = r.placeInterior(item, reused)
		}
		if !ok {
			break
		}
		used[day] = true
		placed++
	}
	return placed
}

func (r *run) placeInterior(item models.Assignment, days []models.DayOfWeek) (models.DayOfWeek, bool) {
	for _, day := range shuffled(r.alloc.shuffler, days) {
		for _, slot := range shuffled(r.alloc.shuffler, r.catalog.InteriorSlots(day)) {
			if r.oracle.IsFree(r.facultyID, item.BatchID, slot) {
				r.commit(item, slot)
				return day, true
			}
		}
	}
	return 0, false
}

// allocateTheory places single periods anywhere in the catalog, never adjacent to the same course.
func (r *run) allocateTheory(item models.Assignment) int {
	placed := 0
	for placed < item.ContactPeriods {
		committed := false
		for _, slot := range shuffled(r.alloc.shuffler, r.catalog.slots) {
			if r.adjacentToCourse(item.CourseID, slot) {
				continue
			}
			if !r.oracle.IsFree(r.facultyID, item.BatchID, slot) {
				continue
			}
			r.commit(item, slot)
			committed = true
			break
		}
		if !committed {
			break
		}
		placed++
	}
	return placed
}

func (r *run) adjacentToCourse(courseID string, slot models.TimeSlot) bool {
	return r.working.CourseAt(courseID, slot.Day, slot.PeriodNumber-1) ||
		r.working.CourseAt(courseID, slot.Day, slot.PeriodNumber+1)
}
