package scheduler

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/faculty-timetable-api/internal/models"
)

func TestAllocateLabOnFreeMonday(t *testing.T) {
	catalog := mustCatalog(t, buildSlots([]models.DayOfWeek{models.Monday}, 1, 2, 3, 4, 5))

	for seed := int64(1); seed <= 20; seed++ {
		outcome := NewAllocator(Options{Shuffler: NewShuffler(seed)}).Allocate(Request{
			FacultyID:   "fac-1",
			Assignments: []models.Assignment{labAssignment("a-1", "lab-1", "batch-1", 4)},
			Catalog:     catalog,
		})

		require.Len(t, outcome.Placements, 4)
		assert.Equal(t, []int{2, 3, 4, 5}, periodsOn(outcome.Placements, models.Monday))
		for _, p := range outcome.Placements {
			assert.Equal(t, "lab-1", p.CourseID)
		}
		require.Len(t, outcome.Allocations, 1)
		assert.Equal(t, 0, outcome.Allocations[0].Shortfall())
	}
}

func TestAllocateTheoryRejectsAdjacentPeriods(t *testing.T) {
	catalog := mustCatalog(t, buildSlots([]models.DayOfWeek{models.Monday}, 3, 4))

	for seed := int64(1); seed <= 20; seed++ {
		outcome := NewAllocator(Options{Shuffler: NewShuffler(seed)}).Allocate(Request{
			FacultyID:   "fac-1",
			Assignments: []models.Assignment{theoryAssignment("a-1", "math", "batch-1", 2)},
			Catalog:     catalog,
		})

		assert.Len(t, outcome.Placements, 1)
		require.Len(t, outcome.Allocations, 1)
		assert.Equal(t, 1, outcome.Allocations[0].Shortfall())
		assert.False(t, outcome.Complete())
	}
}

func TestAllocateRespectsPersistedOccupancy(t *testing.T) {
	catalog := mustCatalog(t, buildSlots([]models.DayOfWeek{models.Monday}, 1, 2, 3, 4, 5))
	persisted := NewOccupancy([]models.SlotOccupancy{
		{FacultyID: "fac-other", BatchID: "batch-1", Day: models.Monday, PeriodNumber: 3},
	})

	outcome := NewAllocator(Options{Shuffler: NewShuffler(7)}).Allocate(Request{
		FacultyID:   "fac-1",
		Assignments: []models.Assignment{labAssignment("a-1", "lab-1", "batch-1", 4)},
		Catalog:     catalog,
		Persisted:   persisted,
	})

	assert.Empty(t, outcome.Placements)
	assert.Equal(t, 4, outcome.TotalShortfall())
}

func TestAllocateLabDailyLimitPerBatch(t *testing.T) {
	catalog := mustCatalog(t, buildSlots([]models.DayOfWeek{models.Monday}, 1, 2, 3, 4, 5, 6, 7, 8))

	outcome := NewAllocator(Options{Shuffler: NewShuffler(3)}).Allocate(Request{
		FacultyID: "fac-1",
		Assignments: []models.Assignment{
			labAssignment("a-1", "lab-1", "batch-1", 2),
			labAssignment("a-2", "lab-2", "batch-1", 2),
			labAssignment("a-3", "lab-3", "batch-1", 2),
		},
		Catalog: catalog,
	})

	assert.Len(t, outcome.Placements, 4)
	shortfalls := 0
	for _, a := range outcome.Allocations {
		if a.Shortfall() > 0 {
			shortfalls++
			assert.Equal(t, 2, a.Shortfall())
		}
	}
	assert.Equal(t, 1, shortfalls)
}

func TestAllocateLabDailyLimitIsConfigurable(t *testing.T) {
	catalog := mustCatalog(t, buildSlots([]models.DayOfWeek{models.Monday}, 1, 2, 3, 4, 5, 6, 7, 8))

	outcome := NewAllocator(Options{MaxLabsPerDay: 3, Shuffler: NewShuffler(3)}).Allocate(Request{
		FacultyID: "fac-1",
		Assignments: []models.Assignment{
			labAssignment("a-1", "lab-1", "batch-1", 2),
			labAssignment("a-2", "lab-2", "batch-1", 2),
			labAssignment("a-3", "lab-3", "batch-1", 2),
		},
		Catalog: catalog,
	})

	assert.Len(t, outcome.Placements, 6)
	assert.True(t, outcome.Complete())
}

func TestLabPlan(t *testing.T) {
	cases := []struct {
		periods  int
		truncate []int
		ceil     []int
	}{
		{periods: 0, truncate: nil, ceil: nil},
		{periods: 2, truncate: []int{2}, ceil: []int{2}},
		{periods: 4, truncate: []int{4}, ceil: []int{4}},
		{periods: 5, truncate: []int{2, 2}, ceil: []int{2, 2, 1}},
		{periods: 6, truncate: []int{3, 3}, ceil: []int{3, 3}},
		{periods: 7, truncate: []int{3, 3}, ceil: []int{3, 3, 1}},
		{periods: 8, truncate: []int{4, 4}, ceil: []int{4, 4}},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d periods", tc.periods), func(t *testing.T) {
			assert.Equal(t, tc.truncate, LabPlan(tc.periods, LabRoundingTruncate))
			assert.Equal(t, tc.ceil, LabPlan(tc.periods, LabRoundingCeil))
		})
	}
}

func TestAllocateLabRoundingRules(t *testing.T) {
	catalog := mustCatalog(t, buildSlots(models.TeachingDays, 1, 2, 3, 4, 5, 6, 7, 8))
	assignment := labAssignment("a-1", "lab-1", "batch-1", 7)

	truncated := NewAllocator(Options{LabRounding: LabRoundingTruncate, Shuffler: NewShuffler(11)}).Allocate(Request{
		FacultyID:   "fac-1",
		Assignments: []models.Assignment{assignment},
		Catalog:     catalog,
	})
	assert.Len(t, truncated.Placements, 6)
	assert.Equal(t, 1, truncated.TotalShortfall())
	assert.Len(t, daysUsed(truncated.Placements), 2)

	ceiled := NewAllocator(Options{LabRounding: LabRoundingCeil, Shuffler: NewShuffler(11)}).Allocate(Request{
		FacultyID:   "fac-1",
		Assignments: []models.Assignment{assignment},
		Catalog:     catalog,
	})
	assert.Len(t, ceiled.Placements, 7)
	assert.True(t, ceiled.Complete())
	assert.Len(t, daysUsed(ceiled.Placements), 3)
}

func TestParseLabRounding(t *testing.T) {
	rule, err := ParseLabRounding("")
	require.NoError(t, err)
	assert.Equal(t, LabRoundingTruncate, rule)

	rule, err = ParseLabRounding(" CEIL ")
	require.NoError(t, err)
	assert.Equal(t, LabRoundingCeil, rule)

	_, err = ParseLabRounding("round")
	assert.Error(t, err)
}

func TestAllocateNonAcademicSpreadsAcrossDays(t *testing.T) {
	catalog := mustCatalog(t, buildSlots(models.TeachingDays, 1, 2, 3, 4, 5, 6, 7, 8))

	for seed := int64(1); seed <= 20; seed++ {
		outcome := NewAllocator(Options{Shuffler: NewShuffler(seed)}).Allocate(Request{
			FacultyID:   "fac-1",
			Assignments: []models.Assignment{nonAcademicAssignment("a-1", "sports", "batch-1", 4)},
			Catalog:     catalog,
		})

		require.Len(t, outcome.Placements, 4)
		assert.Len(t, daysUsed(outcome.Placements), 4)
		for _, p := range outcome.Placements {
			assert.NotEqual(t, 1, p.Slot.PeriodNumber)
			assert.NotEqual(t, 8, p.Slot.PeriodNumber)
		}
	}
}

func TestAllocateNonAcademicReusesDaysWhenExhausted(t *testing.T) {
	catalog := mustCatalog(t, buildSlots([]models.DayOfWeek{models.Tuesday}, 1, 2, 3, 4, 5))

	outcome := NewAllocator(Options{Shuffler: NewShuffler(5)}).Allocate(Request{
		FacultyID:   "fac-1",
		Assignments: []models.Assignment{nonAcademicAssignment("a-1", "club", "batch-1", 5)},
		Catalog:     catalog,
	})

	assert.Equal(t, []int{2, 3, 4}, periodsOn(outcome.Placements, models.Tuesday))
	assert.Equal(t, 2, outcome.TotalShortfall())
}

func TestAllocatePhaseOrder(t *testing.T) {
	catalog := mustCatalog(t, buildSlots(models.TeachingDays, 1, 2, 3, 4, 5, 6))
	outcome := NewAllocator(Options{Shuffler: NewShuffler(1)}).Allocate(Request{
		FacultyID: "fac-1",
		Assignments: []models.Assignment{
			theoryAssignment("a-1", "math", "batch-1", 3),
			nonAcademicAssignment("a-2", "club", "batch-1", 2),
			labAssignment("a-3", "lab", "batch-1", 4),
		},
		Catalog: catalog,
	})

	assert.Equal(t, []Phase{PhaseLab, PhaseNonAcademic, PhaseTheory, PhaseDone}, outcome.Phases)
	require.Len(t, outcome.Allocations, 3)
	assert.Equal(t, models.CourseTypeLab, outcome.Allocations[0].CourseType)
	assert.Equal(t, models.CourseTypeNonAcademic, outcome.Allocations[1].CourseType)
	assert.Equal(t, models.CourseTypeAcademic, outcome.Allocations[2].CourseType)
	assert.Equal(t, models.CourseTypeLab, outcome.Placements[0].CourseType)
}

func TestAllocateIsReproducibleForSeed(t *testing.T) {
	catalog := mustCatalog(t, buildSlots(models.TeachingDays, 1, 2, 3, 4, 5, 6, 7, 8))
	req := Request{FacultyID: "fac-1", Assignments: mixedAssignments(), Catalog: catalog}

	first := NewAllocator(Options{Shuffler: NewShuffler(42)}).Allocate(req)
	second := NewAllocator(Options{Shuffler: NewShuffler(42)}).Allocate(req)

	assert.Equal(t, first.Placements, second.Placements)
	assert.Equal(t, first.Allocations, second.Allocations)
}

func TestAllocateUnknownCourseTypeIsReportedAsShortfall(t *testing.T) {
	catalog := mustCatalog(t, buildSlots(models.TeachingDays, 1, 2, 3))
	outcome := NewAllocator(Options{Shuffler: NewShuffler(1)}).Allocate(Request{
		FacultyID:   "fac-1",
		Assignments: []models.Assignment{{ID: "a-1", CourseID: "x", BatchID: "b", CourseType: "SEMINAR", ContactPeriods: 2}},
		Catalog:     catalog,
	})

	assert.Empty(t, outcome.Placements)
	assert.Equal(t, 2, outcome.TotalShortfall())
}

func TestOutcomeEntriesCarryTerm(t *testing.T) {
	catalog := mustCatalog(t, buildSlots([]models.DayOfWeek{models.Monday}, 1, 2, 3, 4, 5))
	outcome := NewAllocator(Options{Shuffler: NewShuffler(1)}).Allocate(Request{
		FacultyID:    "fac-1",
		AcademicYear: "2024-2025",
		Semester:     "ODD",
		Assignments:  []models.Assignment{labAssignment("a-1", "lab-1", "batch-1", 4)},
		Catalog:      catalog,
	})

	entries := outcome.Entries()
	require.Len(t, entries, 4)
	for _, entry := range entries {
		assert.Equal(t, "fac-1", entry.FacultyID)
		assert.Equal(t, "2024-2025", entry.AcademicYear)
		assert.Equal(t, "ODD", entry.Semester)
		assert.NotEmpty(t, entry.TimeSlotID)
	}
}

// TestAllocateInvariantsHoldAcrossSeeds checks the timetable invariants on a crowded week.
func TestAllocateInvariantsHoldAcrossSeeds(t *testing.T) {
	catalog := mustCatalog(t, buildSlots(models.TeachingDays, 1, 2, 3, 4, 5, 6, 7, 8))
	persistedRows := []models.SlotOccupancy{
		{FacultyID: "fac-other", BatchID: "batch-1", Day: models.Monday, PeriodNumber: 4},
		{FacultyID: "fac-other", BatchID: "batch-2", Day: models.Wednesday, PeriodNumber: 2},
		{FacultyID: "fac-other", BatchID: "batch-2", Day: models.Wednesday, PeriodNumber: 3},
	}
	persisted := NewOccupancy(persistedRows)

	for seed := int64(1); seed <= 60; seed++ {
		outcome := NewAllocator(Options{Shuffler: NewShuffler(seed)}).Allocate(Request{
			FacultyID:   "fac-1",
			Assignments: mixedAssignments(),
			Catalog:     catalog,
			Persisted:   persisted,
		})
		assertInvariants(t, outcome, persistedRows)
	}
}

func assertInvariants(t *testing.T, outcome Outcome, persisted []models.SlotOccupancy) {
	t.Helper()
	type key struct {
		owner  string
		day    models.DayOfWeek
		period int
	}
	facultySeen := map[key]bool{}
	batchSeen := map[key]bool{}
	for _, row := range persisted {
		facultySeen[key{row.FacultyID, row.Day, row.PeriodNumber}] = true
		batchSeen[key{row.BatchID, row.Day, row.PeriodNumber}] = true
	}

	labRuns := map[string][]int{}
	labCourses := map[string]map[string]bool{}
	theoryPeriods := map[string]map[int]bool{}
	placedByAssignment := map[string]int{}

	for _, p := range outcome.Placements {
		fk := key{p.FacultyID, p.Slot.Day, p.Slot.PeriodNumber}
		bk := key{p.BatchID, p.Slot.Day, p.Slot.PeriodNumber}
		require.False(t, facultySeen[fk], "faculty double booked at %v", fk)
		require.False(t, batchSeen[bk], "batch double booked at %v", bk)
		facultySeen[fk] = true
		batchSeen[bk] = true
		placedByAssignment[p.AssignmentID]++

		switch p.CourseType {
		case models.CourseTypeLab:
			require.NotEqual(t, 1, p.Slot.PeriodNumber, "lab in first period")
			runKey := fmt.Sprintf("%s/%s", p.AssignmentID, p.Slot.Day)
			labRuns[runKey] = append(labRuns[runKey], p.Slot.PeriodNumber)
			dayKey := fmt.Sprintf("%s/%s", p.BatchID, p.Slot.Day)
			if labCourses[dayKey] == nil {
				labCourses[dayKey] = map[string]bool{}
			}
			labCourses[dayKey][p.CourseID] = true
		case models.CourseTypeAcademic:
			dayKey := fmt.Sprintf("%s/%s", p.CourseID, p.Slot.Day)
			if theoryPeriods[dayKey] == nil {
				theoryPeriods[dayKey] = map[int]bool{}
			}
			require.False(t, theoryPeriods[dayKey][p.Slot.PeriodNumber-1], "adjacent theory periods for %s", dayKey)
			require.False(t, theoryPeriods[dayKey][p.Slot.PeriodNumber+1], "adjacent theory periods for %s", dayKey)
			theoryPeriods[dayKey][p.Slot.PeriodNumber] = true
		case models.CourseTypeNonAcademic:
			require.NotEqual(t, 1, p.Slot.PeriodNumber)
			require.NotEqual(t, 8, p.Slot.PeriodNumber)
		}
	}

	for runKey, periods := range labRuns {
		sort.Ints(periods)
		for i := 1; i < len(periods); i++ {
			require.Equal(t, periods[i-1]+1, periods[i], "lab run %s not contiguous", runKey)
		}
	}
	for dayKey, courses := range labCourses {
		require.LessOrEqual(t, len(courses), DefaultMaxLabsPerDay, "too many labs on %s", dayKey)
	}
	for _, allocation := range outcome.Allocations {
		require.Equal(t, allocation.Placed, placedByAssignment[allocation.AssignmentID])
		require.LessOrEqual(t, allocation.Placed, allocation.Required)
	}
}

// --- fixtures ---

func mixedAssignments() []models.Assignment {
	return []models.Assignment{
		labAssignment("lab-a", "lab-net", "batch-1", 8),
		labAssignment("lab-b", "lab-os", "batch-1", 4),
		labAssignment("lab-c", "lab-db", "batch-1", 3),
		labAssignment("lab-d", "lab-net", "batch-2", 6),
		nonAcademicAssignment("na-a", "sports", "batch-1", 3),
		nonAcademicAssignment("na-b", "library", "batch-2", 2),
		theoryAssignment("th-a", "math", "batch-1", 5),
		theoryAssignment("th-b", "math", "batch-2", 4),
		theoryAssignment("th-c", "physics", "batch-2", 4),
	}
}

func labAssignment(id, courseID, batchID string, periods int) models.Assignment {
	return models.Assignment{ID: id, FacultyID: "fac-1", CourseID: courseID, BatchID: batchID, CourseType: models.CourseTypeLab, ContactPeriods: periods}
}

func theoryAssignment(id, courseID, batchID string, periods int) models.Assignment {
	return models.Assignment{ID: id, FacultyID: "fac-1", CourseID: courseID, BatchID: batchID, CourseType: models.CourseTypeAcademic, ContactPeriods: periods}
}

func nonAcademicAssignment(id, courseID, batchID string, periods int) models.Assignment {
	return models.Assignment{ID: id, FacultyID: "fac-1", CourseID: courseID, BatchID: batchID, CourseType: models.CourseTypeNonAcademic, ContactPeriods: periods}
}

func buildSlots(days []models.DayOfWeek, periods ...int) []models.TimeSlot {
	var slots []models.TimeSlot
	for _, day := range days {
		for _, period := range periods {
			slots = append(slots, models.TimeSlot{
				ID:           fmt.Sprintf("%s-%d", day, period),
				Day:          day,
				PeriodNumber: period,
			})
		}
	}
	return slots
}

func mustCatalog(t *testing.T, slots []models.TimeSlot) *Catalog {
	t.Helper()
	catalog, err := NewCatalog(slots)
	require.NoError(t, err)
	return catalog
}

func periodsOn(placements []Placement, day models.DayOfWeek) []int {
	var periods []int
	for _, p := range placements {
		if p.Slot.Day == day {
			periods = append(periods, p.Slot.PeriodNumber)
		}
	}
	sort.Ints(periods)
	return periods
}

func daysUsed(placements []Placement) map[models.DayOfWeek]bool {
	days := map[models.DayOfWeek]bool{}
	for _, p := range placements {
		days[p.Slot.Day] = true
	}
	return days
}
