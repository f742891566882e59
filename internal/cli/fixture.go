package cli

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/faculty-timetable-api/internal/models"
	"github.com/noah-isme/faculty-timetable-api/internal/scheduler"
	"github.com/noah-isme/faculty-timetable-api/internal/service"
)

// Fixture is an offline planning input: a slot grid, one faculty member's assignments
// and the cells other timetables already hold.
type Fixture struct {
	FacultyID    string              `yaml:"faculty_id"`
	AcademicYear string              `yaml:"academic_year"`
	Semester     string              `yaml:"semester"`
	Grid         GridFixture         `yaml:"grid"`
	Assignments  []AssignmentFixture `yaml:"assignments"`
	Occupied     []OccupiedFixture   `yaml:"occupied"`
}

// GridFixture mirrors the default slot grid settings of the API.
type GridFixture struct {
	PeriodsPerDay int            `yaml:"periods_per_day"`
	DayStart      string         `yaml:"day_start"`
	PeriodMinutes int            `yaml:"period_minutes"`
	Breaks        []BreakFixture `yaml:"breaks"`
}

// BreakFixture places a break after a period.
type BreakFixture struct {
	After   int `yaml:"after"`
	Minutes int `yaml:"minutes"`
}

// AssignmentFixture is one course taught to one batch.
type AssignmentFixture struct {
	ID      string `yaml:"id"`
	Course  string `yaml:"course"`
	Batch   string `yaml:"batch"`
	Type    string `yaml:"type"`
	Periods int    `yaml:"periods"`
}

// OccupiedFixture is a cell committed by another timetable.
type OccupiedFixture struct {
	Faculty string `yaml:"faculty"`
	Batch   string `yaml:"batch"`
	Day     string `yaml:"day"`
	Period  int    `yaml:"period"`
}

// LoadFixture reads and validates a YAML fixture.
func LoadFixture(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(raw)
}

// ParseFixture decodes a YAML fixture.
func ParseFixture(raw []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if f.FacultyID == "" {
		f.FacultyID = "faculty"
	}
	if len(f.Assignments) == 0 {
		return nil, fmt.Errorf("fixture has no assignments")
	}
	for i, a := range f.Assignments {
		if a.Course == "" || a.Batch == "" {
			return nil, fmt.Errorf("assignment %d: course and batch are required", i+1)
		}
		if a.Periods < 1 {
			return nil, fmt.Errorf("assignment %d: periods must be positive", i+1)
		}
	}
	return &f, nil
}

// Catalog lays out the fixture grid. Slot IDs take the form MONDAY-1.
func (f *Fixture) Catalog() (*scheduler.Catalog, error) {
	grid := service.SlotGridConfig{
		PeriodsPerDay: f.Grid.PeriodsPerDay,
		DayStart:      f.Grid.DayStart,
		PeriodLength:  time.Duration(f.Grid.PeriodMinutes) * time.Minute,
	}
	if grid.PeriodsPerDay <= 0 {
		grid.PeriodsPerDay = 8
	}
	if grid.DayStart == "" {
		grid.DayStart = "09:00"
	}
	if grid.PeriodLength <= 0 {
		grid.PeriodLength = 50 * time.Minute
	}
	for _, b := range f.Grid.Breaks {
		grid.BreakAfter = append(grid.BreakAfter, b.After)
		grid.BreakLengths = append(grid.BreakLengths, time.Duration(b.Minutes)*time.Minute)
	}
	slots, err := service.DefaultSlotGrid(grid)
	if err != nil {
		return nil, err
	}
	for i := range slots {
		if !slots[i].IsBreak {
			slots[i].ID = fmt.Sprintf("%s-%d", slots[i].Day, slots[i].PeriodNumber)
		}
	}
	return scheduler.NewCatalog(slots)
}

// Models converts fixture assignments. Unnamed assignments are numbered.
func (f *Fixture) Models() []models.Assignment {
	out := make([]models.Assignment, 0, len(f.Assignments))
	for i, a := range f.Assignments {
		id := a.ID
		if id == "" {
			id = fmt.Sprintf("a-%d", i+1)
		}
		courseType := models.CourseType(a.Type)
		if courseType == "" {
			courseType = models.CourseTypeAcademic
		}
		out = append(out, models.Assignment{
			ID:             id,
			FacultyID:      f.FacultyID,
			CourseID:       a.Course,
			BatchID:        a.Batch,
			CourseType:     courseType,
			ContactPeriods: a.Periods,
		})
	}
	return out
}

// Occupancy converts the occupied cells. Unknown day names are rejected.
func (f *Fixture) Occupancy() (*scheduler.Occupancy, error) {
	rows := make([]models.SlotOccupancy, 0, len(f.Occupied))
	for i, o := range f.Occupied {
		day := models.ParseDayOfWeek(o.Day)
		if !day.Valid() {
			return nil, fmt.Errorf("occupied %d: unknown day %q", i+1, o.Day)
		}
		rows = append(rows, models.SlotOccupancy{
			FacultyID:    o.Faculty,
			BatchID:      o.Batch,
			Day:          day,
			PeriodNumber: o.Period,
		})
	}
	return scheduler.NewOccupancy(rows), nil
}
