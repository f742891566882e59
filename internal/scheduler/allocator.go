package scheduler

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/faculty-timetable-api/internal/models"
)

// DefaultMaxLabsPerDay caps distinct lab courses per batch per day.
const DefaultMaxLabsPerDay = 2

// LabRounding decides what happens to lab periods that do not divide evenly into occurrences.
type LabRounding string

const (
	// LabRoundingTruncate drops the remainder periods.
	LabRoundingTruncate LabRounding = "truncate"
	// LabRoundingCeil schedules the remainder as one extra, shorter occurrence.
	LabRoundingCeil LabRounding = "ceil"
)

// ParseLabRounding maps config strings onto a rule, defaulting to truncate.
func ParseLabRounding(raw string) (LabRounding, error) {
	switch LabRounding(strings.ToLower(strings.TrimSpace(raw))) {
	case "", LabRoundingTruncate:
		return LabRoundingTruncate, nil
	case LabRoundingCeil:
		return LabRoundingCeil, nil
	default:
		return "", fmt.Errorf("unknown lab rounding %q", raw)
	}
}

// Phase is a step of the allocation state machine.
type Phase string

const (
	PhaseIdle        Phase = "IDLE"
	PhaseLab         Phase = "LAB"
	PhaseNonAcademic Phase = "NON_ACADEMIC"
	PhaseTheory      Phase = "THEORY"
	PhaseDone        Phase = "DONE"
)

// Options configures an Allocator.
type Options struct {
	MaxLabsPerDay int
	LabRounding   LabRounding
	Shuffler      Shuffler
	Logger        *zap.Logger
}

// Request is the input of one generation run.
type Request struct {
	FacultyID    string
	AcademicYear string
	Semester     string
	Assignments  []models.Assignment
	Catalog      *Catalog
	Persisted    *Occupancy
}

// Allocation reports how many periods an assignment needed and received.
type Allocation struct {
	AssignmentID string            `json:"assignment_id"`
	CourseID     string            `json:"course_id"`
	BatchID      string            `json:"batch_id"`
	CourseType   models.CourseType `json:"course_type"`
	Required     int               `json:"required"`
	Placed       int               `json:"placed"`
}

// Shortfall is the number of required periods that could not be placed.
func (a Allocation) Shortfall() int {
	if a.Placed >= a.Required {
		return 0
	}
	return a.Required - a.Placed
}

// Outcome is the result of a run: the placements plus a per-assignment account.
type Outcome struct {
	FacultyID    string
	AcademicYear string
	Semester     string
	Placements   []Placement
	Allocations  []Allocation
	Phases       []Phase
}

// Complete reports whether every assignment received all its periods.
func (o Outcome) Complete() bool {
	for _, a := range o.Allocations {
		if a.Shortfall() > 0 {
			return false
		}
	}
	return true
}

// TotalShortfall sums the shortfall over all assignments.
func (o Outcome) TotalShortfall() int {
	total := 0
	for _, a := range o.Allocations {
		total += a.Shortfall()
	}
	return total
}

// Entries converts placements into timetable entries stamped with the run's term.
func (o Outcome) Entries() []models.TimetableEntry {
	entries := make([]models.TimetableEntry, 0, len(o.Placements))
	for _, p := range o.Placements {
		entries = append(entries, models.TimetableEntry{
			FacultyID:    p.FacultyID,
			CourseID:     p.CourseID,
			BatchID:      p.BatchID,
			TimeSlotID:   p.Slot.ID,
			AcademicYear: o.AcademicYear,
			Semester:     o.Semester,
		})
	}
	return entries
}

// Allocator is the randomized greedy placement engine.
type Allocator struct {
	maxLabsPerDay int
	rounding      LabRounding
	shuffler      Shuffler
	logger        *zap.Logger
}

// NewAllocator applies defaults to opts.
func NewAllocator(opts Options) *Allocator {
	if opts.MaxLabsPerDay <= 0 {
		opts.MaxLabsPerDay = DefaultMaxLabsPerDay
	}
	if opts.LabRounding == "" {
		opts.LabRounding = LabRoundingTruncate
	}
	if opts.Shuffler == nil {
		opts.Shuffler = NewEntropyShuffler()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Allocator{
		maxLabsPerDay: opts.MaxLabsPerDay,
		rounding:      opts.LabRounding,
		shuffler:      opts.Shuffler,
		logger:        opts.Logger,
	}
}

// Allocate runs the lab, non-academic and theory phases in that order.
// Under-allocation is reported through Outcome.Allocations, never as an error.
func (a *Allocator) Allocate(req Request) Outcome {
	catalog := req.Catalog
	if catalog == nil {
		catalog = &Catalog{byDay: map[models.DayOfWeek][]models.TimeSlot{}}
	}
	working := NewWorkingSet()
	r := &run{
		alloc:     a,
		facultyID: req.FacultyID,
		catalog:   catalog,
		working:   working,
		oracle:    NewConflictOracle(working, req.Persisted),
		phase:     PhaseIdle,
	}

	var labs, nonAcademic, theory []models.Assignment
	var unknown []models.Assignment
	for _, item := range req.Assignments {
		switch item.CourseType {
		case models.CourseTypeLab:
			labs = append(labs, item)
		case models.CourseTypeNonAcademic:
			nonAcademic = append(nonAcademic, item)
		case models.CourseTypeAcademic:
			theory = append(theory, item)
		default:
			unknown = append(unknown, item)
		}
	}

	outcome := Outcome{
		FacultyID:    req.FacultyID,
		AcademicYear: req.AcademicYear,
		Semester:     req.Semester,
	}

	r.enter(PhaseLab, &outcome)
	for _, item := range shuffled(a.shuffler, labs) {
		outcome.Allocations = append(outcome.Allocations, r.account(item, r.allocateLab(item)))
	}
	r.enter(PhaseNonAcademic, &outcome)
	for _, item := range shuffled(a.shuffler, nonAcademic) {
		outcome.Allocations = append(outcome.Allocations, r.account(item, r.allocateNonAcademic(item)))
	}
	r.enter(PhaseTheory, &outcome)
	for _, item := range shuffled(a.shuffler, theory) {
		outcome.Allocations = append(outcome.Allocations, r.account(item, r.allocateTheory(item)))
	}
	for _, item := range unknown {
		a.logger.Warn("skipping assignment with unknown course type",
			zap.String("assignment_id", item.ID),
			zap.String("course_type", string(item.CourseType)))
		outcome.Allocations = append(outcome.Allocations, r.account(item, 0))
	}
	r.enter(PhaseDone, &outcome)

	outcome.Placements = working.Placements()
	return outcome
}

type run struct {
	alloc     *Allocator
	facultyID string
	catalog   *Catalog
	working   *WorkingSet
	oracle    *ConflictOracle
	phase     Phase
}

func (r *run) enter(phase Phase, outcome *Outcome) {
	r.alloc.logger.Debug("allocator phase",
		zap.String("faculty_id", r.facultyID),
		zap.String("from", string(r.phase)),
		zap.String("to", string(phase)),
		zap.Int("placed", r.working.Len()))
	r.phase = phase
	outcome.Phases = append(outcome.Phases, phase)
}

func (r *run) account(item models.Assignment, placed int) Allocation {
	required := item.ContactPeriods
	if required < 0 {
		required = 0
	}
	allocation := Allocation{
		AssignmentID: item.ID,
		CourseID:     item.CourseID,
		BatchID:      item.BatchID,
		CourseType:   item.CourseType,
		Required:     required,
		Placed:       placed,
	}
	if allocation.Shortfall() > 0 {
		r.alloc.logger.Debug("assignment under-allocated",
			zap.String("assignment_id", item.ID),
			zap.String("course_id", item.CourseID),
			zap.String("batch_id", item.BatchID),
			zap.Int("required", required),
			zap.Int("placed", placed))
	}
	return allocation
}

func (r *run) commit(item models.Assignment, slot models.TimeSlot) {
	r.working.Add(Placement{
		AssignmentID: item.ID,
		FacultyID:    r.facultyID,
		CourseID:     item.CourseID,
		BatchID:      item.BatchID,
		CourseType:   item.CourseType,
		Slot:         slot,
	})
}
