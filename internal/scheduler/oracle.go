package scheduler

import "github.com/noah-isme/faculty-timetable-api/internal/models"

type cell struct {
	day    models.DayOfWeek
	period int
}

type ownerCell struct {
	owner  string
	day    models.DayOfWeek
	period int
}

type batchDay struct {
	batchID string
	day     models.DayOfWeek
}

// Occupancy is a snapshot of persisted commitments from other timetables.
type Occupancy struct {
	faculty map[ownerCell]struct{}
	batch   map[ownerCell]struct{}
}

// NewOccupancy indexes persisted rows by faculty and by batch.
func NewOccupancy(rows []models.SlotOccupancy) *Occupancy {
	o := &Occupancy{
		faculty: make(map[ownerCell]struct{}, len(rows)),
		batch:   make(map[ownerCell]struct{}, len(rows)),
	}
	for _, row := range rows {
		if row.FacultyID != "" {
			o.faculty[ownerCell{owner: row.FacultyID, day: row.Day, period: row.PeriodNumber}] = struct{}{}
		}
		if row.BatchID != "" {
			o.batch[ownerCell{owner: row.BatchID, day: row.Day, period: row.PeriodNumber}] = struct{}{}
		}
	}
	return o
}

// FacultyBusy reports a persisted faculty commitment at (day, period).
func (o *Occupancy) FacultyBusy(facultyID string, day models.DayOfWeek, period int) bool {
	if o == nil {
		return false
	}
	_, ok := o.faculty[ownerCell{owner: facultyID, day: day, period: period}]
	return ok
}

// BatchBusy reports a persisted batch commitment at (day, period).
func (o *Occupancy) BatchBusy(batchID string, day models.DayOfWeek, period int) bool {
	if o == nil {
		return false
	}
	_, ok := o.batch[ownerCell{owner: batchID, day: day, period: period}]
	return ok
}

// Placement is one committed period of an assignment.
type Placement struct {
	AssignmentID string
	FacultyID    string
	CourseID     string
	BatchID      string
	CourseType   models.CourseType
	Slot         models.TimeSlot
}

// WorkingSet holds the placements committed so far in a run.
type WorkingSet struct {
	placements []Placement
	faculty    map[ownerCell]struct{}
	batch      map[ownerCell]struct{}
	course     map[ownerCell]struct{}
	labs       map[batchDay]map[string]struct{}
}

// NewWorkingSet returns an empty working set.
func NewWorkingSet() *WorkingSet {
	return &WorkingSet{
		faculty: make(map[ownerCell]struct{}),
		batch:   make(map[ownerCell]struct{}),
		course:  make(map[ownerCell]struct{}),
		labs:    make(map[batchDay]map[string]struct{}),
	}
}

// Add commits a placement and updates every index.
func (w *WorkingSet) Add(p Placement) {
	w.placements = append(w.placements, p)
	day, period := p.Slot.Day, p.Slot.PeriodNumber
	w.faculty[ownerCell{owner: p.FacultyID, day: day, period: period}] = struct{}{}
	w.batch[ownerCell{owner: p.BatchID, day: day, period: period}] = struct{}{}
	w.course[ownerCell{owner: p.CourseID, day: day, period: period}] = struct{}{}
	if p.CourseType == models.CourseTypeLab {
		key := batchDay{batchID: p.BatchID, day: day}
		if w.labs[key] == nil {
			w.labs[key] = make(map[string]struct{})
		}
		w.labs[key][p.CourseID] = struct{}{}
	}
}

// FacultyBusy reports whether the faculty already holds (day, period) in this run.
func (w *WorkingSet) FacultyBusy(facultyID string, day models.DayOfWeek, period int) bool {
	_, ok := w.faculty[ownerCell{owner: facultyID, day: day, period: period}]
	return ok
}

// BatchBusy reports whether the batch already holds (day, period) in this run.
func (w *WorkingSet) BatchBusy(batchID string, day models.DayOfWeek, period int) bool {
	_, ok := w.batch[ownerCell{owner: batchID, day: day, period: period}]
	return ok
}

// CourseAt reports whether the course has a period at (day, period) in this run.
func (w *WorkingSet) CourseAt(courseID string, day models.DayOfWeek, period int) bool {
	_, ok := w.course[ownerCell{owner: courseID, day: day, period: period}]
	return ok
}

// LabCoursesOn returns the number of distinct lab courses the batch has on the day,
// and whether courseID is one of them.
func (w *WorkingSet) LabCoursesOn(batchID string, day models.DayOfWeek, courseID string) (int, bool) {
	courses := w.labs[batchDay{batchID: batchID, day: day}]
	_, present := courses[courseID]
	return len(courses), present
}

// Len returns the number of committed placements.
func (w *WorkingSet) Len() int {
	return len(w.placements)
}

// Placements returns the committed placements in commit order.
func (w *WorkingSet) Placements() []Placement {
	out := make([]Placement, len(w.placements))
	copy(out, w.placements)
	return out
}

// ConflictOracle answers whether a slot is free for a faculty/batch pair,
// consulting both the run's working set and persisted commitments.
type ConflictOracle struct {
	working   *WorkingSet
	persisted *Occupancy
}

// NewConflictOracle builds an oracle over the two sources.
func NewConflictOracle(working *WorkingSet, persisted *Occupancy) *ConflictOracle {
	return &ConflictOracle{working: working, persisted: persisted}
}

// IsFree is false when the faculty or the batch already occupies the slot's (day, period).
func (o *ConflictOracle) IsFree(facultyID, batchID string, slot models.TimeSlot) bool {
	day, period := slot.Day, slot.PeriodNumber
	if o.working.FacultyBusy(facultyID, day, period) || o.persisted.FacultyBusy(facultyID, day, period) {
		return false
	}
	if o.working.BatchBusy(batchID, day, period) || o.persisted.BatchBusy(batchID, day, period) {
		return false
	}
	return true
}

// AllFree reports whether every slot passes IsFree.
func (o *ConflictOracle) AllFree(facultyID, batchID string, slots []models.TimeSlot) bool {
	for _, slot := range slots {
		if !o.IsFree(facultyID, batchID, slot) {
			return false
		}
	}
	return true
}
