package dto

import "time"

// GenerateTimetableRequest triggers a full regeneration of one faculty member's timetable.
type GenerateTimetableRequest struct {
	FacultyID    string `json:"facultyId" validate:"required"`
	AcademicYear string `json:"academicYear" validate:"required,max=16"`
	Semester     string `json:"semester" validate:"required,max=16"`
	// Seed makes a run reproducible. A random seed is drawn and echoed back when omitted.
	Seed *int64 `json:"seed,omitempty"`
}

// AllocationSummary reports how many periods one assignment needed and received.
type AllocationSummary struct {
	AssignmentID string `json:"assignmentId"`
	CourseID     string `json:"courseId"`
	BatchID      string `json:"batchId"`
	CourseType   string `json:"courseType"`
	Required     int    `json:"required"`
	Placed       int    `json:"placed"`
	Shortfall    int    `json:"shortfall"`
}

// PlacedPeriod is one period written by a generation run.
type PlacedPeriod struct {
	EntryID      string `json:"entryId"`
	CourseID     string `json:"courseId"`
	BatchID      string `json:"batchId"`
	CourseType   string `json:"courseType"`
	TimeSlotID   string `json:"timeSlotId"`
	DayOfWeek    string `json:"dayOfWeek"`
	PeriodNumber int    `json:"periodNumber"`
}

// GenerateTimetableResponse describes the outcome of a generation run.
type GenerateTimetableResponse struct {
	FacultyID      string              `json:"facultyId"`
	AcademicYear   string              `json:"academicYear"`
	Semester       string              `json:"semester"`
	Seed           int64               `json:"seed"`
	RemovedEntries int64               `json:"removedEntries"`
	PlacedPeriods  int                 `json:"placedPeriods"`
	Shortfall      int                 `json:"shortfall"`
	Complete       bool                `json:"complete"`
	Allocations    []AllocationSummary `json:"allocations"`
	Entries        []PlacedPeriod      `json:"entries"`
}

// TimetableEntryDTO is the read model of a persisted entry.
type TimetableEntryDTO struct {
	ID              string `json:"id"`
	FacultyID       string `json:"facultyId"`
	FacultyName     string `json:"facultyName"`
	CourseID        string `json:"courseId"`
	CourseTitle     string `json:"courseTitle"`
	CourseCode      string `json:"courseCode"`
	CourseType      string `json:"courseType"`
	BatchID         string `json:"batchId"`
	BatchName       string `json:"batchName"`
	BatchDepartment string `json:"batchDepartment"`
	BatchSection    string `json:"batchSection"`
	TimeSlotID      string `json:"timeSlotId"`
	DayOfWeek       string `json:"dayOfWeek"`
	PeriodNumber    int    `json:"periodNumber"`
	StartTime       string `json:"startTime"`
	EndTime         string `json:"endTime"`
	AcademicYear    string `json:"academicYear"`
	Semester        string `json:"semester"`
}

// BatchTimetableQuery selects a batch timetable for one term.
type BatchTimetableQuery struct {
	AcademicYear string `form:"academicYear" validate:"required"`
	Semester     string `form:"semester" validate:"required"`
}

// TimeSlotDTO is a catalog cell.
type TimeSlotDTO struct {
	ID           string `json:"id"`
	DayOfWeek    string `json:"dayOfWeek"`
	PeriodNumber int    `json:"periodNumber"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
}

// AvailabilityQuery asks whether a faculty member is free at one cell.
type AvailabilityQuery struct {
	DayOfWeek    string `form:"day" validate:"required"`
	PeriodNumber int    `form:"period" validate:"required,min=1"`
}

// AvailabilityResponse answers an AvailabilityQuery.
type AvailabilityResponse struct {
	FacultyID    string `json:"facultyId"`
	DayOfWeek    string `json:"dayOfWeek"`
	PeriodNumber int    `json:"periodNumber"`
	Available    bool   `json:"available"`
}

// ClearTimetableResponse reports the entries removed for a faculty member.
type ClearTimetableResponse struct {
	FacultyID      string `json:"facultyId"`
	RemovedEntries int64  `json:"removedEntries"`
}

// RetireTimetableResponse reports the entries removed for a retired course or batch.
type RetireTimetableResponse struct {
	Scope          string `json:"scope"`
	ID             string `json:"id"`
	RemovedEntries int64  `json:"removedEntries"`
}

// RegenerateTimetablesRequest queues regeneration for several faculty members.
type RegenerateTimetablesRequest struct {
	FacultyIDs   []string `json:"facultyIds" validate:"required,min=1,max=200,dive,required"`
	AcademicYear string   `json:"academicYear" validate:"required,max=16"`
	Semester     string   `json:"semester" validate:"required,max=16"`
}

// Job status values.
const (
	JobStatusQueued              = "queued"
	JobStatusRunning             = "running"
	JobStatusCompleted           = "completed"
	JobStatusCompletedWithErrors = "completed_with_errors"
	JobStatusFailed              = "failed"
)

// FacultyJobResult is the per-faculty result inside a regeneration job.
type FacultyJobResult struct {
	FacultyID     string `json:"facultyId"`
	Status        string `json:"status"`
	PlacedPeriods int    `json:"placedPeriods"`
	Shortfall     int    `json:"shortfall"`
	Error         string `json:"error,omitempty"`
}

// RegenerationJobStatus is stored in Redis while a regeneration job runs.
type RegenerationJobStatus struct {
	JobID        string             `json:"jobId"`
	Status       string             `json:"status"`
	AcademicYear string             `json:"academicYear"`
	Semester     string             `json:"semester"`
	FacultyIDs   []string           `json:"facultyIds"`
	Results      []FacultyJobResult `json:"results"`
	Error        string             `json:"error,omitempty"`
	EnqueuedAt   time.Time          `json:"enqueuedAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}
