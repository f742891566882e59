package models

import "time"

// CourseType classifies how a course's contact periods are distributed.
type CourseType string

const (
	CourseTypeAcademic    CourseType = "ACADEMIC"
	CourseTypeLab         CourseType = "LAB"
	CourseTypeNonAcademic CourseType = "NON_ACADEMIC"
)

// Faculty is a teaching staff member.
type Faculty struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Department  string    `db:"department" json:"department"`
	Designation string    `db:"designation" json:"designation"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Course belongs to the course catalog.
type Course struct {
	ID             string     `db:"id" json:"id"`
	Title          string     `db:"title" json:"title"`
	Code           string     `db:"code" json:"code"`
	Department     string     `db:"department" json:"department"`
	Semester       int        `db:"semester" json:"semester"`
	ContactPeriods int        `db:"contact_periods" json:"contact_periods"`
	Type           CourseType `db:"type" json:"type"`
}

// Batch is a student cohort receiving sessions.
type Batch struct {
	ID         string `db:"id" json:"id"`
	Name       string `db:"batch_name" json:"batch_name"`
	Department string `db:"department" json:"department"`
	Section    string `db:"section" json:"section"`
}

// Assignment links a faculty member to a course taught to a batch.
type Assignment struct {
	ID             string     `db:"id" json:"id"`
	FacultyID      string     `db:"faculty_id" json:"faculty_id"`
	CourseID       string     `db:"course_id" json:"course_id"`
	BatchID        string     `db:"batch_id" json:"batch_id"`
	CourseType     CourseType `db:"course_type" json:"course_type"`
	ContactPeriods int        `db:"contact_periods" json:"contact_periods"`
}
