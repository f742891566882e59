package models

import (
	"strings"
	"time"
)

// DayOfWeek follows ISO numbering: Monday is 1, Sunday is 7.
type DayOfWeek int

const (
	Monday DayOfWeek = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = map[DayOfWeek]string{
	Monday:    "MONDAY",
	Tuesday:   "TUESDAY",
	Wednesday: "WEDNESDAY",
	Thursday:  "THURSDAY",
	Friday:    "FRIDAY",
	Saturday:  "SATURDAY",
	Sunday:    "SUNDAY",
}

// TeachingDays lists the days sessions may be placed on.
var TeachingDays = []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// String returns the upper-case day name.
func (d DayOfWeek) String() string {
	if name, ok := dayNames[d]; ok {
		return name
	}
	return "UNKNOWN"
}

// Valid reports whether d is within Monday..Sunday.
func (d DayOfWeek) Valid() bool {
	return d >= Monday && d <= Sunday
}

// ParseDayOfWeek accepts day names case-insensitively. Zero is returned for unknown input.
func ParseDayOfWeek(raw string) DayOfWeek {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	for day, name := range dayNames {
		if name == raw {
			return day
		}
	}
	return 0
}

// TimeSlot is a catalog cell. Break rows carry period number 0.
type TimeSlot struct {
	ID           string    `db:"id" json:"id"`
	Day          DayOfWeek `db:"day_of_week" json:"day_of_week"`
	PeriodNumber int       `db:"period_number" json:"period_number"`
	StartTime    string    `db:"start_time" json:"start_time"`
	EndTime      string    `db:"end_time" json:"end_time"`
	IsBreak      bool      `db:"is_break" json:"is_break"`
}

// TimetableEntry is one occupied period of one assignment.
type TimetableEntry struct {
	ID           string    `db:"id" json:"id"`
	FacultyID    string    `db:"faculty_id" json:"faculty_id"`
	CourseID     string    `db:"course_id" json:"course_id"`
	BatchID      string    `db:"batch_id" json:"batch_id"`
	TimeSlotID   string    `db:"time_slot_id" json:"time_slot_id"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	Semester     string    `db:"semester" json:"semester"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// TimetableEntryDetail joins an entry with its faculty, course, batch and slot.
type TimetableEntryDetail struct {
	TimetableEntry
	FacultyName     string     `db:"faculty_name" json:"faculty_name"`
	CourseTitle     string     `db:"course_title" json:"course_title"`
	CourseCode      string     `db:"course_code" json:"course_code"`
	CourseType      CourseType `db:"course_type" json:"course_type"`
	BatchName       string     `db:"batch_name" json:"batch_name"`
	BatchDepartment string     `db:"batch_department" json:"batch_department"`
	BatchSection    string     `db:"batch_section" json:"batch_section"`
	Day             DayOfWeek  `db:"day_of_week" json:"day_of_week"`
	PeriodNumber    int        `db:"period_number" json:"period_number"`
	StartTime       string     `db:"start_time" json:"start_time"`
	EndTime         string     `db:"end_time" json:"end_time"`
}

// SlotOccupancy is a persisted (faculty, batch, day, period) commitment.
type SlotOccupancy struct {
	FacultyID    string    `db:"faculty_id"`
	BatchID      string    `db:"batch_id"`
	Day          DayOfWeek `db:"day_of_week"`
	PeriodNumber int       `db:"period_number"`
}
