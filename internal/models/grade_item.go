package models

import "time"

// GradeItemCategory groups catalog items into weighted categories.
type GradeItemCategory string

const (
	CategoryAttendance GradeItemCategory = "ATTENDANCE"
	CategoryAssignment GradeItemCategory = "ASSIGNMENT"
	CategoryExam       GradeItemCategory = "EXAM"
)

// Valid returns true when the category is a supported value.
func (c GradeItemCategory) Valid() bool {
	switch c {
	case CategoryAttendance, CategoryAssignment, CategoryExam:
		return true
	default:
		return false
	}
}

// GradeItem is a single gradable entry in a course catalog. Items are
// immutable once provisioned except for administrative edits and are never
// deleted while student grades reference them.
type GradeItem struct {
	ID         string            `db:"id" json:"id"`
	CourseID   string            `db:"course_id" json:"course_id"`
	Category   GradeItemCategory `db:"category" json:"category"`
	Name       string            `db:"name" json:"name"`
	MaxScore   float64           `db:"max_score" json:"max_score"`
	DueDate    *time.Time        `db:"due_date" json:"due_date,omitempty"`
	OrderIndex int               `db:"order_index" json:"order_index"`
	CreatedAt  time.Time         `db:"created_at" json:"created_at"`
}
