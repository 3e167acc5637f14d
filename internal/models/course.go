package models

import "time"

// Course defines a gradable course with category weights and expected
// category cardinalities. Weights are integer percentages and must sum to
// 100; this is enforced at configuration time only.
type Course struct {
	ID               string    `db:"id" json:"id"`
	Title            string    `db:"title" json:"title"`
	AttendanceWeight int       `db:"attendance_weight" json:"attendance_weight"`
	AssignmentWeight int       `db:"assignment_weight" json:"assignment_weight"`
	ExamWeight       int       `db:"exam_weight" json:"exam_weight"`
	WeeksCount       int       `db:"weeks_count" json:"weeks_count"`
	AssignmentCount  int       `db:"assignment_count" json:"assignment_count"`
	ExamCount        int       `db:"exam_count" json:"exam_count"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// WeightsValid reports whether the three category weights sum to exactly 100.
func (c Course) WeightsValid() bool {
	return c.AttendanceWeight+c.AssignmentWeight+c.ExamWeight == 100
}

// ExpectedItemCount returns the total catalog cardinality for the course.
func (c Course) ExpectedItemCount() int {
	return c.WeeksCount + c.AssignmentCount + c.ExamCount
}

// CourseFilter scopes course listing.
type CourseFilter struct {
	Search   string
	Page     int
	PageSize int
}
