package models

import "time"

// CourseGradeReport is the on-demand view of one enrollment, recomputed
// from raw records rather than read from the cached final grade.
type CourseGradeReport struct {
	EnrollmentID string      `json:"enrollment_id"`
	CourseID     string      `json:"course_id"`
	CourseTitle  string      `json:"course_title"`
	Result       GradeResult `json:"result"`
	CachedFinal  *float64    `json:"cached_final,omitempty"`
	GeneratedAt  time.Time   `json:"generated_at"`
}

// Transcript aggregates course reports across a student's enrollments.
type Transcript struct {
	StudentID   string              `json:"student_id"`
	Courses     []CourseGradeReport `json:"courses"`
	GeneratedAt time.Time           `json:"generated_at"`
}
