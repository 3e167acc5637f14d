package models

import "time"

// AttendanceRecord captures presence for one course session. Many records
// exist per (student, course) pair; they are aggregated by duration, not
// tied 1:1 to catalog items.
type AttendanceRecord struct {
	ID                   string    `db:"id" json:"id"`
	StudentID            string    `db:"student_id" json:"student_id"`
	CourseID             string    `db:"course_id" json:"course_id"`
	SessionID            string    `db:"session_id" json:"session_id"`
	DurationSeconds      int64     `db:"duration_seconds" json:"duration_seconds"`
	TotalDurationSeconds int64     `db:"total_duration_seconds" json:"total_duration_seconds"`
	Date                 time.Time `db:"date" json:"date"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
}

// AttendanceSummary reports the aggregate attendance rate for a student in
// a course.
type AttendanceSummary struct {
	StudentID    string  `json:"student_id"`
	CourseID     string  `json:"course_id"`
	SessionCount int     `json:"session_count"`
	Rate         float64 `json:"rate"`
}
