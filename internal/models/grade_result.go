package models

import "time"

// CategoryCompletion reports graded-vs-expected progress for one category.
type CategoryCompletion struct {
	Category  GradeItemCategory `json:"category"`
	Completed int               `json:"completed"`
	Expected  int               `json:"expected"`
	Rate      float64           `json:"rate"`
}

// GradeResult is the output of the grade aggregation. WeightedTotal and
// ProgressPercentage are related but distinct metrics: the former combines
// category averages under the course weights, the latter is earned points
// over total possible points.
type GradeResult struct {
	AttendanceRate     float64              `json:"attendance_rate"`
	AssignmentAvg      float64              `json:"assignment_avg"`
	ExamAvg            float64              `json:"exam_avg"`
	WeightedTotal      float64              `json:"weighted_total"`
	ProgressPercentage float64              `json:"progress_percentage"`
	Completion         []CategoryCompletion `json:"completion"`
}

// GradeSummary is the denormalized snapshot persisted after recalculation.
type GradeSummary struct {
	EnrollmentID       string    `json:"enrollment_id"`
	StudentID          string    `json:"student_id"`
	CourseID           string    `json:"course_id"`
	WeightedTotal      float64   `json:"weighted_total"`
	ProgressPercentage float64   `json:"progress_percentage"`
	CalculatedAt       time.Time `json:"calculated_at"`
}

// RecalcOutcome describes which write path persisted the recalculated grade.
type RecalcOutcome string

const (
	// RecalcPersisted means the summary store accepted the snapshot.
	RecalcPersisted RecalcOutcome = "PERSISTED"
	// RecalcFallback means only the enrollment final_grade cache was updated.
	RecalcFallback RecalcOutcome = "FALLBACK"
	// RecalcUnavailable means no write path succeeded; the result is still
	// valid and the next on-demand computation self-corrects.
	RecalcUnavailable RecalcOutcome = "UNAVAILABLE"
)

// RecalcResult pairs a computed grade with the persistence outcome.
type RecalcResult struct {
	EnrollmentID string        `json:"enrollment_id"`
	Result       GradeResult   `json:"result"`
	Outcome      RecalcOutcome `json:"outcome"`
	CalculatedAt time.Time     `json:"calculated_at"`
}
