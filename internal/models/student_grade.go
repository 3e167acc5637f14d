package models

import "time"

// SubmissionState is the tagged lifecycle of a grade row. A row only counts
// as completed once it reaches GRADED; a submission alone never does.
type SubmissionState string

const (
	StateNotSubmitted SubmissionState = "NOT_SUBMITTED"
	StateSubmitted    SubmissionState = "SUBMITTED"
	StateGraded       SubmissionState = "GRADED"
)

// StudentGrade is one grade row per enrollment x catalog item. Rows are
// materialized with score 0 at enrollment time so every computation can
// assume a dense record set.
type StudentGrade struct {
	ID           string          `db:"id" json:"id"`
	EnrollmentID string          `db:"enrollment_id" json:"enrollment_id"`
	GradeItemID  string          `db:"grade_item_id" json:"grade_item_id"`
	Score        float64         `db:"score" json:"score"`
	State        SubmissionState `db:"state" json:"state"`
	SubmittedAt  *time.Time      `db:"submitted_at" json:"submitted_at,omitempty"`
	Payload      *string         `db:"payload" json:"payload,omitempty"`
	Feedback     *string         `db:"feedback" json:"feedback,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// Completed reports whether the row counts toward progress.
func (g StudentGrade) Completed() bool {
	return g.State == StateGraded
}

// StudentGradeDetail joins the grade row with its catalog item.
type StudentGradeDetail struct {
	StudentGrade
	Category   GradeItemCategory `db:"category" json:"category"`
	ItemName   string            `db:"item_name" json:"item_name"`
	MaxScore   float64           `db:"max_score" json:"max_score"`
	DueDate    *time.Time        `db:"due_date" json:"due_date,omitempty"`
	OrderIndex int               `db:"order_index" json:"order_index"`
	IsLate     bool              `db:"-" json:"is_late"`
}

// Late derives the late flag from the submission timestamp and due date.
// It is recomputed on every read, never stored.
func (d *StudentGradeDetail) Late() bool {
	if d.SubmittedAt == nil || d.DueDate == nil {
		return false
	}
	return d.SubmittedAt.After(*d.DueDate)
}
