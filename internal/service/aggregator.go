package service

import (
	"math"

	"github.com/edulearn-id/lms-api/internal/models"
)

// The aggregator is deliberately side-effect free: every read path and the
// recalculation write path call the same functions, so the numbers agree
// everywhere and repeated calls with identical input produce identical
// output.

// AttendanceRate returns attended seconds over scheduled seconds as a
// percentage, clamped to [0,100]. A zero denominator yields 0.
func AttendanceRate(records []models.AttendanceRecord) float64 {
	var attended, scheduled int64
	for _, record := range records {
		attended += record.DurationSeconds
		scheduled += record.TotalDurationSeconds
	}
	if scheduled == 0 {
		return 0
	}
	rate := float64(attended) / float64(scheduled) * 100
	return clamp(rate, 0, 100)
}

// CategoryAverage averages scores over the expected catalog cardinality,
// not just the graded rows. Ungraded placeholder rows carry score 0, so an
// incomplete course shows a depressed average rather than an inflated one.
func CategoryAverage(rows []models.StudentGrade, expected int) float64 {
	denominator := expected
	if denominator < len(rows) {
		denominator = len(rows)
	}
	if denominator == 0 {
		return 0
	}
	var sum float64
	for _, row := range rows {
		sum += row.Score
	}
	return sum / float64(denominator)
}

// ComputeGrade turns raw attendance records and grade rows into the full
// grade result for one enrollment. Weights are applied exactly as stored on
// the course; a weight set that does not sum to 100 is a configuration bug
// and is not normalized here.
func ComputeGrade(course models.Course, attendance []models.AttendanceRecord, assignments, exams []models.StudentGrade) models.GradeResult {
	attendanceRate := AttendanceRate(attendance)
	assignmentAvg := CategoryAverage(assignments, course.AssignmentCount)
	examAvg := CategoryAverage(exams, course.ExamCount)

	weightedTotal := attendanceRate*float64(course.AttendanceWeight)/100 +
		assignmentAvg*float64(course.AssignmentWeight)/100 +
		examAvg*float64(course.ExamWeight)/100

	return models.GradeResult{
		AttendanceRate:     round2(attendanceRate),
		AssignmentAvg:      round2(assignmentAvg),
		ExamAvg:            round2(examAvg),
		WeightedTotal:      round2(weightedTotal),
		ProgressPercentage: round2(progressPercentage(course, attendanceRate, assignments, exams)),
		Completion:         completionRates(course, attendance, assignments, exams),
	}
}

// progressPercentage is earned points over possible points, a metric
// distinct from the weighted total: possible points span the full catalog
// at 100 each, and only graded rows contribute to earned. Attendance earns
// proportionally to the attendance rate across the week items.
func progressPercentage(course models.Course, attendanceRate float64, assignments, exams []models.StudentGrade) float64 {
	possible := float64(course.ExpectedItemCount()) * 100
	if possible == 0 {
		return 0
	}
	earned := attendanceRate * float64(course.WeeksCount)
	for _, row := range assignments {
		if row.Completed() {
			earned += row.Score
		}
	}
	for _, row := range exams {
		if row.Completed() {
			earned += row.Score
		}
	}
	return clamp(earned/possible*100, 0, 100)
}

func completionRates(course models.Course, attendance []models.AttendanceRecord, assignments, exams []models.StudentGrade) []models.CategoryCompletion {
	attended := len(attendance)
	if course.WeeksCount > 0 && attended > course.WeeksCount {
		attended = course.WeeksCount
	}
	return []models.CategoryCompletion{
		completion(models.CategoryAttendance, attended, course.WeeksCount),
		completion(models.CategoryAssignment, countGraded(assignments), course.AssignmentCount),
		completion(models.CategoryExam, countGraded(exams), course.ExamCount),
	}
}

func completion(category models.GradeItemCategory, completed, expected int) models.CategoryCompletion {
	rate := 0.0
	if expected > 0 {
		rate = round2(float64(completed) / float64(expected) * 100)
	}
	return models.CategoryCompletion{Category: category, Completed: completed, Expected: expected, Rate: rate}
}

func countGraded(rows []models.StudentGrade) int {
	count := 0
	for _, row := range rows {
		if row.Completed() {
			count++
		}
	}
	return count
}

// SplitByCategory partitions dense grade rows into the aggregator's
// per-category inputs.
func SplitByCategory(details []models.StudentGradeDetail) (assignments, exams []models.StudentGrade) {
	for _, detail := range details {
		switch detail.Category {
		case models.CategoryAssignment:
			assignments = append(assignments, detail.StudentGrade)
		case models.CategoryExam:
			exams = append(exams, detail.StudentGrade)
		}
	}
	return assignments, exams
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
