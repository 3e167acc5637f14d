package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edulearn-id/lms-api/internal/models"
	"github.com/edulearn-id/lms-api/pkg/config"
	appErrors "github.com/edulearn-id/lms-api/pkg/errors"
	"github.com/edulearn-id/lms-api/pkg/export"
)

type transcriptEnrollments interface {
	FindByStudentAndCourse(ctx context.Context, studentID, courseID string) (*models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.EnrollmentDetail, error)
}

// TranscriptService builds on-demand grade reports and transcript exports.
// Reports are always recomputed from raw records; the cached final grade is
// included for comparison but never trusted as the source of truth.
type TranscriptService struct {
	enrollments transcriptEnrollments
	courses     courseReader
	grades      studentGradeLister
	attendance  attendanceLister
	cache       *CacheService
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	reportTTL   time.Duration
	exports     config.ExportsConfig
	logger      *zap.Logger
}

// NewTranscriptService constructs TranscriptService.
func NewTranscriptService(enrollments transcriptEnrollments, courses courseReader, grades studentGradeLister, attendance attendanceLister, cache *CacheService, reportTTL time.Duration, exports config.ExportsConfig, logger *zap.Logger) *TranscriptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptService{
		enrollments: enrollments,
		courses:     courses,
		grades:      grades,
		attendance:  attendance,
		cache:       cache,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		reportTTL:   reportTTL,
		exports:     exports,
		logger:      logger,
	}
}

// CourseReport recomputes the grade view for one enrollment. Cached copies
// are invalidated on every recalculation, so a hit is never staler than the
// last grading event.
func (s *TranscriptService) CourseReport(ctx context.Context, studentID, courseID string) (*models.CourseGradeReport, error) {
	key := fmt.Sprintf("report:%s:%s", studentID, courseID)
	if s.cache != nil {
		var cached models.CourseGradeReport
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return &cached, nil
		}
	}

	enrollment, err := s.enrollments.FindByStudentAndCourse(ctx, studentID, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.ErrNotEnrolled
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	report, err := s.buildReport(ctx, *course, enrollment, course.Title)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, report, s.reportTTL)
	}
	return report, nil
}

// Transcript assembles the per-course reports for every enrollment a
// student holds, dropped ones included.
func (s *TranscriptService) Transcript(ctx context.Context, studentID string) (*models.Transcript, error) {
	details, err := s.enrollments.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	transcript := &models.Transcript{
		StudentID:   studentID,
		Courses:     make([]models.CourseGradeReport, 0, len(details)),
		GeneratedAt: time.Now().UTC(),
	}
	for i := range details {
		course, err := s.courses.FindByID(ctx, details[i].CourseID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
		report, err := s.buildReport(ctx, *course, &details[i].Enrollment, details[i].CourseTitle)
		if err != nil {
			return nil, err
		}
		transcript.Courses = append(transcript.Courses, *report)
	}
	return transcript, nil
}

// Export renders the transcript as CSV or PDF and returns the file name,
// content type and payload.
func (s *TranscriptService) Export(ctx context.Context, studentID, format string) (string, string, []byte, error) {
	if !s.exports.Enabled {
		return "", "", nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "transcript exports are disabled")
	}
	transcript, err := s.Transcript(ctx, studentID)
	if err != nil {
		return "", "", nil, err
	}
	dataset := transcriptDataset(transcript)

	switch strings.ToLower(format) {
	case "csv", "":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return "", "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return fmt.Sprintf("transcript_%s.csv", studentID), "text/csv", payload, nil
	case "pdf":
		dataset.Title = s.exports.Title
		payload, err := s.pdf.Render(dataset)
		if err != nil {
			return "", "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return fmt.Sprintf("transcript_%s.pdf", studentID), "application/pdf", payload, nil
	default:
		return "", "", nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format: "+format)
	}
}

func (s *TranscriptService) buildReport(ctx context.Context, course models.Course, enrollment *models.Enrollment, title string) (*models.CourseGradeReport, error) {
	details, err := s.grades.ListByEnrollment(ctx, enrollment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	records, err := s.attendance.ListByStudentAndCourse(ctx, enrollment.StudentID, enrollment.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	assignments, exams := SplitByCategory(details)
	result := ComputeGrade(course, records, assignments, exams)
	return &models.CourseGradeReport{
		EnrollmentID: enrollment.ID,
		CourseID:     enrollment.CourseID,
		CourseTitle:  title,
		Result:       result,
		CachedFinal:  enrollment.FinalGrade,
		GeneratedAt:  time.Now().UTC(),
	}, nil
}

func transcriptDataset(transcript *models.Transcript) export.Dataset {
	rows := make([][]string, 0, len(transcript.Courses))
	for _, course := range transcript.Courses {
		rows = append(rows, []string{
			course.CourseTitle,
			fmt.Sprintf("%.2f", course.Result.AttendanceRate),
			fmt.Sprintf("%.2f", course.Result.AssignmentAvg),
			fmt.Sprintf("%.2f", course.Result.ExamAvg),
			fmt.Sprintf("%.2f", course.Result.WeightedTotal),
			fmt.Sprintf("%.2f", course.Result.ProgressPercentage),
		})
	}
	return export.Dataset{
		Headers: []string{"Course", "Attendance Rate", "Assignment Avg", "Exam Avg", "Weighted Total", "Progress %"},
		Rows:    rows,
	}
}
