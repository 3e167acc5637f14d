package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edulearn-id/lms-api/internal/service"
	"github.com/edulearn-id/lms-api/pkg/response"
)

// TranscriptHandler exposes grade report and transcript endpoints.
type TranscriptHandler struct {
	transcripts *service.TranscriptService
}

// NewTranscriptHandler constructs handler.
func NewTranscriptHandler(transcripts *service.TranscriptService) *TranscriptHandler {
	return &TranscriptHandler{transcripts: transcripts}
}

// The literal segment "me" resolves to the authenticated user.
func (h *TranscriptHandler) studentID(c *gin.Context) string {
	id := c.Param("id")
	if id == "me" {
		if claims := claimsFromContext(c); claims != nil {
			return claims.UserID
		}
	}
	return id
}

// CourseReport godoc
// @Summary On-demand grade report for one course enrollment
// @Tags Transcripts
// @Produce json
// @Param id path string true "Student ID"
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/courses/{courseId}/report [get]
func (h *TranscriptHandler) CourseReport(c *gin.Context) {
	report, err := h.transcripts.CourseReport(c.Request.Context(), h.studentID(c), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Transcript godoc
// @Summary Cross-course transcript for a student
// @Tags Transcripts
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/transcript [get]
func (h *TranscriptHandler) Transcript(c *gin.Context) {
	transcript, err := h.transcripts.Transcript(c.Request.Context(), h.studentID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, transcript, nil)
}

// Export godoc
// @Summary Export a transcript as CSV or PDF
// @Tags Transcripts
// @Produce octet-stream
// @Param id path string true "Student ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /students/{id}/transcript/export [get]
func (h *TranscriptHandler) Export(c *gin.Context) {
	name, contentType, payload, err := h.transcripts.Export(c.Request.Context(), h.studentID(c), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, contentType, payload)
}
