package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mohmk10/sencours-back-sub000/internal/service"
)

type ProgressHandler struct {
	progressService *service.ProgressService
}

func NewProgressHandler(progressService *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

// Complete marks one lesson as completed. Repeating the call is a no-op.
// PUT /api/v1/enrollments/:id/lessons/:lessonId/complete
func (h *ProgressHandler) Complete(c *gin.Context) {
	callerID, role, ok := caller(c)
	if !ok {
		return
	}
	enrollmentID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	lessonID, ok := parseUintParam(c, "lessonId")
	if !ok {
		return
	}

	row, err := h.progressService.MarkCompleted(callerID, role, enrollmentID, lessonID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"progress": row})
}

// Uncomplete marks one lesson back as incomplete, clearing the enrollment's
// completion stamp if it had one.
// PUT /api/v1/enrollments/:id/lessons/:lessonId/uncomplete
func (h *ProgressHandler) Uncomplete(c *gin.Context) {
	callerID, role, ok := caller(c)
	if !ok {
		return
	}
	enrollmentID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	lessonID, ok := parseUintParam(c, "lessonId")
	if !ok {
		return
	}

	row, err := h.progressService.MarkIncomplete(callerID, role, enrollmentID, lessonID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"progress": row})
}

// Report returns the enrollment's summary and per-lesson rows in course
// display order.
// GET /api/v1/enrollments/:id/progress
func (h *ProgressHandler) Report(c *gin.Context) {
	callerID, role, ok := caller(c)
	if !ok {
		return
	}
	enrollmentID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	report, err := h.progressService.GetReport(callerID, role, enrollmentID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
