package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mohmk10/sencours-back-sub000/internal/models"
	"github.com/Mohmk10/sencours-back-sub000/internal/service"
)

type LessonHandler struct {
	lessonService *service.LessonService
}

func NewLessonHandler(lessonService *service.LessonService) *LessonHandler {
	return &LessonHandler{lessonService: lessonService}
}

// Create appends a lesson at the end of the section.
// POST /api/v1/sections/:id/lessons
func (h *LessonHandler) Create(c *gin.Context) {
	callerID, role, ok := caller(c)
	if !ok {
		return
	}
	sectionID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req models.CreateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lesson, err := h.lessonService.Create(callerID, role, sectionID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"lesson": lesson})
}

// Reorder applies a full permutation of the section's lessons.
// PUT /api/v1/sections/:id/lessons/reorder
func (h *LessonHandler) Reorder(c *gin.Context) {
	callerID, role, ok := caller(c)
	if !ok {
		return
	}
	sectionID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req models.ReorderLessonsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lessons, err := h.lessonService.Reorder(callerID, role, sectionID, req.LessonIDs)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lessons": lessons})
}

// Update edits a lesson's content fields.
// PUT /api/v1/lessons/:id
func (h *LessonHandler) Update(c *gin.Context) {
	callerID, role, ok := caller(c)
	if !ok {
		return
	}
	lessonID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lesson, err := h.lessonService.Update(callerID, role, lessonID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lesson": lesson})
}

// Delete removes a lesson and its progress rows.
// DELETE /api/v1/lessons/:id
func (h *LessonHandler) Delete(c *gin.Context) {
	callerID, role, ok := caller(c)
	if !ok {
		return
	}
	lessonID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	if err := h.lessonService.Delete(callerID, role, lessonID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "lesson deleted successfully"})
}

// List returns the lessons of a section in display order.
// GET /api/v1/sections/:id/lessons
func (h *LessonHandler) List(c *gin.Context) {
	sectionID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	lessons, err := h.lessonService.List(sectionID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lessons": lessons})
}
