package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mohmk10/sencours-back-sub000/internal/models"
	"github.com/Mohmk10/sencours-back-sub000/internal/service"
)

type CourseHandler struct {
	courseService *service.CourseService
}

func NewCourseHandler(courseService *service.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

// Catalog lists the published courses.
// GET /api/v1/courses
func (h *CourseHandler) Catalog(c *gin.Context) {
	courses, err := h.courseService.Catalog()
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

// GetBySlug serves the public course detail page with ordered content.
// GET /api/v1/courses/slug/:slug
func (h *CourseHandler) GetBySlug(c *gin.Context) {
	course, err := h.courseService.GetBySlug(c.Param("slug"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"course": course})
}

// GetContent returns the course with its sections and lessons in order.
// GET /api/v1/courses/:id
func (h *CourseHandler) GetContent(c *gin.Context) {
	callerID, role, ok := caller(c)
	if !ok {
		return
	}
	courseID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	course, err := h.courseService.GetContent(callerID, role, courseID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"course": course})
}

// Create makes a new draft course owned by the caller.
// POST /api/v1/courses
func (h *CourseHandler) Create(c *gin.Context) {
	callerID, role, ok := caller(c)
	if !ok {
		return
	}

	var req models.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	course, err := h.courseService.Create(callerID, role, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"course": course})
}

// Update edits a course's metadata.
// PUT /api/v1/courses/:id
func (h *CourseHandler) Update(c *gin.Context) {
	callerID, role, ok := caller(c)
	if !ok {
		return
	}
	courseID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	course, err := h.courseService.Update(callerID, role, courseID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"course": course})
}

// Publish opens the course for enrollment.
// POST /api/v1/courses/:id/publish
func (h *CourseHandler) Publish(c *gin.Context) {
	callerID, role, ok := caller(c)
	if !ok {
		return
	}
	courseID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	course, err := h.courseService.Publish(callerID, role, courseID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"course": course})
}

// Archive takes the course off the catalog.
// POST /api/v1/courses/:id/archive
func (h *CourseHandler) Archive(c *gin.Context) {
	callerID, role, ok := caller(c)
	if !ok {
		return
	}
	courseID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	course, err := h.courseService.Archive(callerID, role, courseID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"course": course})
}

// Delete removes the course and everything under it.
// DELETE /api/v1/courses/:id
func (h *CourseHandler) Delete(c *gin.Context) {
	callerID, role, ok := caller(c)
	if !ok {
		return
	}
	courseID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	if err := h.courseService.Delete(callerID, role, courseID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "course deleted successfully"})
}

// Mine lists the caller's own courses, drafts included.
// GET /api/v1/instructor/courses
func (h *CourseHandler) Mine(c *gin.Context) {
	callerID, _, ok := caller(c)
	if !ok {
		return
	}

	courses, err := h.courseService.ListForInstructor(callerID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"courses": courses})
}
