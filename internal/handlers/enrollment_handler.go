package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mohmk10/sencours-back-sub000/internal/models"
	"github.com/Mohmk10/sencours-back-sub000/internal/service"
)

type EnrollmentHandler struct {
	enrollmentService *service.EnrollmentService
}

func NewEnrollmentHandler(enrollmentService *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentService: enrollmentService}
}

// Enroll joins the caller to a published course.
// POST /api/v1/enrollments
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	callerID, _, ok := caller(c)
	if !ok {
		return
	}

	var req models.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	enrollment, err := h.enrollmentService.Enroll(c.Request.Context(), callerID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"enrollment": enrollment})
}

// Get returns one enrollment for its owner or an admin.
// GET /api/v1/enrollments/:id
func (h *EnrollmentHandler) Get(c *gin.Context) {
	callerID, role, ok := caller(c)
	if !ok {
		return
	}
	enrollmentID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	enrollment, err := h.enrollmentService.Get(callerID, role, enrollmentID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"enrollment": enrollment})
}

// Mine lists the caller's enrollments, most recent first.
// GET /api/v1/enrollments
func (h *EnrollmentHandler) Mine(c *gin.Context) {
	callerID, _, ok := caller(c)
	if !ok {
		return
	}

	enrollments, err := h.enrollmentService.ListForUser(callerID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"enrollments": enrollments})
}
