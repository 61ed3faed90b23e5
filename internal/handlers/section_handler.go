package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mohmk10/sencours-back-sub000/internal/models"
	"github.com/Mohmk10/sencours-back-sub000/internal/service"
)

type SectionHandler struct {
	sectionService *service.SectionService
}

func NewSectionHandler(sectionService *service.SectionService) *SectionHandler {
	return &SectionHandler{sectionService: sectionService}
}

// Create appends a section at the end of the course.
// POST /api/v1/courses/:id/sections
func (h *SectionHandler) Create(c *gin.Context) {
	callerID, role, ok := caller(c)
	if !ok {
		return
	}
	courseID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req models.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	section, err := h.sectionService.Create(callerID, role, courseID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"section": section})
}

// Reorder applies a full permutation of the course's sections.
// PUT /api/v1/courses/:id/sections/reorder
func (h *SectionHandler) Reorder(c *gin.Context) {
	callerID, role, ok := caller(c)
	if !ok {
		return
	}
	courseID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req models.ReorderSectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sections, err := h.sectionService.Reorder(callerID, role, courseID, req.SectionIDs)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sections": sections})
}

// Update renames a section.
// PUT /api/v1/sections/:id
func (h *SectionHandler) Update(c *gin.Context) {
	callerID, role, ok := caller(c)
	if !ok {
		return
	}
	sectionID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req models.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	section, err := h.sectionService.Update(callerID, role, sectionID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"section": section})
}

// Delete removes a section together with its lessons and progress rows.
// DELETE /api/v1/sections/:id
func (h *SectionHandler) Delete(c *gin.Context) {
	callerID, role, ok := caller(c)
	if !ok {
		return
	}
	sectionID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	if err := h.sectionService.Delete(callerID, role, sectionID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "section deleted successfully"})
}

// List returns the sections of a course in display order.
// GET /api/v1/courses/:id/sections
func (h *SectionHandler) List(c *gin.Context) {
	courseID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	sections, err := h.sectionService.List(courseID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sections": sections})
}
