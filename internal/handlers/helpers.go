package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/Mohmk10/sencours-back-sub000/internal/authorization"
	"github.com/Mohmk10/sencours-back-sub000/internal/service"
	"github.com/Mohmk10/sencours-back-sub000/pkg/logger"
)

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(value), true
}

// caller reads the identity set by the auth middleware.
func caller(c *gin.Context) (uint, authorization.UserRole, bool) {
	rawID, ok := c.Get("user_id")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization credentials required"})
		return 0, "", false
	}
	userID, ok := rawID.(uint)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization credentials required"})
		return 0, "", false
	}
	rawRole, _ := c.Get("role")
	role, ok := authorization.ParseUserRole(rawRole)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization credentials required"})
		return 0, "", false
	}
	return userID, role, true
}

// writeError maps service failures onto HTTP statuses. Anything unexpected
// is logged and reported as an opaque 500.
func writeError(c *gin.Context, err error) {
	switch {
	case service.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
	case service.IsConflictError(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error(err, "Unhandled request error", map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
