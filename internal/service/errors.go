package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var errValidation = errors.New("sencours: validation error")

// Conflict and invalid-state failures. Handlers map these to client errors;
// none of them commits any partial mutation.
var (
	// ErrAlreadyEnrolled is returned when a (user, course) enrollment
	// already exists.
	ErrAlreadyEnrolled = errors.New("user is already enrolled in this course")
	// ErrCourseNotFree is returned when a free enrollment is requested for
	// a priced course.
	ErrCourseNotFree = errors.New("course is not free")
	// ErrCourseNotPublished is returned when enrolling in a draft or
	// archived course.
	ErrCourseNotPublished = errors.New("course is not open for enrollment")
	// ErrNotOwner is returned when the caller may not manage the course or
	// enrollment being mutated.
	ErrNotOwner = errors.New("caller does not own this resource")
	// ErrSectionNotInCourse is returned when a reorder names a section that
	// exists but belongs to another course.
	ErrSectionNotInCourse = errors.New("section does not belong to this course")
	// ErrLessonNotInSection is the lesson-level counterpart.
	ErrLessonNotInSection = errors.New("lesson does not belong to this section")
	// ErrOrderingContended is returned after renumbering retries are
	// exhausted against concurrent mutations of the same parent.
	ErrOrderingContended = errors.New("content ordering is being modified concurrently, retry")
)

type validationError struct {
	message string
}

func (e *validationError) Error() string {
	return e.message
}

func (e *validationError) Unwrap() error {
	return errValidation
}

func newValidationError(format string, args ...interface{}) error {
	message := strings.TrimSpace(fmt.Sprintf(format, args...))
	if message == "" {
		message = "invalid input"
	}
	return &validationError{message: message}
}

// IsValidationError reports whether the provided error indicates invalid user input.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, errValidation)
}

// IsConflictError reports whether the error is one of the invalid-state
// sentinels that map to HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrAlreadyEnrolled) ||
		errors.Is(err, ErrCourseNotFree) ||
		errors.Is(err, ErrCourseNotPublished) ||
		errors.Is(err, ErrSectionNotInCourse) ||
		errors.Is(err, ErrLessonNotInSection) ||
		errors.Is(err, ErrOrderingContended)
}

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var sqlState interface{ SQLState() string }
	if errors.As(err, &sqlState) {
		return sqlState.SQLState() == "23505"
	}

	return false
}
