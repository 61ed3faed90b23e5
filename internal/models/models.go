package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Mohmk10/sencours-back-sub000/internal/authorization"
)

type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Username string                 `gorm:"uniqueIndex;not null" json:"username"`
	Email    string                 `gorm:"uniqueIndex;not null" json:"email"`
	Password string                 `gorm:"not null" json:"-"`
	Role     authorization.UserRole `gorm:"type:varchar(32);default:'student'" json:"role"`

	Courses     []Course     `gorm:"foreignKey:InstructorID" json:"courses,omitempty"`
	Enrollments []Enrollment `gorm:"foreignKey:UserID" json:"enrollments,omitempty"`
}

type Category struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`
	Description string `json:"description"`

	Courses []Course `gorm:"foreignKey:CategoryID" json:"courses,omitempty"`
}

type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "DRAFT"
	CourseStatusPublished CourseStatus = "PUBLISHED"
	CourseStatusArchived  CourseStatus = "ARCHIVED"
)

func (s CourseStatus) IsValid() bool {
	switch s {
	case CourseStatusDraft, CourseStatusPublished, CourseStatusArchived:
		return true
	}
	return false
}

func (s CourseStatus) Value() (driver.Value, error) {
	if s == "" {
		return string(CourseStatusDraft), nil
	}
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid course status: %q", s)
	}
	return string(s), nil
}

func (s *CourseStatus) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = CourseStatusDraft
	case string:
		*s = CourseStatus(strings.ToUpper(strings.TrimSpace(v)))
	case []byte:
		*s = CourseStatus(strings.ToUpper(strings.TrimSpace(string(v))))
	default:
		return fmt.Errorf("unsupported type for CourseStatus: %T", value)
	}
	if !s.IsValid() {
		return fmt.Errorf("invalid course status: %v", value)
	}
	return nil
}

type Course struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Title       string       `gorm:"not null" json:"title"`
	Slug        string       `gorm:"uniqueIndex;not null" json:"slug"`
	Description string       `gorm:"type:text" json:"description"`
	PriceCents  int64        `gorm:"not null;default:0" json:"price_cents"`
	Status      CourseStatus `gorm:"type:varchar(16);default:'DRAFT'" json:"status"`

	// OrderingVersion is bumped inside every transaction that rewrites the
	// order of this course's sections; concurrent renumberings collide on it.
	OrderingVersion uint `gorm:"not null;default:0" json:"-"`

	InstructorID uint     `gorm:"not null;index" json:"instructor_id"`
	Instructor   User     `gorm:"foreignKey:InstructorID" json:"instructor,omitempty"`
	CategoryID   uint     `json:"category_id"`
	Category     Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`

	Sections []Section `gorm:"foreignKey:CourseID" json:"sections,omitempty"`
}

// Section and Lesson rows are hard-deleted: renumbering and the progress
// denominator both count rows, and a soft-deleted row must not count.

type Section struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CourseID uint   `gorm:"not null;index" json:"course_id"`
	Title    string `gorm:"not null" json:"title"`

	// OrderIndex is 1-based and dense within the course.
	OrderIndex int `gorm:"not null" json:"order_index"`

	// OrderingVersion guards this section's lesson ordering, the same way
	// Course.OrderingVersion guards section ordering.
	OrderingVersion uint `gorm:"not null;default:0" json:"-"`

	Lessons []Lesson `gorm:"foreignKey:SectionID" json:"lessons,omitempty"`
}

type LessonType string

const (
	LessonTypeVideo LessonType = "VIDEO"
	LessonTypeText  LessonType = "TEXT"
	LessonTypeQuiz  LessonType = "QUIZ"
)

func (t LessonType) IsValid() bool {
	switch t {
	case LessonTypeVideo, LessonTypeText, LessonTypeQuiz:
		return true
	}
	return false
}

type Lesson struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	SectionID uint       `gorm:"not null;index" json:"section_id"`
	Title     string     `gorm:"not null" json:"title"`
	Type      LessonType `gorm:"type:varchar(16);not null" json:"type"`
	Content   string     `gorm:"type:text" json:"content"`

	DurationSeconds int  `gorm:"not null;default:0" json:"duration_seconds"`
	IsFree          bool `gorm:"not null;default:false" json:"is_free"`

	// OrderIndex is 1-based and dense within the section.
	OrderIndex int `gorm:"not null" json:"order_index"`
}

type Enrollment struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID   uint `gorm:"not null;uniqueIndex:idx_enrollments_user_course,priority:1" json:"user_id"`
	CourseID uint `gorm:"not null;uniqueIndex:idx_enrollments_user_course,priority:2" json:"course_id"`

	EnrolledAt  time.Time  `gorm:"not null" json:"enrolled_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// ProgressPercentage is a display cache refreshed whenever completion is
	// recomputed. The CompletedAt transition never reads it.
	ProgressPercentage int `gorm:"not null;default:0" json:"progress_percentage"`

	PaymentRef string `json:"payment_ref,omitempty"`

	User     User       `gorm:"foreignKey:UserID" json:"-"`
	Course   Course     `gorm:"foreignKey:CourseID" json:"course,omitempty"`
	Progress []Progress `gorm:"foreignKey:EnrollmentID" json:"progress,omitempty"`
}

type Progress struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	EnrollmentID uint `gorm:"not null;uniqueIndex:idx_progress_enrollment_lesson,priority:1" json:"enrollment_id"`
	LessonID     uint `gorm:"not null;uniqueIndex:idx_progress_enrollment_lesson,priority:2" json:"lesson_id"`

	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Lesson Lesson `gorm:"foreignKey:LessonID" json:"lesson,omitempty"`
}
