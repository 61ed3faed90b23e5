package models

import "time"

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"omitempty,oneof=student instructor"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type CreateCourseRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents" binding:"gte=0"`
	CategoryID  uint   `json:"category_id"`
}

type UpdateCourseRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents" binding:"gte=0"`
	CategoryID  uint   `json:"category_id"`
}

type CreateSectionRequest struct {
	Title string `json:"title" binding:"required"`
}

type ReorderSectionsRequest struct {
	SectionIDs []uint `json:"section_ids" binding:"required,min=1"`
}

type CreateLessonRequest struct {
	Title           string `json:"title" binding:"required"`
	Type            string `json:"type" binding:"required,lesson_type"`
	Content         string `json:"content"`
	DurationSeconds int    `json:"duration_seconds" binding:"gte=0"`
	IsFree          bool   `json:"is_free"`
}

type UpdateLessonRequest struct {
	Title           string `json:"title" binding:"required"`
	Type            string `json:"type" binding:"required,lesson_type"`
	Content         string `json:"content"`
	DurationSeconds int    `json:"duration_seconds" binding:"gte=0"`
	IsFree          bool   `json:"is_free"`
}

type ReorderLessonsRequest struct {
	LessonIDs []uint `json:"lesson_ids" binding:"required,min=1"`
}

// PaymentMode selects how an enrollment is paid for. "free" is only valid
// for zero-priced courses; "card" runs the simulated checkout.
type EnrollRequest struct {
	CourseID    uint   `json:"course_id" binding:"required"`
	PaymentMode string `json:"payment_mode" binding:"required,oneof=free card"`
}

// ProgressSummary is derived on demand from live Progress rows; it is never
// the stored authority for completion.
type ProgressSummary struct {
	EnrollmentID uint       `json:"enrollment_id"`
	TotalLessons int        `json:"total_lessons"`
	Completed    int        `json:"completed"`
	Percentage   int        `json:"percentage"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

type ProgressReport struct {
	Summary ProgressSummary `json:"summary"`
	Items   []Progress      `json:"items"`
}
