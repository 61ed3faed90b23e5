package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Mohmk10/sencours-back-sub000/internal/authorization"
	"github.com/Mohmk10/sencours-back-sub000/internal/models"
	"github.com/Mohmk10/sencours-back-sub000/internal/payments"
	"github.com/Mohmk10/sencours-back-sub000/internal/repository"
	"github.com/Mohmk10/sencours-back-sub000/pkg/logger"
)

// EnrollmentService is the single entry point through which a learner joins a
// course. Enrolling charges the learner when the course is priced, then
// creates the enrollment together with one incomplete progress row per
// lesson, so the ledger always covers the full lesson set from the start.
type EnrollmentService struct {
	courseRepo     repository.CourseRepository
	lessonRepo     repository.LessonRepository
	enrollmentRepo repository.EnrollmentRepository
	provider       payments.Provider
	now            func() time.Time
}

func NewEnrollmentService(
	courseRepo repository.CourseRepository,
	lessonRepo repository.LessonRepository,
	enrollmentRepo repository.EnrollmentRepository,
	provider payments.Provider,
) *EnrollmentService {
	return &EnrollmentService{
		courseRepo:     courseRepo,
		lessonRepo:     lessonRepo,
		enrollmentRepo: enrollmentRepo,
		provider:       provider,
		now:            time.Now,
	}
}

// Enroll joins the caller to a published course. A priced course requires
// the card payment mode and a successful charge before anything is written.
func (s *EnrollmentService) Enroll(ctx context.Context, userID uint, req models.EnrollRequest) (*models.Enrollment, error) {
	course, err := s.courseRepo.GetByID(req.CourseID)
	if err != nil {
		return nil, err
	}
	if course.Status != models.CourseStatusPublished {
		return nil, ErrCourseNotPublished
	}

	_, err = s.enrollmentRepo.GetByUserAndCourse(userID, course.ID)
	if err == nil {
		return nil, ErrAlreadyEnrolled
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	paymentRef := ""
	if course.PriceCents > 0 {
		if req.PaymentMode != "card" {
			return nil, ErrCourseNotFree
		}
		if s.provider == nil {
			return nil, errors.New("payment provider is not configured")
		}
		receipt, err := s.provider.Charge(ctx, payments.ChargeParams{
			UserID:      userID,
			CourseID:    course.ID,
			AmountCents: course.PriceCents,
			Description: fmt.Sprintf("Enrollment in %q", course.Title),
		})
		if err != nil {
			return nil, err
		}
		paymentRef = receipt.Reference
	}

	lessons, err := s.lessonRepo.ListByCourse(course.ID)
	if err != nil {
		return nil, err
	}
	lessonIDs := make([]uint, len(lessons))
	for i := range lessons {
		lessonIDs[i] = lessons[i].ID
	}

	enrollment := &models.Enrollment{
		UserID:     userID,
		CourseID:   course.ID,
		EnrolledAt: s.now(),
		PaymentRef: paymentRef,
	}
	if err := s.enrollmentRepo.Create(enrollment, lessonIDs); err != nil {
		// Two concurrent enrollments for the same pair race past the
		// existence check; the unique index decides.
		if isDuplicateKeyError(err) {
			return nil, ErrAlreadyEnrolled
		}
		return nil, err
	}

	logger.Info("Learner enrolled", map[string]interface{}{
		"enrollment_id": enrollment.ID,
		"course_id":     course.ID,
		"user_id":       userID,
		"lessons":       len(lessonIDs),
		"paid":          paymentRef != "",
	})
	return enrollment, nil
}

// Get returns one enrollment, restricted to its owner or an admin.
func (s *EnrollmentService) Get(callerID uint, role authorization.UserRole, enrollmentID uint) (*models.Enrollment, error) {
	enrollment, err := s.enrollmentRepo.GetByID(enrollmentID)
	if err != nil {
		return nil, err
	}
	if enrollment.UserID != callerID && role != authorization.RoleAdmin {
		return nil, ErrNotOwner
	}
	return enrollment, nil
}

// ListForUser returns the caller's enrollments, most recent first.
func (s *EnrollmentService) ListForUser(userID uint) ([]models.Enrollment, error) {
	return s.enrollmentRepo.ListByUser(userID)
}
