package service

import (
	"time"

	"github.com/Mohmk10/sencours-back-sub000/internal/authorization"
	"github.com/Mohmk10/sencours-back-sub000/internal/models"
	"github.com/Mohmk10/sencours-back-sub000/internal/repository"
	"github.com/Mohmk10/sencours-back-sub000/pkg/logger"
)

// ProgressService owns the per-lesson progress ledger and the completion
// state derived from it. Completion is never trusted from a stored column;
// it is recomputed from row counts on every mutation.
type ProgressService struct {
	enrollmentRepo repository.EnrollmentRepository
	progressRepo   repository.ProgressRepository
	now            func() time.Time
}

func NewProgressService(
	enrollmentRepo repository.EnrollmentRepository,
	progressRepo repository.ProgressRepository,
) *ProgressService {
	return &ProgressService{
		enrollmentRepo: enrollmentRepo,
		progressRepo:   progressRepo,
		now:            time.Now,
	}
}

func (s *ProgressService) authorize(callerID uint, role authorization.UserRole, enrollmentID uint) (*models.Enrollment, error) {
	enrollment, err := s.enrollmentRepo.GetByID(enrollmentID)
	if err != nil {
		return nil, err
	}
	if enrollment.UserID != callerID && role != authorization.RoleAdmin {
		return nil, ErrNotOwner
	}
	return enrollment, nil
}

// MarkCompleted flips one lesson's progress row to completed. Re-completing
// an already completed lesson changes nothing, not even the row's timestamp.
func (s *ProgressService) MarkCompleted(callerID uint, role authorization.UserRole, enrollmentID, lessonID uint) (*models.Progress, error) {
	enrollment, err := s.authorize(callerID, role, enrollmentID)
	if err != nil {
		return nil, err
	}

	row, err := s.progressRepo.GetByEnrollmentAndLesson(enrollment.ID, lessonID)
	if err != nil {
		return nil, err
	}
	if row.Completed {
		return row, nil
	}

	completedAt := s.now()
	row.Completed = true
	row.CompletedAt = &completedAt
	if err := s.progressRepo.Update(row); err != nil {
		return nil, err
	}

	if err := s.RecomputeCompletion(enrollment.ID); err != nil {
		return nil, err
	}
	return row, nil
}

// MarkIncomplete flips one lesson's progress row back to incomplete. If the
// enrollment had reached full completion, its CompletedAt is reset so a later
// re-completion stamps a fresh time.
func (s *ProgressService) MarkIncomplete(callerID uint, role authorization.UserRole, enrollmentID, lessonID uint) (*models.Progress, error) {
	enrollment, err := s.authorize(callerID, role, enrollmentID)
	if err != nil {
		return nil, err
	}

	row, err := s.progressRepo.GetByEnrollmentAndLesson(enrollment.ID, lessonID)
	if err != nil {
		return nil, err
	}
	if !row.Completed {
		return row, nil
	}

	row.Completed = false
	row.CompletedAt = nil
	if err := s.progressRepo.Update(row); err != nil {
		return nil, err
	}

	if err := s.RecomputeCompletion(enrollment.ID); err != nil {
		return nil, err
	}
	return row, nil
}

// GetReport returns the enrollment's summary plus its progress rows in
// course display order.
func (s *ProgressService) GetReport(callerID uint, role authorization.UserRole, enrollmentID uint) (*models.ProgressReport, error) {
	enrollment, err := s.authorize(callerID, role, enrollmentID)
	if err != nil {
		return nil, err
	}

	items, err := s.progressRepo.ListByEnrollment(enrollment.ID)
	if err != nil {
		return nil, err
	}

	summary, err := s.Summary(enrollment)
	if err != nil {
		return nil, err
	}

	return &models.ProgressReport{Summary: *summary, Items: items}, nil
}

// Summary derives the completion counts and percentage for an enrollment.
// The percentage is floored; an enrollment with no lessons reports zero.
func (s *ProgressService) Summary(enrollment *models.Enrollment) (*models.ProgressSummary, error) {
	if enrollment == nil {
		return nil, newValidationError("enrollment is required")
	}

	total, done, err := s.progressRepo.Counts(enrollment.ID)
	if err != nil {
		return nil, err
	}

	return &models.ProgressSummary{
		EnrollmentID: enrollment.ID,
		TotalLessons: int(total),
		Completed:    int(done),
		Percentage:   percentage(total, done),
		CompletedAt:  enrollment.CompletedAt,
	}, nil
}

// RecomputeCompletion re-derives the enrollment's completion state from the
// ledger. CompletedAt is stamped exactly when every lesson is completed and
// no stamp exists yet, cleared as soon as any lesson is not, and an
// enrollment with no lessons is never marked complete.
func (s *ProgressService) RecomputeCompletion(enrollmentID uint) error {
	enrollment, err := s.enrollmentRepo.GetByID(enrollmentID)
	if err != nil {
		return err
	}

	total, done, err := s.progressRepo.Counts(enrollmentID)
	if err != nil {
		return err
	}

	changed := false

	pct := percentage(total, done)
	if enrollment.ProgressPercentage != pct {
		enrollment.ProgressPercentage = pct
		changed = true
	}

	fullyComplete := total > 0 && done == total
	switch {
	case fullyComplete && enrollment.CompletedAt == nil:
		completedAt := s.now()
		enrollment.CompletedAt = &completedAt
		changed = true
		logger.Info("Enrollment completed", map[string]interface{}{
			"enrollment_id": enrollment.ID,
			"course_id":     enrollment.CourseID,
			"user_id":       enrollment.UserID,
		})
	case !fullyComplete && enrollment.CompletedAt != nil:
		enrollment.CompletedAt = nil
		changed = true
	}

	if !changed {
		return nil
	}
	return s.enrollmentRepo.Update(enrollment)
}

func percentage(total, done int64) int {
	if total <= 0 {
		return 0
	}
	return int(done * 100 / total)
}
