package service

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Mohmk10/sencours-back-sub000/internal/authorization"
	"github.com/Mohmk10/sencours-back-sub000/internal/models"
	"github.com/Mohmk10/sencours-back-sub000/internal/ordering"
	"github.com/Mohmk10/sencours-back-sub000/internal/repository"
	"github.com/Mohmk10/sencours-back-sub000/pkg/logger"
	"github.com/Mohmk10/sencours-back-sub000/pkg/validator"
)

// LessonService manages the ordered lessons of a section and keeps the
// progress ledger aligned with the lesson set: a new lesson gets an
// incomplete progress row on every existing enrollment, and a deleted lesson
// takes its rows with it.
type LessonService struct {
	courseRepo     repository.CourseRepository
	sectionRepo    repository.SectionRepository
	lessonRepo     repository.LessonRepository
	enrollmentRepo repository.EnrollmentRepository
	recomputer     CompletionRecomputer
	retries        int
}

func NewLessonService(
	courseRepo repository.CourseRepository,
	sectionRepo repository.SectionRepository,
	lessonRepo repository.LessonRepository,
	enrollmentRepo repository.EnrollmentRepository,
	recomputer CompletionRecomputer,
	retries int,
) *LessonService {
	if retries < 1 {
		retries = 1
	}
	return &LessonService{
		courseRepo:     courseRepo,
		sectionRepo:    sectionRepo,
		lessonRepo:     lessonRepo,
		enrollmentRepo: enrollmentRepo,
		recomputer:     recomputer,
		retries:        retries,
	}
}

func (s *LessonService) manageableSection(callerID uint, role authorization.UserRole, sectionID uint) (*models.Section, error) {
	section, err := s.sectionRepo.GetByID(sectionID)
	if err != nil {
		return nil, err
	}
	course, err := s.courseRepo.GetByID(section.CourseID)
	if err != nil {
		return nil, err
	}
	if !authorization.CanManageCourse(role, course.InstructorID, callerID) {
		return nil, ErrNotOwner
	}
	return section, nil
}

// Create appends a lesson at the end of its section and backfills an
// incomplete progress row for every enrollment of the course. Enrollments
// that were fully complete drop back to incomplete, since the new lesson has
// not been watched by anyone.
func (s *LessonService) Create(callerID uint, role authorization.UserRole, sectionID uint, req models.CreateLessonRequest) (*models.Lesson, error) {
	section, err := s.manageableSection(callerID, role, sectionID)
	if err != nil {
		return nil, err
	}

	lesson, err := buildLesson(req)
	if err != nil {
		return nil, err
	}
	lesson.SectionID = sectionID

	enrollmentIDs, err := s.enrollmentRepo.ListIDsByCourse(section.CourseID)
	if err != nil {
		return nil, err
	}

	if err := s.lessonRepo.Append(lesson, enrollmentIDs); err != nil {
		return nil, err
	}

	logger.Info("Lesson created", map[string]interface{}{
		"lesson_id":   lesson.ID,
		"section_id":  sectionID,
		"order_index": lesson.OrderIndex,
		"backfilled":  len(enrollmentIDs),
	})

	if err := s.recomputeEnrollments(enrollmentIDs); err != nil {
		return nil, err
	}
	return lesson, nil
}

// Update edits a lesson's content fields. Ordering and progress rows are
// untouched.
func (s *LessonService) Update(callerID uint, role authorization.UserRole, lessonID uint, req models.UpdateLessonRequest) (*models.Lesson, error) {
	lesson, err := s.lessonRepo.GetByID(lessonID)
	if err != nil {
		return nil, err
	}
	if _, err := s.manageableSection(callerID, role, lesson.SectionID); err != nil {
		return nil, err
	}

	title := validator.SanitizeString(strings.TrimSpace(req.Title))
	if title == "" {
		return nil, newValidationError("lesson title is required")
	}
	lessonType := models.LessonType(strings.ToUpper(strings.TrimSpace(req.Type)))
	if !lessonType.IsValid() {
		return nil, newValidationError("lesson type must be VIDEO, TEXT or QUIZ")
	}
	if req.DurationSeconds < 0 {
		return nil, newValidationError("lesson duration cannot be negative")
	}

	lesson.Title = title
	lesson.Type = lessonType
	lesson.Content = validator.SanitizeHTML(req.Content)
	lesson.DurationSeconds = req.DurationSeconds
	lesson.IsFree = req.IsFree

	if err := s.lessonRepo.Update(lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

// Reorder applies a complete permutation of the section's lesson IDs. The
// section's ordering version catches concurrent mutations; exhausted retries
// surface as contention.
func (s *LessonService) Reorder(callerID uint, role authorization.UserRole, sectionID uint, lessonIDs []uint) ([]models.Lesson, error) {
	if _, err := s.manageableSection(callerID, role, sectionID); err != nil {
		return nil, err
	}
	if len(lessonIDs) == 0 {
		return nil, newValidationError("lesson ids are required")
	}

	for attempt := 0; attempt < s.retries; attempt++ {
		section, err := s.sectionRepo.GetByID(sectionID)
		if err != nil {
			return nil, err
		}

		lessons, err := s.lessonRepo.ListBySection(sectionID)
		if err != nil {
			return nil, err
		}

		items := make([]*models.Lesson, len(lessons))
		for i := range lessons {
			items[i] = &lessons[i]
		}

		if _, err := ordering.Apply(items, lessonIDs); err != nil {
			return nil, s.translateOrderingError(err, sectionID, lessonIDs)
		}

		err = s.lessonRepo.Reorder(sectionID, section.OrderingVersion, lessons)
		if errors.Is(err, repository.ErrOrderingConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return s.lessonRepo.ListBySection(sectionID)
	}

	return nil, ErrOrderingContended
}

// Delete removes a lesson and its progress rows, shifts the higher siblings
// down, then re-derives completion for every enrollment of the course. An
// enrollment whose only missing lesson was the deleted one flips to complete.
func (s *LessonService) Delete(callerID uint, role authorization.UserRole, lessonID uint) error {
	lesson, err := s.lessonRepo.GetByID(lessonID)
	if err != nil {
		return err
	}
	section, err := s.manageableSection(callerID, role, lesson.SectionID)
	if err != nil {
		return err
	}

	for attempt := 0; attempt < s.retries; attempt++ {
		current, err := s.sectionRepo.GetByID(lesson.SectionID)
		if err != nil {
			return err
		}

		lessons, err := s.lessonRepo.ListBySection(lesson.SectionID)
		if err != nil {
			return err
		}

		// The removed position comes from the fresh listing; a concurrent
		// reorder may have moved the lesson since the previous attempt.
		var doomed *models.Lesson
		siblings := make([]*models.Lesson, 0, len(lessons))
		for i := range lessons {
			if lessons[i].ID == lesson.ID {
				doomed = &lessons[i]
				continue
			}
			siblings = append(siblings, &lessons[i])
		}
		if doomed == nil {
			return gorm.ErrRecordNotFound
		}

		shifted := ordering.CloseGap(siblings, doomed.OrderIndex)
		renumbered := make([]models.Lesson, len(shifted))
		for i := range shifted {
			renumbered[i] = *shifted[i]
		}

		err = s.lessonRepo.Remove(doomed, current.OrderingVersion, renumbered)
		if errors.Is(err, repository.ErrOrderingConflict) {
			continue
		}
		if err != nil {
			return err
		}

		logger.Info("Lesson deleted", map[string]interface{}{
			"lesson_id":  lesson.ID,
			"section_id": lesson.SectionID,
		})

		enrollmentIDs, err := s.enrollmentRepo.ListIDsByCourse(section.CourseID)
		if err != nil {
			return err
		}
		return s.recomputeEnrollments(enrollmentIDs)
	}

	return ErrOrderingContended
}

// List returns the section's lessons in display order.
func (s *LessonService) List(sectionID uint) ([]models.Lesson, error) {
	if _, err := s.sectionRepo.GetByID(sectionID); err != nil {
		return nil, err
	}
	return s.lessonRepo.ListBySection(sectionID)
}

func (s *LessonService) translateOrderingError(err error, sectionID uint, lessonIDs []uint) error {
	switch {
	case errors.Is(err, ordering.ErrIncomplete):
		return newValidationError("reorder must list every lesson of the section exactly once")
	case errors.Is(err, ordering.ErrDuplicateID):
		return newValidationError("reorder lists a lesson more than once")
	case errors.Is(err, ordering.ErrUnknownID):
		known, lookupErr := s.lessonRepo.GetByIDs(lessonIDs)
		if lookupErr != nil {
			return lookupErr
		}
		if len(known) < len(lessonIDs) {
			return gorm.ErrRecordNotFound
		}
		for i := range known {
			if known[i].SectionID != sectionID {
				return ErrLessonNotInSection
			}
		}
		return gorm.ErrRecordNotFound
	default:
		return err
	}
}

func (s *LessonService) recomputeEnrollments(enrollmentIDs []uint) error {
	if s.recomputer == nil {
		return nil
	}
	for _, id := range enrollmentIDs {
		if err := s.recomputer.RecomputeCompletion(id); err != nil {
			return err
		}
	}
	return nil
}

func buildLesson(req models.CreateLessonRequest) (*models.Lesson, error) {
	title := validator.SanitizeString(strings.TrimSpace(req.Title))
	if title == "" {
		return nil, newValidationError("lesson title is required")
	}

	lessonType := models.LessonType(strings.ToUpper(strings.TrimSpace(req.Type)))
	if !lessonType.IsValid() {
		return nil, newValidationError("lesson type must be VIDEO, TEXT or QUIZ")
	}

	if req.DurationSeconds < 0 {
		return nil, newValidationError("lesson duration cannot be negative")
	}

	return &models.Lesson{
		Title:           title,
		Type:            lessonType,
		Content:         validator.SanitizeHTML(req.Content),
		DurationSeconds: req.DurationSeconds,
		IsFree:          req.IsFree,
	}, nil
}
