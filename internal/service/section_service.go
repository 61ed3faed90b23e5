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

// SectionService manages the ordered list of sections within a course.
// Order indexes are 1-based and dense; every mutation leaves them so.
type SectionService struct {
	courseRepo     repository.CourseRepository
	sectionRepo    repository.SectionRepository
	enrollmentRepo repository.EnrollmentRepository
	recomputer     CompletionRecomputer
	retries        int
}

func NewSectionService(
	courseRepo repository.CourseRepository,
	sectionRepo repository.SectionRepository,
	enrollmentRepo repository.EnrollmentRepository,
	recomputer CompletionRecomputer,
	retries int,
) *SectionService {
	if retries < 1 {
		retries = 1
	}
	return &SectionService{
		courseRepo:     courseRepo,
		sectionRepo:    sectionRepo,
		enrollmentRepo: enrollmentRepo,
		recomputer:     recomputer,
		retries:        retries,
	}
}

func (s *SectionService) manageableCourse(callerID uint, role authorization.UserRole, courseID uint) (*models.Course, error) {
	course, err := s.courseRepo.GetByID(courseID)
	if err != nil {
		return nil, err
	}
	if !authorization.CanManageCourse(role, course.InstructorID, callerID) {
		return nil, ErrNotOwner
	}
	return course, nil
}

// Create appends a section at the end of the course. The position is assigned
// inside the repository transaction, so two concurrent creates cannot share
// an index.
func (s *SectionService) Create(callerID uint, role authorization.UserRole, courseID uint, req models.CreateSectionRequest) (*models.Section, error) {
	if _, err := s.manageableCourse(callerID, role, courseID); err != nil {
		return nil, err
	}

	title := validator.SanitizeString(strings.TrimSpace(req.Title))
	if title == "" {
		return nil, newValidationError("section title is required")
	}

	section := &models.Section{CourseID: courseID, Title: title}
	if err := s.sectionRepo.Append(section); err != nil {
		return nil, err
	}

	logger.Info("Section created", map[string]interface{}{
		"section_id":  section.ID,
		"course_id":   courseID,
		"order_index": section.OrderIndex,
	})
	return section, nil
}

// Update renames a section. Ordering is untouched.
func (s *SectionService) Update(callerID uint, role authorization.UserRole, sectionID uint, req models.CreateSectionRequest) (*models.Section, error) {
	section, err := s.sectionRepo.GetByID(sectionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.manageableCourse(callerID, role, section.CourseID); err != nil {
		return nil, err
	}

	title := validator.SanitizeString(strings.TrimSpace(req.Title))
	if title == "" {
		return nil, newValidationError("section title is required")
	}

	section.Title = title
	if err := s.sectionRepo.Update(section); err != nil {
		return nil, err
	}
	return section, nil
}

// Reorder applies a complete permutation of the course's section IDs. Partial
// lists are rejected so a stale client cannot silently drop sections to the
// tail. Lost updates against concurrent mutations are caught by the course's
// ordering version and retried.
func (s *SectionService) Reorder(callerID uint, role authorization.UserRole, courseID uint, sectionIDs []uint) ([]models.Section, error) {
	if _, err := s.manageableCourse(callerID, role, courseID); err != nil {
		return nil, err
	}
	if len(sectionIDs) == 0 {
		return nil, newValidationError("section ids are required")
	}

	for attempt := 0; attempt < s.retries; attempt++ {
		course, err := s.courseRepo.GetByID(courseID)
		if err != nil {
			return nil, err
		}

		sections, err := s.sectionRepo.ListByCourse(courseID)
		if err != nil {
			return nil, err
		}

		items := make([]*models.Section, len(sections))
		for i := range sections {
			items[i] = &sections[i]
		}

		if _, err := ordering.Apply(items, sectionIDs); err != nil {
			return nil, s.translateOrderingError(err, courseID, sectionIDs)
		}

		err = s.sectionRepo.Reorder(courseID, course.OrderingVersion, sections)
		if errors.Is(err, repository.ErrOrderingConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return s.sectionRepo.ListByCourse(courseID)
	}

	return nil, ErrOrderingContended
}

// Delete removes a section with its lessons and progress rows, shifts the
// higher siblings down one position, then re-derives completion for every
// enrollment of the course, since the lesson denominator shrank.
func (s *SectionService) Delete(callerID uint, role authorization.UserRole, sectionID uint) error {
	section, err := s.sectionRepo.GetByID(sectionID)
	if err != nil {
		return err
	}
	if _, err := s.manageableCourse(callerID, role, section.CourseID); err != nil {
		return err
	}

	for attempt := 0; attempt < s.retries; attempt++ {
		course, err := s.courseRepo.GetByID(section.CourseID)
		if err != nil {
			return err
		}

		sections, err := s.sectionRepo.ListByCourse(section.CourseID)
		if err != nil {
			return err
		}

		// The removed position comes from the fresh listing; a concurrent
		// reorder may have moved the section since the previous attempt.
		var doomed *models.Section
		siblings := make([]*models.Section, 0, len(sections))
		for i := range sections {
			if sections[i].ID == section.ID {
				doomed = &sections[i]
				continue
			}
			siblings = append(siblings, &sections[i])
		}
		if doomed == nil {
			return gorm.ErrRecordNotFound
		}

		shifted := ordering.CloseGap(siblings, doomed.OrderIndex)
		renumbered := make([]models.Section, len(shifted))
		for i := range shifted {
			renumbered[i] = *shifted[i]
		}

		err = s.sectionRepo.Remove(doomed, course.OrderingVersion, renumbered)
		if errors.Is(err, repository.ErrOrderingConflict) {
			continue
		}
		if err != nil {
			return err
		}

		logger.Info("Section deleted", map[string]interface{}{
			"section_id": section.ID,
			"course_id":  section.CourseID,
		})
		return s.recomputeCourse(section.CourseID)
	}

	return ErrOrderingContended
}

// List returns the course's sections in display order.
func (s *SectionService) List(courseID uint) ([]models.Section, error) {
	if _, err := s.courseRepo.GetByID(courseID); err != nil {
		return nil, err
	}
	return s.sectionRepo.ListByCourse(courseID)
}

// translateOrderingError turns a bare unknown-id failure into either a
// not-found (the id does not exist at all) or a wrong-parent conflict.
func (s *SectionService) translateOrderingError(err error, courseID uint, sectionIDs []uint) error {
	switch {
	case errors.Is(err, ordering.ErrIncomplete):
		return newValidationError("reorder must list every section of the course exactly once")
	case errors.Is(err, ordering.ErrDuplicateID):
		return newValidationError("reorder lists a section more than once")
	case errors.Is(err, ordering.ErrUnknownID):
		known, lookupErr := s.sectionRepo.GetByIDs(sectionIDs)
		if lookupErr != nil {
			return lookupErr
		}
		if len(known) < len(sectionIDs) {
			return gorm.ErrRecordNotFound
		}
		for i := range known {
			if known[i].CourseID != courseID {
				return ErrSectionNotInCourse
			}
		}
		return gorm.ErrRecordNotFound
	default:
		return err
	}
}

func (s *SectionService) recomputeCourse(courseID uint) error {
	if s.recomputer == nil {
		return nil
	}
	enrollmentIDs, err := s.enrollmentRepo.ListIDsByCourse(courseID)
	if err != nil {
		return err
	}
	for _, id := range enrollmentIDs {
		if err := s.recomputer.RecomputeCompletion(id); err != nil {
			return err
		}
	}
	return nil
}
