package service

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/Mohmk10/sencours-back-sub000/internal/authorization"
	"github.com/Mohmk10/sencours-back-sub000/internal/models"
	"github.com/Mohmk10/sencours-back-sub000/internal/repository"
	"github.com/Mohmk10/sencours-back-sub000/pkg/cache"
	"github.com/Mohmk10/sencours-back-sub000/pkg/logger"
	"github.com/Mohmk10/sencours-back-sub000/pkg/utils"
	"github.com/Mohmk10/sencours-back-sub000/pkg/validator"
)

// CourseService owns the course lifecycle: draft, published, archived. The
// public catalog is served through the cache; every mutation invalidates it.
type CourseService struct {
	courseRepo   repository.CourseRepository
	categoryRepo repository.CategoryRepository
	sectionRepo  repository.SectionRepository
	lessonRepo   repository.LessonRepository
	cache        *cache.Cache
}

func NewCourseService(
	courseRepo repository.CourseRepository,
	categoryRepo repository.CategoryRepository,
	sectionRepo repository.SectionRepository,
	lessonRepo repository.LessonRepository,
	cacheService *cache.Cache,
) *CourseService {
	return &CourseService{
		courseRepo:   courseRepo,
		categoryRepo: categoryRepo,
		sectionRepo:  sectionRepo,
		lessonRepo:   lessonRepo,
		cache:        cacheService,
	}
}

func (s *CourseService) Create(callerID uint, role authorization.UserRole, req models.CreateCourseRequest) (*models.Course, error) {
	if role != authorization.RoleInstructor && role != authorization.RoleAdmin {
		return nil, ErrNotOwner
	}

	title := validator.SanitizeString(strings.TrimSpace(req.Title))
	if title == "" {
		return nil, newValidationError("course title is required")
	}
	if req.PriceCents < 0 {
		return nil, newValidationError("course price cannot be negative")
	}

	if req.CategoryID != 0 {
		exists, err := s.categoryRepo.Exists(req.CategoryID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, newValidationError("category does not exist")
		}
	}

	slug := utils.GenerateSlug(title)
	if _, err := s.courseRepo.GetBySlug(slug); err == nil {
		return nil, newValidationError("course with this title already exists")
	}

	course := &models.Course{
		Title:        title,
		Slug:         slug,
		Description:  validator.SanitizeHTML(req.Description),
		PriceCents:   req.PriceCents,
		Status:       models.CourseStatusDraft,
		InstructorID: callerID,
		CategoryID:   req.CategoryID,
	}
	if err := s.courseRepo.Create(course); err != nil {
		if isDuplicateKeyError(err) {
			return nil, newValidationError("course with this title already exists")
		}
		return nil, err
	}

	logger.Info("Course created", map[string]interface{}{
		"course_id":     course.ID,
		"instructor_id": callerID,
	})
	return course, nil
}

// Update edits title, description, price and category. The slug stays stable
// so published links never break.
func (s *CourseService) Update(callerID uint, role authorization.UserRole, courseID uint, req models.UpdateCourseRequest) (*models.Course, error) {
	course, err := s.manageable(callerID, role, courseID)
	if err != nil {
		return nil, err
	}

	title := validator.SanitizeString(strings.TrimSpace(req.Title))
	if title == "" {
		return nil, newValidationError("course title is required")
	}
	if req.PriceCents < 0 {
		return nil, newValidationError("course price cannot be negative")
	}
	if req.CategoryID != 0 && req.CategoryID != course.CategoryID {
		exists, err := s.categoryRepo.Exists(req.CategoryID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, newValidationError("category does not exist")
		}
		course.CategoryID = req.CategoryID
	}

	course.Title = title
	course.Description = validator.SanitizeHTML(req.Description)
	course.PriceCents = req.PriceCents

	if err := s.courseRepo.Update(course); err != nil {
		return nil, err
	}
	s.invalidate(course.ID)
	return course, nil
}

// Publish makes the course enrollable. A course with no lessons cannot be
// published; an empty course would complete every enrollment vacuously.
func (s *CourseService) Publish(callerID uint, role authorization.UserRole, courseID uint) (*models.Course, error) {
	course, err := s.manageable(callerID, role, courseID)
	if err != nil {
		return nil, err
	}
	if !authorization.CanPublishCourse(role, course.InstructorID, callerID) {
		return nil, ErrNotOwner
	}
	if course.Status == models.CourseStatusPublished {
		return course, nil
	}

	lessons, err := s.lessonRepo.ListByCourse(courseID)
	if err != nil {
		return nil, err
	}
	if len(lessons) == 0 {
		return nil, newValidationError("course needs at least one lesson before publishing")
	}

	course.Status = models.CourseStatusPublished
	if err := s.courseRepo.Update(course); err != nil {
		return nil, err
	}
	s.invalidate(course.ID)

	logger.Info("Course published", map[string]interface{}{"course_id": course.ID})
	return course, nil
}

// Archive takes the course off the catalog. Existing enrollments keep their
// access and their progress.
func (s *CourseService) Archive(callerID uint, role authorization.UserRole, courseID uint) (*models.Course, error) {
	course, err := s.manageable(callerID, role, courseID)
	if err != nil {
		return nil, err
	}
	if course.Status == models.CourseStatusArchived {
		return course, nil
	}

	course.Status = models.CourseStatusArchived
	if err := s.courseRepo.Update(course); err != nil {
		return nil, err
	}
	s.invalidate(course.ID)

	logger.Info("Course archived", map[string]interface{}{"course_id": course.ID})
	return course, nil
}

// Delete removes the course with all of its sections, lessons, enrollments
// and progress rows.
func (s *CourseService) Delete(callerID uint, role authorization.UserRole, courseID uint) error {
	course, err := s.manageable(callerID, role, courseID)
	if err != nil {
		return err
	}
	if err := s.courseRepo.Delete(course.ID); err != nil {
		return err
	}
	s.invalidate(course.ID)

	logger.Info("Course deleted", map[string]interface{}{"course_id": course.ID})
	return nil
}

// Catalog returns the published courses, served from the cache when warm.
func (s *CourseService) Catalog() ([]models.Course, error) {
	if s.cache != nil {
		var cached []models.Course
		if err := s.cache.GetCatalog(&cached); err == nil {
			return cached, nil
		}
	}

	courses, err := s.courseRepo.ListPublished()
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.CacheCatalog(courses); err != nil {
			logger.Warn("Failed to cache course catalog", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	return courses, nil
}

// RefreshCatalog re-reads the published courses and rewrites the cache
// entry. Run periodically so the catalog stays warm between mutations.
func (s *CourseService) RefreshCatalog(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	courses, err := s.courseRepo.ListPublished()
	if err != nil {
		return err
	}
	if s.cache == nil {
		return nil
	}
	return s.cache.CacheCatalog(courses)
}

// GetBySlug serves the public detail page: the published course with its
// sections and lessons in display order.
func (s *CourseService) GetBySlug(slug string) (*models.Course, error) {
	course, err := s.courseRepo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if course.Status != models.CourseStatusPublished {
		return nil, gorm.ErrRecordNotFound
	}
	if err := s.attachContent(course); err != nil {
		return nil, err
	}
	return course, nil
}

// GetContent returns the course with ordered content for its owner, an
// admin, or anyone when the course is published.
func (s *CourseService) GetContent(callerID uint, role authorization.UserRole, courseID uint) (*models.Course, error) {
	course, err := s.courseRepo.GetByID(courseID)
	if err != nil {
		return nil, err
	}
	if course.Status != models.CourseStatusPublished &&
		!authorization.CanManageCourse(role, course.InstructorID, callerID) {
		return nil, gorm.ErrRecordNotFound
	}
	if err := s.attachContent(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) ListForInstructor(callerID uint) ([]models.Course, error) {
	return s.courseRepo.ListByInstructor(callerID)
}

func (s *CourseService) manageable(callerID uint, role authorization.UserRole, courseID uint) (*models.Course, error) {
	course, err := s.courseRepo.GetByID(courseID)
	if err != nil {
		return nil, err
	}
	if !authorization.CanManageCourse(role, course.InstructorID, callerID) {
		return nil, ErrNotOwner
	}
	return course, nil
}

func (s *CourseService) attachContent(course *models.Course) error {
	sections, err := s.sectionRepo.ListByCourse(course.ID)
	if err != nil {
		return err
	}
	lessons, err := s.lessonRepo.ListByCourse(course.ID)
	if err != nil {
		return err
	}

	bySection := make(map[uint][]models.Lesson, len(sections))
	for _, lesson := range lessons {
		bySection[lesson.SectionID] = append(bySection[lesson.SectionID], lesson)
	}
	for i := range sections {
		sections[i].Lessons = bySection[sections[i].ID]
	}
	course.Sections = sections
	return nil
}

func (s *CourseService) invalidate(courseID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCourses(); err != nil {
		logger.Warn("Failed to invalidate course cache", map[string]interface{}{
			"course_id": courseID,
			"error":     err.Error(),
		})
	}
}
