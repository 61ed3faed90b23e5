package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Mohmk10/sencours-back-sub000/internal/models"
)

type CourseRepository interface {
	Create(course *models.Course) error
	Update(course *models.Course) error
	Delete(id uint) error
	GetByID(id uint) (*models.Course, error)
	GetBySlug(slug string) (*models.Course, error)
	ListPublished() ([]models.Course, error)
	ListByInstructor(instructorID uint) ([]models.Course, error)
	Exists(id uint) (bool, error)
}

type courseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) Create(course *models.Course) error {
	if r == nil || r.db == nil {
		return errors.New("course repository is not initialised")
	}
	if course == nil {
		return errors.New("course is required")
	}
	return r.db.Create(course).Error
}

func (r *courseRepository) Update(course *models.Course) error {
	if r == nil || r.db == nil {
		return errors.New("course repository is not initialised")
	}
	if course == nil {
		return errors.New("course is required")
	}
	return r.db.Save(course).Error
}

// Delete removes the course and everything hanging off it: sections,
// lessons, enrollments and progress rows all reference the course tree and
// must not survive it.
func (r *courseRepository) Delete(id uint) error {
	if r == nil || r.db == nil {
		return errors.New("course repository is not initialised")
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		lessonIDs := tx.Model(&models.Lesson{}).Select("lessons.id").
			Joins("JOIN sections ON sections.id = lessons.section_id").
			Where("sections.course_id = ?", id)
		if err := tx.Where("lesson_id IN (?)", lessonIDs).Delete(&models.Progress{}).Error; err != nil {
			return err
		}
		enrollmentIDs := tx.Model(&models.Enrollment{}).Select("id").Where("course_id = ?", id)
		if err := tx.Where("enrollment_id IN (?)", enrollmentIDs).Delete(&models.Progress{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&models.Enrollment{}).Error; err != nil {
			return err
		}
		sectionIDs := tx.Model(&models.Section{}).Select("id").Where("course_id = ?", id)
		if err := tx.Where("section_id IN (?)", sectionIDs).Delete(&models.Lesson{}).Error; err != nil {
			return err
		}
		if err := tx.Where("course_id = ?", id).Delete(&models.Section{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Course{}, id).Error
	})
}

func (r *courseRepository) GetByID(id uint) (*models.Course, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("course repository is not initialised")
	}
	var course models.Course
	if err := r.db.First(&course, id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) GetBySlug(slug string) (*models.Course, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("course repository is not initialised")
	}
	var course models.Course
	if err := r.db.Where("slug = ?", slug).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) ListPublished() ([]models.Course, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("course repository is not initialised")
	}
	var courses []models.Course
	err := r.db.Where("status = ?", models.CourseStatusPublished).
		Preload("Category").
		Order("created_at DESC").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) ListByInstructor(instructorID uint) ([]models.Course, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("course repository is not initialised")
	}
	var courses []models.Course
	err := r.db.Where("instructor_id = ?", instructorID).
		Order("created_at DESC").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) Exists(id uint) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("course repository is not initialised")
	}
	var count int64
	if err := r.db.Model(&models.Course{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
