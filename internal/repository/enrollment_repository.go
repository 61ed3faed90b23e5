package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Mohmk10/sencours-back-sub000/internal/models"
)

type EnrollmentRepository interface {
	// Create persists the enrollment plus one incomplete progress row per
	// lesson currently in the course, as a single unit.
	Create(enrollment *models.Enrollment, lessonIDs []uint) error
	Update(enrollment *models.Enrollment) error
	GetByID(id uint) (*models.Enrollment, error)
	GetByUserAndCourse(userID, courseID uint) (*models.Enrollment, error)
	ListByUser(userID uint) ([]models.Enrollment, error)
	ListIDsByCourse(courseID uint) ([]uint, error)
	Exists(id uint) (bool, error)
}

type ProgressRepository interface {
	GetByEnrollmentAndLesson(enrollmentID, lessonID uint) (*models.Progress, error)
	Update(progress *models.Progress) error
	// ListByEnrollment returns the rows in lesson display order (section
	// index, then lesson index).
	ListByEnrollment(enrollmentID uint) ([]models.Progress, error)
	// Counts returns total rows and completed rows for the enrollment.
	Counts(enrollmentID uint) (total int64, done int64, err error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

type progressRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *enrollmentRepository) Create(enrollment *models.Enrollment, lessonIDs []uint) error {
	if r == nil || r.db == nil {
		return errors.New("enrollment repository is not initialised")
	}
	if enrollment == nil {
		return errors.New("enrollment is required")
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(enrollment).Error; err != nil {
			return err
		}
		for _, lessonID := range lessonIDs {
			row := models.Progress{EnrollmentID: enrollment.ID, LessonID: lessonID}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *enrollmentRepository) Update(enrollment *models.Enrollment) error {
	if r == nil || r.db == nil {
		return errors.New("enrollment repository is not initialised")
	}
	if enrollment == nil {
		return errors.New("enrollment is required")
	}
	return r.db.Save(enrollment).Error
}

func (r *enrollmentRepository) GetByID(id uint) (*models.Enrollment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("enrollment repository is not initialised")
	}
	var enrollment models.Enrollment
	if err := r.db.First(&enrollment, id).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepository) GetByUserAndCourse(userID, courseID uint) (*models.Enrollment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("enrollment repository is not initialised")
	}
	var enrollment models.Enrollment
	if err := r.db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error; err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepository) ListByUser(userID uint) ([]models.Enrollment, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("enrollment repository is not initialised")
	}
	var enrollments []models.Enrollment
	err := r.db.Where("user_id = ?", userID).
		Preload("Course").
		Order("enrolled_at DESC").
		Find(&enrollments).Error
	if err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *enrollmentRepository) ListIDsByCourse(courseID uint) ([]uint, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("enrollment repository is not initialised")
	}
	var ids []uint
	err := r.db.Model(&models.Enrollment{}).
		Where("course_id = ?", courseID).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *enrollmentRepository) Exists(id uint) (bool, error) {
	if r == nil || r.db == nil {
		return false, errors.New("enrollment repository is not initialised")
	}
	var count int64
	if err := r.db.Model(&models.Enrollment{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *progressRepository) GetByEnrollmentAndLesson(enrollmentID, lessonID uint) (*models.Progress, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("progress repository is not initialised")
	}
	var progress models.Progress
	err := r.db.Where("enrollment_id = ? AND lesson_id = ?", enrollmentID, lessonID).First(&progress).Error
	if err != nil {
		return nil, err
	}
	return &progress, nil
}

func (r *progressRepository) Update(progress *models.Progress) error {
	if r == nil || r.db == nil {
		return errors.New("progress repository is not initialised")
	}
	if progress == nil {
		return errors.New("progress is required")
	}
	return r.db.Save(progress).Error
}

func (r *progressRepository) ListByEnrollment(enrollmentID uint) ([]models.Progress, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("progress repository is not initialised")
	}
	var rows []models.Progress
	err := r.db.
		Joins("JOIN lessons ON lessons.id = progresses.lesson_id").
		Joins("JOIN sections ON sections.id = lessons.section_id").
		Where("progresses.enrollment_id = ?", enrollmentID).
		Order("sections.order_index ASC, lessons.order_index ASC").
		Preload("Lesson").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *progressRepository) Counts(enrollmentID uint) (int64, int64, error) {
	if r == nil || r.db == nil {
		return 0, 0, errors.New("progress repository is not initialised")
	}
	var total int64
	if err := r.db.Model(&models.Progress{}).Where("enrollment_id = ?", enrollmentID).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	var done int64
	err := r.db.Model(&models.Progress{}).
		Where("enrollment_id = ? AND completed = ?", enrollmentID, true).
		Count(&done).Error
	if err != nil {
		return 0, 0, err
	}
	return total, done, nil
}
