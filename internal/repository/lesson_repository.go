package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Mohmk10/sencours-back-sub000/internal/models"
	"github.com/Mohmk10/sencours-back-sub000/internal/ordering"
)

type LessonRepository interface {
	// Append creates the lesson at the tail of its section and backfills
	// one incomplete progress row per existing enrollment of the course.
	Append(lesson *models.Lesson, enrollmentIDs []uint) error
	Update(lesson *models.Lesson) error
	GetByID(id uint) (*models.Lesson, error)
	GetByIDs(ids []uint) ([]models.Lesson, error)
	ListBySection(sectionID uint) ([]models.Lesson, error)
	ListByCourse(courseID uint) ([]models.Lesson, error)
	CountBySection(sectionID uint) (int64, error)
	Reorder(sectionID, expectedVersion uint, lessons []models.Lesson) error
	Remove(lesson *models.Lesson, expectedVersion uint, renumbered []models.Lesson) error
}

type lessonRepository struct {
	db *gorm.DB
}

func NewLessonRepository(db *gorm.DB) LessonRepository {
	return &lessonRepository{db: db}
}

func (r *lessonRepository) Append(lesson *models.Lesson, enrollmentIDs []uint) error {
	if r == nil || r.db == nil {
		return errors.New("lesson repository is not initialised")
	}
	if lesson == nil {
		return errors.New("lesson is required")
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Lesson{}).Where("section_id = ?", lesson.SectionID).Count(&count).Error; err != nil {
			return err
		}
		lesson.OrderIndex = ordering.Next(count)
		if err := tx.Create(lesson).Error; err != nil {
			return err
		}
		for _, enrollmentID := range enrollmentIDs {
			row := models.Progress{EnrollmentID: enrollmentID, LessonID: lesson.ID}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return bumpVersion(tx, &models.Section{}, lesson.SectionID)
	})
}

func (r *lessonRepository) Update(lesson *models.Lesson) error {
	if r == nil || r.db == nil {
		return errors.New("lesson repository is not initialised")
	}
	if lesson == nil {
		return errors.New("lesson is required")
	}
	return r.db.Save(lesson).Error
}

func (r *lessonRepository) GetByID(id uint) (*models.Lesson, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("lesson repository is not initialised")
	}
	var lesson models.Lesson
	if err := r.db.First(&lesson, id).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (r *lessonRepository) GetByIDs(ids []uint) ([]models.Lesson, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("lesson repository is not initialised")
	}
	if len(ids) == 0 {
		return []models.Lesson{}, nil
	}
	var lessons []models.Lesson
	if err := r.db.Where("id IN ?", ids).Find(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *lessonRepository) ListBySection(sectionID uint) ([]models.Lesson, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("lesson repository is not initialised")
	}
	var lessons []models.Lesson
	if err := r.db.Where("section_id = ?", sectionID).Order("order_index ASC").Find(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}

// ListByCourse returns every lesson of a course in display order: sections
// by their index, lessons by theirs.
func (r *lessonRepository) ListByCourse(courseID uint) ([]models.Lesson, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("lesson repository is not initialised")
	}
	var lessons []models.Lesson
	err := r.db.
		Joins("JOIN sections ON sections.id = lessons.section_id").
		Where("sections.course_id = ?", courseID).
		Order("sections.order_index ASC, lessons.order_index ASC").
		Find(&lessons).Error
	if err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *lessonRepository) CountBySection(sectionID uint) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("lesson repository is not initialised")
	}
	var count int64
	if err := r.db.Model(&models.Lesson{}).Where("section_id = ?", sectionID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *lessonRepository) Reorder(sectionID, expectedVersion uint, lessons []models.Lesson) error {
	if r == nil || r.db == nil {
		return errors.New("lesson repository is not initialised")
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		for i := range lessons {
			err := tx.Model(&models.Lesson{}).
				Where("id = ?", lessons[i].ID).
				Update("order_index", lessons[i].OrderIndex).Error
			if err != nil {
				return err
			}
		}
		return bumpVersionChecked(tx, &models.Section{}, sectionID, expectedVersion)
	})
}

func (r *lessonRepository) Remove(lesson *models.Lesson, expectedVersion uint, renumbered []models.Lesson) error {
	if r == nil || r.db == nil {
		return errors.New("lesson repository is not initialised")
	}
	if lesson == nil {
		return errors.New("lesson is required")
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lesson_id = ?", lesson.ID).Delete(&models.Progress{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Lesson{}, lesson.ID).Error; err != nil {
			return err
		}
		for i := range renumbered {
			err := tx.Model(&models.Lesson{}).
				Where("id = ?", renumbered[i].ID).
				Update("order_index", renumbered[i].OrderIndex).Error
			if err != nil {
				return err
			}
		}
		return bumpVersionChecked(tx, &models.Section{}, lesson.SectionID, expectedVersion)
	})
}
