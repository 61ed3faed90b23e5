package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/Mohmk10/sencours-back-sub000/internal/models"
	"github.com/Mohmk10/sencours-back-sub000/internal/ordering"
)

type SectionRepository interface {
	Append(section *models.Section) error
	Update(section *models.Section) error
	GetByID(id uint) (*models.Section, error)
	GetByIDs(ids []uint) ([]models.Section, error)
	ListByCourse(courseID uint) ([]models.Section, error)
	CountByCourse(courseID uint) (int64, error)
	Reorder(courseID, expectedVersion uint, sections []models.Section) error
	Remove(section *models.Section, expectedVersion uint, renumbered []models.Section) error
}

type sectionRepository struct {
	db *gorm.DB
}

func NewSectionRepository(db *gorm.DB) SectionRepository {
	return &sectionRepository{db: db}
}

// Append assigns the next free position and creates the section in one
// transaction, so the count it reads cannot go stale between read and write.
func (r *sectionRepository) Append(section *models.Section) error {
	if r == nil || r.db == nil {
		return errors.New("section repository is not initialised")
	}
	if section == nil {
		return errors.New("section is required")
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Section{}).Where("course_id = ?", section.CourseID).Count(&count).Error; err != nil {
			return err
		}
		section.OrderIndex = ordering.Next(count)
		if err := tx.Create(section).Error; err != nil {
			return err
		}
		return bumpVersion(tx, &models.Course{}, section.CourseID)
	})
}

func (r *sectionRepository) Update(section *models.Section) error {
	if r == nil || r.db == nil {
		return errors.New("section repository is not initialised")
	}
	if section == nil {
		return errors.New("section is required")
	}
	return r.db.Save(section).Error
}

func (r *sectionRepository) GetByID(id uint) (*models.Section, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("section repository is not initialised")
	}
	var section models.Section
	if err := r.db.First(&section, id).Error; err != nil {
		return nil, err
	}
	return &section, nil
}

func (r *sectionRepository) GetByIDs(ids []uint) ([]models.Section, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("section repository is not initialised")
	}
	if len(ids) == 0 {
		return []models.Section{}, nil
	}
	var sections []models.Section
	if err := r.db.Where("id IN ?", ids).Find(&sections).Error; err != nil {
		return nil, err
	}
	return sections, nil
}

func (r *sectionRepository) ListByCourse(courseID uint) ([]models.Section, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("section repository is not initialised")
	}
	var sections []models.Section
	if err := r.db.Where("course_id = ?", courseID).Order("order_index ASC").Find(&sections).Error; err != nil {
		return nil, err
	}
	return sections, nil
}

func (r *sectionRepository) CountByCourse(courseID uint) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("section repository is not initialised")
	}
	var count int64
	if err := r.db.Model(&models.Section{}).Where("course_id = ?", courseID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Reorder persists the already-renumbered sections. The whole write either
// commits with the course's ordering version advanced, or rolls back when a
// concurrent mutation advanced it first.
func (r *sectionRepository) Reorder(courseID, expectedVersion uint, sections []models.Section) error {
	if r == nil || r.db == nil {
		return errors.New("section repository is not initialised")
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		for i := range sections {
			err := tx.Model(&models.Section{}).
				Where("id = ?", sections[i].ID).
				Update("order_index", sections[i].OrderIndex).Error
			if err != nil {
				return err
			}
		}
		return bumpVersionChecked(tx, &models.Course{}, courseID, expectedVersion)
	})
}

// Remove deletes the section, its lessons and their progress rows, and
// shifts the renumbered siblings down, all in one transaction. Partial
// renumbering is never visible.
func (r *sectionRepository) Remove(section *models.Section, expectedVersion uint, renumbered []models.Section) error {
	if r == nil || r.db == nil {
		return errors.New("section repository is not initialised")
	}
	if section == nil {
		return errors.New("section is required")
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		lessonIDs := tx.Model(&models.Lesson{}).Select("id").Where("section_id = ?", section.ID)
		if err := tx.Where("lesson_id IN (?)", lessonIDs).Delete(&models.Progress{}).Error; err != nil {
			return err
		}
		if err := tx.Where("section_id = ?", section.ID).Delete(&models.Lesson{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Section{}, section.ID).Error; err != nil {
			return err
		}
		for i := range renumbered {
			err := tx.Model(&models.Section{}).
				Where("id = ?", renumbered[i].ID).
				Update("order_index", renumbered[i].OrderIndex).Error
			if err != nil {
				return err
			}
		}
		return bumpVersionChecked(tx, &models.Course{}, section.CourseID, expectedVersion)
	})
}

// bumpVersion advances a parent's ordering version unconditionally; appends
// only add a new tail position and cannot corrupt concurrent renumberings,
// but they must still invalidate any in-flight optimistic read.
func bumpVersion(tx *gorm.DB, parent interface{}, parentID uint) error {
	return tx.Model(parent).
		Where("id = ?", parentID).
		Update("ordering_version", gorm.Expr("ordering_version + 1")).Error
}

// bumpVersionChecked advances the version only if nobody else has since the
// caller read expectedVersion; otherwise the transaction fails with
// ErrOrderingConflict and everything rolls back.
func bumpVersionChecked(tx *gorm.DB, parent interface{}, parentID, expectedVersion uint) error {
	result := tx.Model(parent).
		Where("id = ? AND ordering_version = ?", parentID, expectedVersion).
		Update("ordering_version", gorm.Expr("ordering_version + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOrderingConflict
	}
	return nil
}
