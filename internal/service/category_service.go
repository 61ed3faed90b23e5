package service

import (
	"strings"

	"github.com/Mohmk10/sencours-back-sub000/internal/models"
	"github.com/Mohmk10/sencours-back-sub000/internal/repository"
	"github.com/Mohmk10/sencours-back-sub000/pkg/utils"
	"github.com/Mohmk10/sencours-back-sub000/pkg/validator"
)

type CategoryService struct {
	categoryRepo repository.CategoryRepository
}

func NewCategoryService(categoryRepo repository.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

func (s *CategoryService) Create(req models.CreateCategoryRequest) (*models.Category, error) {
	name := validator.SanitizeString(strings.TrimSpace(req.Name))
	if name == "" {
		return nil, newValidationError("category name is required")
	}

	slug := utils.GenerateSlug(name)
	if _, err := s.categoryRepo.GetBySlug(slug); err == nil {
		return nil, newValidationError("category with this name already exists")
	}

	category := &models.Category{
		Name:        name,
		Slug:        slug,
		Description: validator.SanitizeString(req.Description),
	}
	if err := s.categoryRepo.Create(category); err != nil {
		if isDuplicateKeyError(err) {
			return nil, newValidationError("category with this name already exists")
		}
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) Update(id uint, req models.UpdateCategoryRequest) (*models.Category, error) {
	category, err := s.categoryRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	name := validator.SanitizeString(strings.TrimSpace(req.Name))
	if name == "" {
		return nil, newValidationError("category name is required")
	}

	if name != category.Name {
		slug := utils.GenerateSlug(name)
		if existing, err := s.categoryRepo.GetBySlug(slug); err == nil && existing.ID != id {
			return nil, newValidationError("category with this name already exists")
		}
		category.Name = name
		category.Slug = slug
	}
	category.Description = validator.SanitizeString(req.Description)

	if err := s.categoryRepo.Update(category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *CategoryService) Delete(id uint) error {
	if _, err := s.categoryRepo.GetByID(id); err != nil {
		return err
	}
	return s.categoryRepo.Delete(id)
}

func (s *CategoryService) GetByID(id uint) (*models.Category, error) {
	return s.categoryRepo.GetByID(id)
}

func (s *CategoryService) GetBySlug(slug string) (*models.Category, error) {
	return s.categoryRepo.GetBySlug(slug)
}

func (s *CategoryService) List() ([]models.Category, error) {
	return s.categoryRepo.List()
}
