package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docuhub/internal/apperr"
	"docuhub/internal/model"
	"docuhub/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateDepartmentRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateDepartmentRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type DepartmentResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PeopleCount int    `json:"people_count"`
	CreatedAt   string `json:"created_at"`
}

// --- Interface ---

type DepartmentService interface {
	ListDepartments(ctx context.Context) ([]DepartmentResponse, error)
	GetDepartment(ctx context.Context, id string) (*DepartmentResponse, error)
	CreateDepartment(ctx context.Context, req CreateDepartmentRequest) (*DepartmentResponse, error)
	UpdateDepartment(ctx context.Context, id string, req UpdateDepartmentRequest) (*DepartmentResponse, error)
	DeleteDepartment(ctx context.Context, id string) error
}

type departmentService struct {
	repo repository.DepartmentRepository
}

func NewDepartmentService(repo repository.DepartmentRepository) DepartmentService {
	return &departmentService{repo: repo}
}

// --- Implementation ---

func (s *departmentService) ListDepartments(ctx context.Context) ([]DepartmentResponse, error) {
	departments, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch departments: %w", err)
	}

	res := make([]DepartmentResponse, 0, len(departments))
	for _, d := range departments {
		res = append(res, toDepartmentResponse(d))
	}
	return res, nil
}

func (s *departmentService) GetDepartment(ctx context.Context, id string) (*DepartmentResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid department id: %w", apperr.ErrInvalidArgument)
	}

	dept, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("department not found: %w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch department: %w", err)
	}

	resp := toDepartmentResponse(*dept)
	return &resp, nil
}

func (s *departmentService) CreateDepartment(ctx context.Context, req CreateDepartmentRequest) (*DepartmentResponse, error) {
	if _, err := s.repo.FindByName(ctx, req.Name, nil); err == nil {
		return nil, fmt.Errorf("department name already exists: %w", apperr.ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check department name: %w", err)
	}

	dept := model.Department{
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.repo.Create(ctx, &dept); err != nil {
		return nil, fmt.Errorf("failed to create department: %w", err)
	}

	resp := toDepartmentResponse(dept)
	return &resp, nil
}

func (s *departmentService) UpdateDepartment(ctx context.Context, id string, req UpdateDepartmentRequest) (*DepartmentResponse, error) {
	deptID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid department id: %w", apperr.ErrInvalidArgument)
	}

	dept, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("department not found: %w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch department: %w", err)
	}

	if req.Name != dept.Name {
		if _, err := s.repo.FindByName(ctx, req.Name, &deptID); err == nil {
			return nil, fmt.Errorf("department name already exists: %w", apperr.ErrConflict)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check department name: %w", err)
		}
	}

	dept.Name = req.Name
	dept.Description = req.Description
	if err := s.repo.Update(ctx, dept); err != nil {
		return nil, fmt.Errorf("failed to update department: %w", err)
	}

	resp := toDepartmentResponse(*dept)
	return &resp, nil
}

// DeleteDepartment refuses while users are still assigned.
func (s *departmentService) DeleteDepartment(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid department id: %w", apperr.ErrInvalidArgument)
	}

	dept, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("department not found: %w", apperr.ErrNotFound)
		}
		return fmt.Errorf("failed to fetch department: %w", err)
	}

	if dept.PeopleCount > 0 {
		return fmt.Errorf("department '%s' still has %d member(s): %w", dept.Name, dept.PeopleCount, apperr.ErrDependent)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete department: %w", err)
	}
	return nil
}

// --- Helpers ---

func toDepartmentResponse(d model.Department) DepartmentResponse {
	return DepartmentResponse{
		ID:          d.ID.String(),
		Name:        d.Name,
		Description: d.Description,
		PeopleCount: d.PeopleCount,
		CreatedAt:   d.CreatedAt.Format(time.RFC3339),
	}
}
