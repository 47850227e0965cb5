package service

import (
	"context"
	"errors"
	"testing"

	"docuhub/internal/apperr"
	"docuhub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeDepartmentRepo struct {
	listFn       func(context.Context) ([]model.Department, error)
	getByIDFn    func(context.Context, string) (*model.Department, error)
	findByNameFn func(context.Context, string, *uuid.UUID) (*model.Department, error)
	createFn     func(context.Context, *model.Department) error
	updateFn     func(context.Context, *model.Department) error

	deleted []string
}

func (f *fakeDepartmentRepo) List(ctx context.Context) ([]model.Department, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return nil, nil
}
func (f *fakeDepartmentRepo) GetByID(ctx context.Context, id string) (*model.Department, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeDepartmentRepo) FindByName(ctx context.Context, name string, excludeID *uuid.UUID) (*model.Department, error) {
	if f.findByNameFn != nil {
		return f.findByNameFn(ctx, name, excludeID)
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeDepartmentRepo) Create(ctx context.Context, dept *model.Department) error {
	if f.createFn != nil {
		return f.createFn(ctx, dept)
	}
	return nil
}
func (f *fakeDepartmentRepo) Update(ctx context.Context, dept *model.Department) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, dept)
	}
	return nil
}
func (f *fakeDepartmentRepo) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func TestDeleteDepartmentWithMembers(t *testing.T) {
	dept := &model.Department{ID: uuid.New(), Name: "Legal", PeopleCount: 3}
	repo := &fakeDepartmentRepo{
		getByIDFn: func(context.Context, string) (*model.Department, error) { return dept, nil },
	}
	svc := NewDepartmentService(repo)

	err := svc.DeleteDepartment(context.Background(), dept.ID.String())
	if !errors.Is(err, apperr.ErrDependent) {
		t.Fatalf("error = %v, want ErrDependent", err)
	}
	if len(repo.deleted) != 0 {
		t.Fatalf("expected no delete while members remain, got %v", repo.deleted)
	}
}

func TestDeleteEmptyDepartment(t *testing.T) {
	dept := &model.Department{ID: uuid.New(), Name: "Archive", PeopleCount: 0}
	repo := &fakeDepartmentRepo{
		getByIDFn: func(context.Context, string) (*model.Department, error) { return dept, nil },
	}
	svc := NewDepartmentService(repo)

	if err := svc.DeleteDepartment(context.Background(), dept.ID.String()); err != nil {
		t.Fatalf("DeleteDepartment() error = %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != dept.ID.String() {
		t.Fatalf("unexpected deletes: %v", repo.deleted)
	}
}

func TestDeleteMissingDepartment(t *testing.T) {
	svc := NewDepartmentService(&fakeDepartmentRepo{})

	err := svc.DeleteDepartment(context.Background(), uuid.New().String())
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestCreateDepartmentRejectsDuplicateName(t *testing.T) {
	existing := &model.Department{ID: uuid.New(), Name: "Legal"}
	repo := &fakeDepartmentRepo{
		findByNameFn: func(context.Context, string, *uuid.UUID) (*model.Department, error) {
			return existing, nil
		},
	}
	svc := NewDepartmentService(repo)

	_, err := svc.CreateDepartment(context.Background(), CreateDepartmentRequest{Name: "Legal"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
}

func TestUpdateDepartmentExcludesSelfFromNameCheck(t *testing.T) {
	dept := &model.Department{ID: uuid.New(), Name: "Legal"}
	var checkedExclude *uuid.UUID
	repo := &fakeDepartmentRepo{
		getByIDFn: func(context.Context, string) (*model.Department, error) { return dept, nil },
		findByNameFn: func(_ context.Context, _ string, excludeID *uuid.UUID) (*model.Department, error) {
			checkedExclude = excludeID
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := NewDepartmentService(repo)

	resp, err := svc.UpdateDepartment(context.Background(), dept.ID.String(), UpdateDepartmentRequest{Name: "Compliance"})
	if err != nil {
		t.Fatalf("UpdateDepartment() error = %v", err)
	}
	if checkedExclude == nil || *checkedExclude != dept.ID {
		t.Fatalf("expected the name check to exclude the row being renamed, got %v", checkedExclude)
	}
	if resp.Name != "Compliance" {
		t.Fatalf("name = %q, want %q", resp.Name, "Compliance")
	}
}
