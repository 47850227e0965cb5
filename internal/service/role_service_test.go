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

type fakeRoleRepo struct {
	listFn               func(context.Context) ([]model.Role, error)
	getByIDFn            func(context.Context, string) (*model.Role, error)
	getByNameFn          func(context.Context, string) (*model.Role, error)
	createFn             func(context.Context, *model.Role, []uuid.UUID) error
	updateFn             func(context.Context, *model.Role) error
	countUsersFn         func(context.Context, string) (int64, error)
	listPermissionsFn    func(context.Context) ([]model.Permission, error)
	findPermissionsFn    func(context.Context, []uuid.UUID) ([]model.Permission, error)
	replacePermissionsFn func(context.Context, *model.Role, []model.Permission) error

	deleted []string
}

func (f *fakeRoleRepo) List(ctx context.Context) ([]model.Role, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}
	return nil, nil
}
func (f *fakeRoleRepo) GetByID(ctx context.Context, id string) (*model.Role, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeRoleRepo) GetByName(ctx context.Context, name string) (*model.Role, error) {
	if f.getByNameFn != nil {
		return f.getByNameFn(ctx, name)
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeRoleRepo) Create(ctx context.Context, role *model.Role, permissionIDs []uuid.UUID) error {
	if f.createFn != nil {
		return f.createFn(ctx, role, permissionIDs)
	}
	return nil
}
func (f *fakeRoleRepo) Update(ctx context.Context, role *model.Role) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, role)
	}
	return nil
}
func (f *fakeRoleRepo) Delete(_ context.Context, role *model.Role) error {
	f.deleted = append(f.deleted, role.ID.String())
	return nil
}
func (f *fakeRoleRepo) CountUsers(ctx context.Context, roleID string) (int64, error) {
	if f.countUsersFn != nil {
		return f.countUsersFn(ctx, roleID)
	}
	return 0, nil
}
func (f *fakeRoleRepo) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	if f.listPermissionsFn != nil {
		return f.listPermissionsFn(ctx)
	}
	return nil, nil
}
func (f *fakeRoleRepo) FindPermissions(ctx context.Context, ids []uuid.UUID) ([]model.Permission, error) {
	if f.findPermissionsFn != nil {
		return f.findPermissionsFn(ctx, ids)
	}
	return nil, nil
}
func (f *fakeRoleRepo) ReplacePermissions(ctx context.Context, role *model.Role, perms []model.Permission) error {
	if f.replacePermissionsFn != nil {
		return f.replacePermissionsFn(ctx, role, perms)
	}
	return nil
}
func (f *fakeRoleRepo) UpsertPermission(context.Context, *model.Permission) error { return nil }

func TestDeleteRoleStillAssigned(t *testing.T) {
	role := &model.Role{ID: uuid.New(), Name: "reviewer"}
	repo := &fakeRoleRepo{
		getByIDFn:    func(context.Context, string) (*model.Role, error) { return role, nil },
		countUsersFn: func(context.Context, string) (int64, error) { return 2, nil },
	}
	svc := NewRoleService(repo, nil)

	err := svc.DeleteRole(context.Background(), role.ID.String())
	if !errors.Is(err, apperr.ErrDependent) {
		t.Fatalf("error = %v, want ErrDependent", err)
	}
	if len(repo.deleted) != 0 {
		t.Fatalf("expected no delete while users carry the role, got %v", repo.deleted)
	}
}

func TestDeleteUnusedRole(t *testing.T) {
	role := &model.Role{ID: uuid.New(), Name: "reviewer"}
	repo := &fakeRoleRepo{
		getByIDFn: func(context.Context, string) (*model.Role, error) { return role, nil },
	}
	invalidated := 0
	svc := NewRoleService(repo, func() { invalidated++ })

	if err := svc.DeleteRole(context.Background(), role.ID.String()); err != nil {
		t.Fatalf("DeleteRole() error = %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != role.ID.String() {
		t.Fatalf("unexpected deletes: %v", repo.deleted)
	}
	if invalidated != 1 {
		t.Fatalf("expected one permission-cache invalidation, got %d", invalidated)
	}
}

func TestDeleteSystemRole(t *testing.T) {
	role := &model.Role{ID: uuid.New(), Name: "admin", IsSystem: true}
	repo := &fakeRoleRepo{
		getByIDFn: func(context.Context, string) (*model.Role, error) { return role, nil },
	}
	svc := NewRoleService(repo, nil)

	err := svc.DeleteRole(context.Background(), role.ID.String())
	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("error = %v, want ErrForbidden", err)
	}
	if len(repo.deleted) != 0 {
		t.Fatalf("expected system roles to survive, got %v", repo.deleted)
	}
}

func TestCreateRoleRejectsDuplicateName(t *testing.T) {
	existing := &model.Role{ID: uuid.New(), Name: "reviewer"}
	repo := &fakeRoleRepo{
		getByNameFn: func(context.Context, string) (*model.Role, error) { return existing, nil },
	}
	svc := NewRoleService(repo, nil)

	_, err := svc.CreateRole(context.Background(), CreateRoleRequest{Name: "reviewer"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
}

func TestCreateRoleRejectsBadPermissionID(t *testing.T) {
	svc := NewRoleService(&fakeRoleRepo{}, nil)

	_, err := svc.CreateRole(context.Background(), CreateRoleRequest{
		Name:        "reviewer",
		Permissions: []string{"not-a-uuid"},
	})
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("error = %v, want ErrInvalidArgument", err)
	}
}

func TestUpdateRolePermissionsInvalidatesCache(t *testing.T) {
	role := &model.Role{ID: uuid.New(), Name: "reviewer"}
	perm := model.Permission{ID: uuid.New(), Code: "documents.read"}
	var replaced []model.Permission
	repo := &fakeRoleRepo{
		getByIDFn: func(context.Context, string) (*model.Role, error) { return role, nil },
		findPermissionsFn: func(_ context.Context, ids []uuid.UUID) ([]model.Permission, error) {
			return []model.Permission{perm}, nil
		},
		replacePermissionsFn: func(_ context.Context, _ *model.Role, perms []model.Permission) error {
			replaced = perms
			return nil
		},
	}
	invalidated := 0
	svc := NewRoleService(repo, func() { invalidated++ })

	_, err := svc.UpdateRolePermissions(context.Background(), role.ID.String(), UpdateRolePermissionsRequest{
		PermissionIDs: []string{perm.ID.String()},
	})
	if err != nil {
		t.Fatalf("UpdateRolePermissions() error = %v", err)
	}
	if len(replaced) != 1 || replaced[0].Code != "documents.read" {
		t.Fatalf("unexpected replacement set: %+v", replaced)
	}
	if invalidated != 1 {
		t.Fatalf("expected one permission-cache invalidation, got %d", invalidated)
	}
}
