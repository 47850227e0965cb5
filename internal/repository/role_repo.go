package repository

import (
	"context"
	"errors"

	"docuhub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoleRepository defines the interface for data access of Role and
// Permission entities
type RoleRepository interface {
	List(ctx context.Context) ([]model.Role, error)
	GetByID(ctx context.Context, id string) (*model.Role, error)
	GetByName(ctx context.Context, name string) (*model.Role, error)
	Create(ctx context.Context, role *model.Role, permissionIDs []uuid.UUID) error
	Update(ctx context.Context, role *model.Role) error
	Delete(ctx context.Context, role *model.Role) error
	CountUsers(ctx context.Context, roleID string) (int64, error)
	ListPermissions(ctx context.Context) ([]model.Permission, error)
	FindPermissions(ctx context.Context, ids []uuid.UUID) ([]model.Permission, error)
	ReplacePermissions(ctx context.Context, role *model.Role, perms []model.Permission) error
	UpsertPermission(ctx context.Context, p *model.Permission) error
}

type roleRepository struct {
	db *gorm.DB
}

// NewRoleRepository returns a new instance of RoleRepository
func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) List(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	if err := GetDB(ctx, r.db).Preload("Permissions").Order("name ASC").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) GetByID(ctx context.Context, id string) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).Preload("Permissions").First(&role, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) GetByName(ctx context.Context, name string) (*model.Role, error) {
	var role model.Role
	if err := GetDB(ctx, r.db).First(&role, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// Create inserts the role and, when permissionIDs is non-empty, attaches the
// matching permissions in the same transaction.
func (r *roleRepository) Create(ctx context.Context, role *model.Role, permissionIDs []uuid.UUID) error {
	return GetDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(role).Error; err != nil {
			return err
		}
		if len(permissionIDs) > 0 {
			var perms []model.Permission
			if err := tx.Where("id IN ?", permissionIDs).Find(&perms).Error; err != nil {
				return err
			}
			if err := tx.Model(role).Association("Permissions").Replace(perms); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *roleRepository) Update(ctx context.Context, role *model.Role) error {
	return GetDB(ctx, r.db).Save(role).Error
}

// Delete clears the permission association before removing the row.
func (r *roleRepository) Delete(ctx context.Context, role *model.Role) error {
	if err := GetDB(ctx, r.db).Model(role).Association("Permissions").Clear(); err != nil {
		return err
	}
	return GetDB(ctx, r.db).Delete(role).Error
}

func (r *roleRepository) CountUsers(ctx context.Context, roleID string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.User{}).Where("role_id = ?", roleID).Count(&count).Error
	return count, err
}

func (r *roleRepository) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	var perms []model.Permission
	if err := GetDB(ctx, r.db).Order("category ASC, code ASC").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *roleRepository) FindPermissions(ctx context.Context, ids []uuid.UUID) ([]model.Permission, error) {
	var perms []model.Permission
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *roleRepository) ReplacePermissions(ctx context.Context, role *model.Role, perms []model.Permission) error {
	return GetDB(ctx, r.db).Model(role).Association("Permissions").Replace(perms)
}

// UpsertPermission matches on code; the name and category follow the
// definition so seed updates propagate.
func (r *roleRepository) UpsertPermission(ctx context.Context, p *model.Permission) error {
	var existing model.Permission
	err := GetDB(ctx, r.db).Where("code = ?", p.Code).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return GetDB(ctx, r.db).Create(p).Error
		}
		return err
	}
	p.ID = existing.ID
	return GetDB(ctx, r.db).Exec(
		`UPDATE permissions SET name = ?, category = ? WHERE id = ?`,
		p.Name, p.Category, existing.ID,
	).Error
}
