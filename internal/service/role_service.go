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

type CreateRoleRequest struct {
	Name         string   `json:"name" binding:"required"`
	Description  string   `json:"description"`
	DepartmentID string   `json:"department_id"`
	Permissions  []string `json:"permissions"` // Permission UUIDs
}

type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateRolePermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" binding:"required"`
}

type RoleResponse struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	DepartmentID *string              `json:"department_id"`
	IsSystem     bool                 `json:"is_system"`
	Permissions  []PermissionResponse `json:"permissions"`
	CreatedAt    string               `json:"created_at"`
}

type PermissionResponse struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// --- Interface ---

type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	GetRole(ctx context.Context, id string) (*RoleResponse, error)
	CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error)
	UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*RoleResponse, error)
	DeleteRole(ctx context.Context, id string) error
	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
	UpdateRolePermissions(ctx context.Context, roleID string, req UpdateRolePermissionsRequest) (*RoleResponse, error)
	SeedDefaultRolesAndPermissions(ctx context.Context) error
}

// permissionCacheInvalidator drops cached permission sets after grants change.
type permissionCacheInvalidator func()

type roleService struct {
	repo            repository.RoleRepository
	invalidateCache permissionCacheInvalidator
}

func NewRoleService(repo repository.RoleRepository, invalidateCache permissionCacheInvalidator) RoleService {
	if invalidateCache == nil {
		invalidateCache = func() {}
	}
	return &roleService{repo: repo, invalidateCache: invalidateCache}
}

// --- Implementation ---

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	roles, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}

	res := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		res = append(res, toRoleResponse(r))
	}
	return res, nil
}

func (s *roleService) GetRole(ctx context.Context, id string) (*RoleResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid role id: %w", apperr.ErrInvalidArgument)
	}

	role, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("role not found: %w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch role: %w", err)
	}

	resp := toRoleResponse(*role)
	return &resp, nil
}

func (s *roleService) CreateRole(ctx context.Context, req CreateRoleRequest) (*RoleResponse, error) {
	if _, err := s.repo.GetByName(ctx, req.Name); err == nil {
		return nil, fmt.Errorf("role name already exists: %w", apperr.ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check role name: %w", err)
	}

	role := model.Role{
		Name:        req.Name,
		Description: req.Description,
		IsSystem:    false,
	}
	if req.DepartmentID != "" {
		deptID, parseErr := uuid.Parse(req.DepartmentID)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid department id: %w", apperr.ErrInvalidArgument)
		}
		role.DepartmentID = &deptID
	}

	permIDs := make([]uuid.UUID, 0, len(req.Permissions))
	for _, pid := range req.Permissions {
		parsed, parseErr := uuid.Parse(pid)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid permission id '%s': %w", pid, apperr.ErrInvalidArgument)
		}
		permIDs = append(permIDs, parsed)
	}

	if err := s.repo.Create(ctx, &role, permIDs); err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}

	return s.GetRole(ctx, role.ID.String())
}

func (s *roleService) UpdateRole(ctx context.Context, id string, req UpdateRoleRequest) (*RoleResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid role id: %w", apperr.ErrInvalidArgument)
	}

	role, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("role not found: %w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch role: %w", err)
	}

	role.Name = req.Name
	role.Description = req.Description

	if err := s.repo.Update(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	s.invalidateCache()
	return s.GetRole(ctx, id)
}

// DeleteRole refuses while users still carry the role.
func (s *roleService) DeleteRole(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid role id: %w", apperr.ErrInvalidArgument)
	}

	role, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("role not found: %w", apperr.ErrNotFound)
		}
		return fmt.Errorf("failed to fetch role: %w", err)
	}

	if role.IsSystem {
		return fmt.Errorf("cannot delete system role '%s': %w", role.Name, apperr.ErrForbidden)
	}

	userCount, err := s.repo.CountUsers(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count role users: %w", err)
	}
	if userCount > 0 {
		return fmt.Errorf("role '%s' is still assigned to %d user(s): %w", role.Name, userCount, apperr.ErrDependent)
	}

	if err := s.repo.Delete(ctx, role); err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	s.invalidateCache()
	return nil
}

func (s *roleService) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}

	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, toPermissionResponse(p))
	}
	return res, nil
}

func (s *roleService) UpdateRolePermissions(ctx context.Context, roleID string, req UpdateRolePermissionsRequest) (*RoleResponse, error) {
	if _, err := uuid.Parse(roleID); err != nil {
		return nil, fmt.Errorf("invalid role id: %w", apperr.ErrInvalidArgument)
	}

	role, err := s.repo.GetByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("role not found: %w", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch role: %w", err)
	}

	var perms []model.Permission
	if len(req.PermissionIDs) > 0 {
		permIDs := make([]uuid.UUID, 0, len(req.PermissionIDs))
		for _, pid := range req.PermissionIDs {
			parsed, parseErr := uuid.Parse(pid)
			if parseErr != nil {
				return nil, fmt.Errorf("invalid permission id '%s': %w", pid, apperr.ErrInvalidArgument)
			}
			permIDs = append(permIDs, parsed)
		}
		perms, err = s.repo.FindPermissions(ctx, permIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch permissions: %w", err)
		}
	}

	if err := s.repo.ReplacePermissions(ctx, role, perms); err != nil {
		return nil, fmt.Errorf("failed to update permissions: %w", err)
	}

	s.invalidateCache()
	return s.GetRole(ctx, roleID)
}

// SeedDefaultRolesAndPermissions creates the default permissions and roles if not already present
func (s *roleService) SeedDefaultRolesAndPermissions(ctx context.Context) error {
	defaultPermissions := []model.Permission{
		{Code: "documents.read", Name: "View documents", Category: "documents"},
		{Code: "documents.write", Name: "Upload and manage documents", Category: "documents"},
		{Code: "documents.assign", Name: "Assign documents", Category: "documents"},
		{Code: "annotations.write", Name: "Annotate documents", Category: "annotations"},
		{Code: "users.read", Name: "View users", Category: "users"},
		{Code: "users.write", Name: "Manage users", Category: "users"},
		{Code: "users.delete", Name: "Delete users", Category: "users"},
		{Code: "departments.manage", Name: "Manage departments", Category: "departments"},
		{Code: "roles.manage", Name: "Manage roles and permissions", Category: "roles"},
		{Code: "activity.read", Name: "View activity log", Category: "activity"},
		{Code: "statistics.read", Name: "View document statistics", Category: "statistics"},
	}

	for i := range defaultPermissions {
		if err := s.repo.UpsertPermission(ctx, &defaultPermissions[i]); err != nil {
			return fmt.Errorf("failed to seed permission '%s': %w", defaultPermissions[i].Code, err)
		}
	}

	permByCode := make(map[string]model.Permission)
	for _, p := range defaultPermissions {
		permByCode[p.Code] = p
	}

	roleDefinitions := map[string]struct {
		Description string
		PermCodes   []string
	}{
		"admin": {
			Description: "Administrator — full system access",
			PermCodes: []string{
				"documents.read", "documents.write", "documents.assign",
				"annotations.write",
				"users.read", "users.write", "users.delete",
				"departments.manage", "roles.manage",
				"activity.read", "statistics.read",
			},
		},
		"manager": {
			Description: "Manager — document workflow and user oversight",
			PermCodes: []string{
				"documents.read", "documents.write", "documents.assign",
				"annotations.write",
				"users.read", "users.write",
				"activity.read", "statistics.read",
			},
		},
		"member": {
			Description: "Member — view and annotate assigned documents",
			PermCodes: []string{
				"documents.read", "documents.write", "documents.assign",
				"annotations.write",
			},
		},
	}

	for roleName, def := range roleDefinitions {
		role, err := s.repo.GetByName(ctx, roleName)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to look up role '%s': %w", roleName, err)
			}
			role = &model.Role{
				Name:        roleName,
				Description: def.Description,
				IsSystem:    true,
			}
			if err := s.repo.Create(ctx, role, nil); err != nil {
				return fmt.Errorf("failed to seed role '%s': %w", roleName, err)
			}
		}

		perms := make([]model.Permission, 0, len(def.PermCodes))
		for _, code := range def.PermCodes {
			if p, ok := permByCode[code]; ok {
				perms = append(perms, p)
			}
		}
		if err := s.repo.ReplacePermissions(ctx, role, perms); err != nil {
			return fmt.Errorf("failed to assign permissions to role '%s': %w", roleName, err)
		}
	}

	s.invalidateCache()
	return nil
}

// --- Helpers ---

func toRoleResponse(r model.Role) RoleResponse {
	perms := make([]PermissionResponse, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, toPermissionResponse(p))
	}

	resp := RoleResponse{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		Permissions: perms,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
	if r.DepartmentID != nil {
		s := r.DepartmentID.String()
		resp.DepartmentID = &s
	}
	return resp
}

func toPermissionResponse(p model.Permission) PermissionResponse {
	return PermissionResponse{
		ID:       p.ID.String(),
		Code:     p.Code,
		Name:     p.Name,
		Category: p.Category,
	}
}
