package repository

import (
	"context"

	"docuhub/internal/model"

	"gorm.io/gorm"
)

// UserRepository defines the interface for data access of User entities
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, page, limit int) ([]model.User, int64, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
	CountByRole(ctx context.Context, roleID string) (int64, error)
	AdjustDepartmentCount(ctx context.Context, departmentID string, delta int) error
	ClearPermissionGrants(ctx context.Context, userID string) error
	ReleaseHeldDocuments(ctx context.Context, userID string) error
	DeleteRefreshTokensForUser(ctx context.Context, userID string) error
	CreateRefreshToken(ctx context.Context, token *model.RefreshToken) error
	GetRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error)
	DeleteRefreshToken(ctx context.Context, token string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).Preload("Role").Preload("Department").First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).Preload("Role").First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	if err := GetDB(ctx, r.db).Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := GetDB(ctx, r.db).Preload("Role").Preload("Department").
		Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Save(user).Error
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.User{}).Error
}

func (r *userRepository) CountByRole(ctx context.Context, roleID string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.User{}).Where("role_id = ?", roleID).Count(&count).Error
	return count, err
}

// AdjustDepartmentCount bumps the denormalized people_count by delta.
// Called as a separate step after the user row write.
func (r *userRepository) AdjustDepartmentCount(ctx context.Context, departmentID string, delta int) error {
	return GetDB(ctx, r.db).Model(&model.Department{}).
		Where("id = ?", departmentID).
		Update("people_count", gorm.Expr("people_count + ?", delta)).Error
}

// ClearPermissionGrants removes the user's direct permission grants. Role
// grants live on the role and are untouched.
func (r *userRepository) ClearPermissionGrants(ctx context.Context, userID string) error {
	return GetDB(ctx, r.db).Exec(`DELETE FROM user_permissions WHERE user_id = ?`, userID).Error
}

// ReleaseHeldDocuments clears the assignee pointer and any lock on documents
// the user currently holds, so the baton does not die with the account.
func (r *userRepository) ReleaseHeldDocuments(ctx context.Context, userID string) error {
	if err := GetDB(ctx, r.db).Model(&model.Document{}).
		Where("assigned_to_user = ?", userID).
		Updates(map[string]interface{}{"assigned_to_user": nil, "locked_by": nil, "locked_at": nil}).Error; err != nil {
		return err
	}
	return GetDB(ctx, r.db).Model(&model.Document{}).
		Where("locked_by = ?", userID).
		Updates(map[string]interface{}{"locked_by": nil, "locked_at": nil}).Error
}

func (r *userRepository) DeleteRefreshTokensForUser(ctx context.Context, userID string) error {
	return GetDB(ctx, r.db).Where("user_id = ?", userID).Delete(&model.RefreshToken{}).Error
}

func (r *userRepository) CreateRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	return GetDB(ctx, r.db).Create(token).Error
}

func (r *userRepository) GetRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	var rt model.RefreshToken
	if err := GetDB(ctx, r.db).Preload("User").Preload("User.Role").First(&rt, "token = ?", token).Error; err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *userRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	return GetDB(ctx, r.db).Where("token = ?", token).Delete(&model.RefreshToken{}).Error
}
