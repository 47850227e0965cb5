package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"docuhub/internal/apperr"
	"docuhub/internal/auth"
	"docuhub/internal/model"
	"docuhub/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs for Request validation
type CreateUserRequest struct {
	Name         string `json:"name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=6"`
	DepartmentID string `json:"department_id"`
	RoleID       string `json:"role_id"`
}

type UpdateUserRequest struct {
	Name         string  `json:"name"`
	Email        string  `json:"email" binding:"omitempty,email"`
	DepartmentID *string `json:"department_id"` // empty string clears the department
	RoleID       *string `json:"role_id"`
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type TokenResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	DepartmentID   *string `json:"department_id"`
	DepartmentName string  `json:"department_name"`
	RoleID         *string `json:"role_id"`
	RoleName       string  `json:"role_name"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	SignIn(ctx context.Context, req SignInRequest) (*TokenResponse, error)
	RefreshToken(ctx context.Context, req RefreshTokenRequest) (*TokenResponse, error)
	CreateUser(ctx context.Context, creatorID string, req CreateUserRequest) (*UserResponse, error)
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, id string) error
}

type userService struct {
	repo      repository.UserRepository
	txManager repository.TransactionManager
	secret    []byte
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository, txManager repository.TransactionManager, secret []byte) UserService {
	return &userService{repo: repo, txManager: txManager, secret: secret}
}

func (s *userService) SignIn(ctx context.Context, req SignInRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("invalid email or password: %w", apperr.ErrUnauthenticated)
	}

	if !auth.VerifyPassword(req.Password, user.Password) {
		return nil, fmt.Errorf("invalid email or password: %w", apperr.ErrUnauthenticated)
	}

	return s.issueTokens(ctx, user)
}

func (s *userService) RefreshToken(ctx context.Context, req RefreshTokenRequest) (*TokenResponse, error) {
	stored, err := s.repo.GetRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", apperr.ErrUnauthenticated)
	}
	if time.Now().After(stored.ExpiresAt) {
		_ = s.repo.DeleteRefreshToken(ctx, req.RefreshToken)
		return nil, fmt.Errorf("refresh token expired: %w", apperr.ErrUnauthenticated)
	}

	// Rotate atomically: the old token is single-use
	var resp *TokenResponse
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.DeleteRefreshToken(txCtx, req.RefreshToken); err != nil {
			return fmt.Errorf("failed to delete used refresh token: %w", err)
		}
		issued, err := s.issueTokens(txCtx, &stored.User)
		if err != nil {
			return err
		}
		resp = issued
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *userService) issueTokens(ctx context.Context, user *model.User) (*TokenResponse, error) {
	claims := auth.Claims{UserID: user.ID.String()}
	if user.Role != nil {
		claims.Role = user.Role.Name
		claims.RoleID = user.Role.ID.String()
	} else if user.RoleID != nil {
		claims.RoleID = user.RoleID.String()
	}

	token, err := auth.IssueToken(s.secret, claims)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	refreshBytes := make([]byte, 32)
	if _, err := rand.Read(refreshBytes); err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	refresh := model.RefreshToken{
		UserID:    user.ID,
		Token:     hex.EncodeToString(refreshBytes),
		ExpiresAt: time.Now().Add(auth.TokenTTL),
	}
	if err := s.repo.CreateRefreshToken(ctx, &refresh); err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	return &TokenResponse{
		Token:        token,
		RefreshToken: refresh.Token,
		User:         mapToUserResponse(user),
	}, nil
}

func (s *userService) CreateUser(ctx context.Context, creatorID string, req CreateUserRequest) (*UserResponse, error) {
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already exists: %w", apperr.ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hashedPassword,
	}

	if req.DepartmentID != "" {
		deptID, parseErr := uuid.Parse(req.DepartmentID)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid department id: %w", apperr.ErrInvalidArgument)
		}
		user.DepartmentID = &deptID
	}
	if req.RoleID != "" {
		roleID, parseErr := uuid.Parse(req.RoleID)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid role id: %w", apperr.ErrInvalidArgument)
		}
		user.RoleID = &roleID
	}
	if creatorID != "" {
		if creator, parseErr := uuid.Parse(creatorID); parseErr == nil {
			user.CreatedBy = &creator
		}
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Counter upkeep is a separate step; if it fails the count drifts until
	// the next repair, which is logged rather than rolled back.
	if user.DepartmentID != nil {
		if err := s.repo.AdjustDepartmentCount(ctx, user.DepartmentID.String(), 1); err != nil {
			log.Printf("failed to increment people_count for department %s: %v", user.DepartmentID, err)
		}
	}

	created, loadErr := s.repo.GetByID(ctx, user.ID.String())
	if loadErr != nil {
		resp := mapToUserResponse(user)
		return &resp, nil
	}
	resp := mapToUserResponse(created)
	return &resp, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	resp := mapToUserResponse(user)
	return &resp, nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, mapToUserResponse(&users[i]))
	}

	return responses, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Email != "" && req.Email != user.Email {
		if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
			return nil, fmt.Errorf("email already exists: %w", apperr.ErrConflict)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		user.Email = req.Email
	}
	if req.RoleID != nil {
		if *req.RoleID == "" {
			user.RoleID = nil
			user.Role = nil
		} else {
			roleID, parseErr := uuid.Parse(*req.RoleID)
			if parseErr != nil {
				return nil, fmt.Errorf("invalid role id: %w", apperr.ErrInvalidArgument)
			}
			user.RoleID = &roleID
		}
	}

	oldDept := user.DepartmentID
	if req.DepartmentID != nil {
		if *req.DepartmentID == "" {
			user.DepartmentID = nil
			user.Department = nil
		} else {
			deptID, parseErr := uuid.Parse(*req.DepartmentID)
			if parseErr != nil {
				return nil, fmt.Errorf("invalid department id: %w", apperr.ErrInvalidArgument)
			}
			user.DepartmentID = &deptID
		}
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	// Move the denormalized counter when the department changed
	if req.DepartmentID != nil && !uuidPtrEqual(oldDept, user.DepartmentID) {
		if oldDept != nil {
			if err := s.repo.AdjustDepartmentCount(ctx, oldDept.String(), -1); err != nil {
				log.Printf("failed to decrement people_count for department %s: %v", oldDept, err)
			}
		}
		if user.DepartmentID != nil {
			if err := s.repo.AdjustDepartmentCount(ctx, user.DepartmentID.String(), 1); err != nil {
				log.Printf("failed to increment people_count for department %s: %v", user.DepartmentID, err)
			}
		}
	}

	return s.GetUserByID(ctx, id)
}

func (s *userService) DeleteUser(ctx context.Context, id string) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
		}
		return fmt.Errorf("failed to fetch user: %w", err)
	}

	// A user goes away only after its references do: direct permission
	// grants, held document batons and locks, and outstanding refresh
	// tokens are cleared in the same transaction as the row delete.
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.ClearPermissionGrants(txCtx, id); err != nil {
			return fmt.Errorf("failed to clear permission grants: %w", err)
		}
		if err := s.repo.ReleaseHeldDocuments(txCtx, id); err != nil {
			return fmt.Errorf("failed to release held documents: %w", err)
		}
		if err := s.repo.DeleteRefreshTokensForUser(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete refresh tokens: %w", err)
		}
		if err := s.repo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if user.DepartmentID != nil {
		if err := s.repo.AdjustDepartmentCount(ctx, user.DepartmentID.String(), -1); err != nil {
			log.Printf("failed to decrement people_count for department %s: %v", user.DepartmentID, err)
		}
	}

	return nil
}

// --- Helpers ---

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func mapToUserResponse(user *model.User) UserResponse {
	resp := UserResponse{
		ID:        user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
	if user.DepartmentID != nil {
		s := user.DepartmentID.String()
		resp.DepartmentID = &s
	}
	if user.Department != nil {
		resp.DepartmentName = user.Department.Name
	}
	if user.RoleID != nil {
		s := user.RoleID.String()
		resp.RoleID = &s
	}
	if user.Role != nil {
		resp.RoleName = user.Role.Name
	}
	return resp
}
