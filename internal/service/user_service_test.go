package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"docuhub/internal/apperr"
	"docuhub/internal/auth"
	"docuhub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// fakeTxManager runs the callback directly without a real transaction.
type fakeTxManager struct{}

func (fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// failingTxManager rejects every transaction, simulating a rollback.
type failingTxManager struct{}

func (failingTxManager) RunInTx(context.Context, func(txCtx context.Context) error) error {
	return errors.New("transaction aborted")
}

type departmentAdjustment struct {
	departmentID string
	delta        int
}

type fakeUserRepo struct {
	createFn             func(context.Context, *model.User) error
	getByIDFn            func(context.Context, string) (*model.User, error)
	getByEmailFn         func(context.Context, string) (*model.User, error)
	listFn               func(context.Context, int, int) ([]model.User, int64, error)
	updateFn             func(context.Context, *model.User) error
	deleteFn             func(context.Context, string) error
	getRefreshTokenFn    func(context.Context, string) (*model.RefreshToken, error)
	deleteRefreshTokenFn func(context.Context, string) error

	adjustments   []departmentAdjustment
	refreshTokens []model.RefreshToken
	cleanupSteps  []string
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if f.createFn != nil {
		return f.createFn(ctx, user)
	}
	return nil
}
func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeUserRepo) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	if f.listFn != nil {
		return f.listFn(ctx, page, limit)
	}
	return nil, 0, nil
}
func (f *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, user)
	}
	return nil
}
func (f *fakeUserRepo) Delete(ctx context.Context, id string) error {
	f.cleanupSteps = append(f.cleanupSteps, "delete-user")
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}
func (f *fakeUserRepo) ClearPermissionGrants(_ context.Context, userID string) error {
	f.cleanupSteps = append(f.cleanupSteps, "clear-permissions")
	return nil
}
func (f *fakeUserRepo) ReleaseHeldDocuments(_ context.Context, userID string) error {
	f.cleanupSteps = append(f.cleanupSteps, "release-documents")
	return nil
}
func (f *fakeUserRepo) DeleteRefreshTokensForUser(_ context.Context, userID string) error {
	f.cleanupSteps = append(f.cleanupSteps, "delete-refresh-tokens")
	return nil
}
func (f *fakeUserRepo) CountByRole(context.Context, string) (int64, error) { return 0, nil }
func (f *fakeUserRepo) AdjustDepartmentCount(_ context.Context, departmentID string, delta int) error {
	f.adjustments = append(f.adjustments, departmentAdjustment{departmentID: departmentID, delta: delta})
	return nil
}
func (f *fakeUserRepo) CreateRefreshToken(_ context.Context, token *model.RefreshToken) error {
	f.refreshTokens = append(f.refreshTokens, *token)
	return nil
}
func (f *fakeUserRepo) GetRefreshToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	if f.getRefreshTokenFn != nil {
		return f.getRefreshTokenFn(ctx, token)
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeUserRepo) DeleteRefreshToken(ctx context.Context, token string) error {
	if f.deleteRefreshTokenFn != nil {
		return f.deleteRefreshTokenFn(ctx, token)
	}
	return nil
}

func TestSignInIssuesTokens(t *testing.T) {
	hash, err := auth.HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	user := &model.User{ID: uuid.New(), Name: "Ana", Email: "ana@example.com", Password: hash}
	repo := &fakeUserRepo{
		getByEmailFn: func(context.Context, string) (*model.User, error) { return user, nil },
	}
	secret := []byte("test-secret")
	svc := NewUserService(repo, fakeTxManager{}, secret)

	resp, err := svc.SignIn(context.Background(), SignInRequest{Email: "ana@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	claims := auth.VerifyToken(secret, resp.Token)
	if claims == nil || claims.UserID != user.ID.String() {
		t.Fatalf("unexpected token claims: %+v", claims)
	}
	if resp.RefreshToken == "" {
		t.Fatal("expected a refresh token")
	}
	if len(repo.refreshTokens) != 1 || repo.refreshTokens[0].Token != resp.RefreshToken {
		t.Fatalf("expected the refresh token to be persisted, got %+v", repo.refreshTokens)
	}
}

func TestSignInRejectsWrongPassword(t *testing.T) {
	hash, err := auth.HashPassword("correct-horse")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	user := &model.User{ID: uuid.New(), Email: "ana@example.com", Password: hash}
	repo := &fakeUserRepo{
		getByEmailFn: func(context.Context, string) (*model.User, error) { return user, nil },
	}
	svc := NewUserService(repo, fakeTxManager{}, []byte("test-secret"))

	_, err = svc.SignIn(context.Background(), SignInRequest{Email: "ana@example.com", Password: "wrong"})
	if !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("error = %v, want ErrUnauthenticated", err)
	}
}

func TestSignInUnknownEmail(t *testing.T) {
	svc := NewUserService(&fakeUserRepo{}, fakeTxManager{}, []byte("test-secret"))

	_, err := svc.SignIn(context.Background(), SignInRequest{Email: "nobody@example.com", Password: "x"})
	if !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("error = %v, want ErrUnauthenticated", err)
	}
}

func TestRefreshTokenRotates(t *testing.T) {
	user := model.User{ID: uuid.New(), Email: "ana@example.com"}
	stored := &model.RefreshToken{
		UserID:    user.ID,
		User:      user,
		Token:     "old-token",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	var deleted []string
	repo := &fakeUserRepo{
		getRefreshTokenFn: func(context.Context, string) (*model.RefreshToken, error) { return stored, nil },
		deleteRefreshTokenFn: func(_ context.Context, token string) error {
			deleted = append(deleted, token)
			return nil
		},
	}
	svc := NewUserService(repo, fakeTxManager{}, []byte("test-secret"))

	resp, err := svc.RefreshToken(context.Background(), RefreshTokenRequest{RefreshToken: "old-token"})
	if err != nil {
		t.Fatalf("RefreshToken() error = %v", err)
	}
	if len(deleted) != 1 || deleted[0] != "old-token" {
		t.Fatalf("expected the used token to be deleted, got %v", deleted)
	}
	if resp.RefreshToken == "old-token" || resp.RefreshToken == "" {
		t.Fatalf("expected a rotated refresh token, got %q", resp.RefreshToken)
	}
}

func TestRefreshTokenExpired(t *testing.T) {
	stored := &model.RefreshToken{
		UserID:    uuid.New(),
		Token:     "stale",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	repo := &fakeUserRepo{
		getRefreshTokenFn: func(context.Context, string) (*model.RefreshToken, error) { return stored, nil },
	}
	svc := NewUserService(repo, fakeTxManager{}, []byte("test-secret"))

	_, err := svc.RefreshToken(context.Background(), RefreshTokenRequest{RefreshToken: "stale"})
	if !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("error = %v, want ErrUnauthenticated", err)
	}
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	existing := &model.User{ID: uuid.New(), Email: "taken@example.com"}
	repo := &fakeUserRepo{
		getByEmailFn: func(context.Context, string) (*model.User, error) { return existing, nil },
	}
	svc := NewUserService(repo, fakeTxManager{}, []byte("test-secret"))

	_, err := svc.CreateUser(context.Background(), "", CreateUserRequest{
		Name:     "Dup",
		Email:    "taken@example.com",
		Password: "password123",
	})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("error = %v, want ErrConflict", err)
	}
}

func TestCreateUserSurfacesEmailCheckFailure(t *testing.T) {
	var inserted bool
	repo := &fakeUserRepo{
		getByEmailFn: func(context.Context, string) (*model.User, error) {
			return nil, errors.New("connection reset")
		},
		createFn: func(context.Context, *model.User) error {
			inserted = true
			return nil
		},
	}
	svc := NewUserService(repo, fakeTxManager{}, []byte("test-secret"))

	_, err := svc.CreateUser(context.Background(), "", CreateUserRequest{
		Name:     "Unlucky",
		Email:    "unlucky@example.com",
		Password: "password123",
	})
	if err == nil {
		t.Fatal("expected CreateUser() to fail when the email lookup fails")
	}
	if errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("error = %v, want a plain failure, not ErrConflict", err)
	}
	if inserted {
		t.Fatal("expected no insert after a failed email lookup")
	}
}

func TestCreateUserIncrementsDepartmentCount(t *testing.T) {
	dept := uuid.New()
	repo := &fakeUserRepo{}
	svc := NewUserService(repo, fakeTxManager{}, []byte("test-secret"))

	_, err := svc.CreateUser(context.Background(), "", CreateUserRequest{
		Name:         "New",
		Email:        "new@example.com",
		Password:     "password123",
		DepartmentID: dept.String(),
	})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if len(repo.adjustments) != 1 || repo.adjustments[0].departmentID != dept.String() || repo.adjustments[0].delta != 1 {
		t.Fatalf("unexpected counter adjustments: %+v", repo.adjustments)
	}
}

func TestUpdateUserMovesDepartmentCounter(t *testing.T) {
	oldDept := uuid.New()
	newDept := uuid.New()
	user := &model.User{ID: uuid.New(), Name: "Ana", Email: "ana@example.com", DepartmentID: &oldDept}
	repo := &fakeUserRepo{
		getByIDFn: func(context.Context, string) (*model.User, error) { return user, nil },
	}
	svc := NewUserService(repo, fakeTxManager{}, []byte("test-secret"))

	target := newDept.String()
	_, err := svc.UpdateUser(context.Background(), user.ID.String(), UpdateUserRequest{DepartmentID: &target})
	if err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
	if len(repo.adjustments) != 2 {
		t.Fatalf("expected two counter adjustments, got %+v", repo.adjustments)
	}
	if repo.adjustments[0].departmentID != oldDept.String() || repo.adjustments[0].delta != -1 {
		t.Fatalf("unexpected decrement: %+v", repo.adjustments[0])
	}
	if repo.adjustments[1].departmentID != newDept.String() || repo.adjustments[1].delta != 1 {
		t.Fatalf("unexpected increment: %+v", repo.adjustments[1])
	}
}

func TestDeleteUserDecrementsDepartmentCount(t *testing.T) {
	dept := uuid.New()
	user := &model.User{ID: uuid.New(), DepartmentID: &dept}
	repo := &fakeUserRepo{
		getByIDFn: func(context.Context, string) (*model.User, error) { return user, nil },
	}
	svc := NewUserService(repo, fakeTxManager{}, []byte("test-secret"))

	if err := svc.DeleteUser(context.Background(), user.ID.String()); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if len(repo.adjustments) != 1 || repo.adjustments[0].delta != -1 {
		t.Fatalf("unexpected counter adjustments: %+v", repo.adjustments)
	}
}

func TestDeleteUserClearsReferencesBeforeRowDelete(t *testing.T) {
	user := &model.User{ID: uuid.New()}
	repo := &fakeUserRepo{
		getByIDFn: func(context.Context, string) (*model.User, error) { return user, nil },
	}
	svc := NewUserService(repo, fakeTxManager{}, []byte("test-secret"))

	if err := svc.DeleteUser(context.Background(), user.ID.String()); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	want := []string{"clear-permissions", "release-documents", "delete-refresh-tokens", "delete-user"}
	if len(repo.cleanupSteps) != len(want) {
		t.Fatalf("cleanup steps = %v, want %v", repo.cleanupSteps, want)
	}
	for i := range want {
		if repo.cleanupSteps[i] != want[i] {
			t.Fatalf("cleanup steps = %v, want %v", repo.cleanupSteps, want)
		}
	}
}

func TestDeleteUserAbortsWhenTransactionFails(t *testing.T) {
	dept := uuid.New()
	user := &model.User{ID: uuid.New(), DepartmentID: &dept}
	repo := &fakeUserRepo{
		getByIDFn: func(context.Context, string) (*model.User, error) { return user, nil },
	}
	svc := NewUserService(repo, failingTxManager{}, []byte("test-secret"))

	if err := svc.DeleteUser(context.Background(), user.ID.String()); err == nil {
		t.Fatal("expected DeleteUser() to surface the transaction failure")
	}
	if len(repo.adjustments) != 0 {
		t.Fatalf("expected no counter adjustment after a failed delete, got %+v", repo.adjustments)
	}
}
