package service

import (
	"context"
	"errors"
	"testing"

	"mungboard/internal/models"
	"mungboard/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository. calls counts every
// method invocation so tests can prove a short circuit.
type postRepoStub struct {
	calls            int
	createFn         func(context.Context, *models.Post) error
	getByIDFn        func(context.Context, uint) (*models.Post, error)
	listAllFn        func(context.Context) ([]*models.Post, error)
	listByCategoryFn func(context.Context, string) ([]*models.Post, error)
	listByUserFn     func(context.Context, uint) ([]*models.Post, error)
	listPagedFn      func(context.Context, int, int) ([]*models.Post, error)
	searchFn         func(context.Context, repository.SearchField, string) ([]*models.Post, error)
	incrementFn      func(context.Context, uint) error
	updateGuardedFn  func(context.Context, uint, repository.PostGuard, func(*models.Post)) error
	deleteGuardedFn  func(context.Context, uint, repository.PostGuard) (*models.Post, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	s.calls++
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	s.calls++
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) ListAll(ctx context.Context) ([]*models.Post, error) {
	s.calls++
	return s.listAllFn(ctx)
}
func (s *postRepoStub) ListByCategory(ctx context.Context, category string) ([]*models.Post, error) {
	s.calls++
	return s.listByCategoryFn(ctx, category)
}
func (s *postRepoStub) ListByUser(ctx context.Context, userID uint) ([]*models.Post, error) {
	s.calls++
	return s.listByUserFn(ctx, userID)
}
func (s *postRepoStub) ListPaged(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	s.calls++
	return s.listPagedFn(ctx, limit, offset)
}
func (s *postRepoStub) Search(ctx context.Context, field repository.SearchField, keyword string) ([]*models.Post, error) {
	s.calls++
	return s.searchFn(ctx, field, keyword)
}
func (s *postRepoStub) IncrementViewCount(ctx context.Context, id uint) error {
	s.calls++
	return s.incrementFn(ctx, id)
}
func (s *postRepoStub) UpdateGuarded(ctx context.Context, id uint, guard repository.PostGuard, apply func(*models.Post)) error {
	s.calls++
	return s.updateGuardedFn(ctx, id, guard, apply)
}
func (s *postRepoStub) DeleteGuarded(ctx context.Context, id uint, guard repository.PostGuard) (*models.Post, error) {
	s.calls++
	return s.deleteGuardedFn(ctx, id, guard)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:         func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn:        func(_ context.Context, _ uint) (*models.Post, error) { return &models.Post{}, nil },
		listAllFn:        func(_ context.Context) ([]*models.Post, error) { return nil, nil },
		listByCategoryFn: func(_ context.Context, _ string) ([]*models.Post, error) { return nil, nil },
		listByUserFn:     func(_ context.Context, _ uint) ([]*models.Post, error) { return nil, nil },
		listPagedFn:      func(_ context.Context, _, _ int) ([]*models.Post, error) { return nil, nil },
		searchFn:         func(_ context.Context, _ repository.SearchField, _ string) ([]*models.Post, error) { return nil, nil },
		incrementFn:      func(_ context.Context, _ uint) error { return nil },
		updateGuardedFn: func(_ context.Context, _ uint, _ repository.PostGuard, _ func(*models.Post)) error {
			return nil
		},
		deleteGuardedFn: func(_ context.Context, _ uint, _ repository.PostGuard) (*models.Post, error) {
			return &models.Post{}, nil
		},
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	calls          int
	createFn       func(context.Context, *models.Comment) error
	getByIDFn      func(context.Context, uint) (*models.Comment, error)
	listByPostFn   func(context.Context, uint) ([]*models.Comment, error)
	listByUserFn   func(context.Context, uint) ([]*models.Comment, error)
	listAllFn      func(context.Context) ([]*models.Comment, error)
	updateOwnedFn  func(context.Context, uint, uint, uint, string) (int64, error)
	deleteThreadFn func(context.Context, uint, repository.CommentGuard) (int64, error)
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	s.calls++
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	s.calls++
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	s.calls++
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) ListByUser(ctx context.Context, userID uint) ([]*models.Comment, error) {
	s.calls++
	return s.listByUserFn(ctx, userID)
}
func (s *commentRepoStub) ListAll(ctx context.Context) ([]*models.Comment, error) {
	s.calls++
	return s.listAllFn(ctx)
}
func (s *commentRepoStub) UpdateOwned(ctx context.Context, id, postID, userID uint, content string) (int64, error) {
	s.calls++
	return s.updateOwnedFn(ctx, id, postID, userID, content)
}
func (s *commentRepoStub) DeleteThread(ctx context.Context, id uint, guard repository.CommentGuard) (int64, error) {
	s.calls++
	return s.deleteThreadFn(ctx, id, guard)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:      func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn:     func(_ context.Context, _ uint) (*models.Comment, error) { return &models.Comment{}, nil },
		listByPostFn:  func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
		listByUserFn:  func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
		listAllFn:     func(_ context.Context) ([]*models.Comment, error) { return nil, nil },
		updateOwnedFn: func(_ context.Context, _, _, _ uint, _ string) (int64, error) { return 1, nil },
		deleteThreadFn: func(_ context.Context, _ uint, _ repository.CommentGuard) (int64, error) {
			return 1, nil
		},
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByLoginIDFn  func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
	updateProfileFn func(context.Context, *models.User) error
	deleteFn        func(context.Context, uint) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByLoginID(ctx context.Context, loginID string) (*models.User, error) {
	return s.getByLoginIDFn(ctx, loginID)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) UpdateProfile(ctx context.Context, user *models.User) error {
	return s.updateProfileFn(ctx, user)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:       func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByLoginIDFn:  func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:        func(_ context.Context, _ *models.User) error { return nil },
		updateProfileFn: func(_ context.Context, _ *models.User) error { return nil },
		deleteFn:        func(_ context.Context, _ uint) error { return nil },
	}
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

// assertUnauthorizedError asserts that err is an AppError with code UNAUTHORIZED.
func assertUnauthorizedError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "UNAUTHORIZED", appErr.Code)
}

var (
	alice = models.Identity{UserID: 1, Nickname: "alice"}
	bob   = models.Identity{UserID: 2, Nickname: "bob"}
)
