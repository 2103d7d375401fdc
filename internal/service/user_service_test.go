package service

import (
	"context"
	"testing"

	"mungboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func validSignup() SignupInput {
	return SignupInput{
		LoginID:  "dogwalker",
		Password: "walkies2024",
		Email:    "walker@example.com",
		Nickname: "Walker",
		PetInfo:  `{"name":"Bori","breed":"jindo"}`,
	}
}

func TestUserService_Signup_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SignupInput)
	}{
		{"bad login id", func(in *SignupInput) { in.LoginID = "a!" }},
		{"weak password", func(in *SignupInput) { in.Password = "short" }},
		{"bad email", func(in *SignupInput) { in.Email = "nope" }},
		{"bad nickname", func(in *SignupInput) { in.Nickname = "x" }},
		{"admin role", func(in *SignupInput) { in.Role = "admin" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := noopUserRepo()
			created := false
			repo.createFn = func(context.Context, *models.User) error {
				created = true
				return nil
			}
			in := validSignup()
			tt.mutate(&in)

			_, err := NewUserService(repo).Signup(context.Background(), in)
			assertValidationError(t, err)
			assert.False(t, created)
		})
	}
}

func TestUserService_Signup_HashesPasswordAndKeepsPetInfo(t *testing.T) {
	repo := noopUserRepo()
	var saved *models.User
	repo.createFn = func(_ context.Context, u *models.User) error {
		u.ID = 11
		saved = u
		return nil
	}

	user, err := NewUserService(repo).Signup(context.Background(), validSignup())
	require.NoError(t, err)
	assert.Equal(t, uint(11), user.ID)
	assert.Equal(t, models.RoleUser, saved.Role)
	assert.NotEqual(t, "walkies2024", saved.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(saved.Password), []byte("walkies2024")))
	assert.Equal(t, `{"name":"Bori","breed":"jindo"}`, saved.PetInfo)
}

func TestUserService_Signup_Duplicate(t *testing.T) {
	repo := noopUserRepo()
	repo.createFn = func(context.Context, *models.User) error {
		return models.NewConstraintError("User already exists", nil)
	}
	_, err := NewUserService(repo).Signup(context.Background(), validSignup())
	assert.True(t, models.IsConstraint(err))
}

func TestUserService_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("walkies2024"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := noopUserRepo()
	repo.getByLoginIDFn = func(_ context.Context, loginID string) (*models.User, error) {
		if loginID != "dogwalker" {
			return nil, nil
		}
		return &models.User{ID: 3, LoginID: loginID, Password: string(hash), Nickname: "Walker"}, nil
	}
	svc := NewUserService(repo)
	ctx := context.Background()

	user, err := svc.Login(ctx, "dogwalker", "walkies2024")
	require.NoError(t, err)
	assert.Equal(t, uint(3), user.ID)

	_, err = svc.Login(ctx, "dogwalker", "wrong")
	assertUnauthorizedError(t, err)
	_, err = svc.Login(ctx, "stranger", "walkies2024")
	assertUnauthorizedError(t, err)
	_, err = svc.Login(ctx, "", "")
	assertValidationError(t, err)
}

func TestUserService_UpdateProfile(t *testing.T) {
	repo := noopUserRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		return &models.User{ID: id, Nickname: "old", Address: "Busan", Email: "old@example.com"}, nil
	}
	var saved *models.User
	repo.updateProfileFn = func(_ context.Context, u *models.User) error {
		saved = u
		return nil
	}
	svc := NewUserService(repo)

	_, err := svc.UpdateProfile(context.Background(), models.Identity{}, UpdateProfileInput{Address: "Seoul"})
	assertUnauthorizedError(t, err)

	_, err = svc.UpdateProfile(context.Background(), alice, UpdateProfileInput{Email: "broken"})
	assertValidationError(t, err)

	user, err := svc.UpdateProfile(context.Background(), alice, UpdateProfileInput{Address: "Seoul"})
	require.NoError(t, err)
	assert.Equal(t, "Seoul", user.Address)
	assert.Equal(t, "old", saved.Nickname)
	assert.Equal(t, "old@example.com", saved.Email)
}

func TestUserService_DeleteAccount(t *testing.T) {
	repo := noopUserRepo()
	var deleted uint
	repo.deleteFn = func(_ context.Context, id uint) error {
		deleted = id
		return nil
	}
	svc := NewUserService(repo)

	assertUnauthorizedError(t, svc.DeleteAccount(context.Background(), models.Identity{}))
	require.NoError(t, svc.DeleteAccount(context.Background(), bob))
	assert.Equal(t, bob.UserID, deleted)
}
