package repository

import (
	"context"
	"testing"

	"mungboard/internal/models"
	"mungboard/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateDuplicateIsConstraint(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &models.User{LoginID: "dup", Email: "dup@example.com", Password: "hash", Nickname: "dup"}
	require.NoError(t, repo.Create(ctx, u))

	again := &models.User{LoginID: "dup2", Email: "dup@example.com", Password: "hash", Nickname: "dup2"}
	assert.True(t, models.IsConstraint(repo.Create(ctx, again)))
}

func TestUserRepository_LookupsAndProfileUpdate(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	created := testutil.CreateUser(t, db, "profiled")

	byLogin, err := repo.GetByLoginID(ctx, "login_profiled")
	require.NoError(t, err)
	require.NotNil(t, byLogin)
	assert.Equal(t, created.ID, byLogin.ID)

	missing, err := repo.GetByLoginID(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	byID.Address = "Seoul"
	byID.Password = ""
	require.NoError(t, repo.UpdateProfile(ctx, byID))

	reloaded, err := repo.GetByLoginID(ctx, "login_profiled")
	require.NoError(t, err)
	assert.Equal(t, "Seoul", reloaded.Address)
	assert.Equal(t, created.Password, reloaded.Password)
}

func TestUserRepository_DeleteCascadesContent(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "leaver")
	post := testutil.CreatePost(t, db, user.ID, "t", "c", "pw")
	testutil.CreateComment(t, db, post.ID, user.ID, nil, "bye")

	require.NoError(t, repo.Delete(ctx, user.ID))
	assert.Zero(t, testutil.CountRows(t, db, &models.Post{}))
	assert.Zero(t, testutil.CountRows(t, db, &models.Comment{}))

	assert.True(t, models.IsNotFound(repo.Delete(ctx, user.ID)))
	_, err := repo.GetByID(ctx, user.ID)
	assert.True(t, models.IsNotFound(err))
}
