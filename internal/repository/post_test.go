package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"mungboard/internal/cache"
	"mungboard/internal/models"
	"mungboard/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_IncrementViewCount_SingleStatement(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db, 0)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "view_count"=view_count + $1 WHERE id = $2`)).
		WithArgs(1, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.IncrementViewCount(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Create_ForeignKeyIsConstraint(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db, 0)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "posts"`)).
		WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "fk_posts_user"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Post{UserID: 99, Title: "t", Content: "c", Category: "free", Password: "pw"})
	assert.True(t, models.IsConstraint(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Search_EscapesWildcards(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db, 0)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE posts.title LIKE $1 ESCAPE '\' ORDER BY posts.created_at DESC, posts.id DESC`)).
		WithArgs(`%50\%\_off%`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "nickname"}).AddRow(1, "50%_off sale", "walker"))

	posts, err := repo.Search(context.Background(), SearchTitle, "50%_off")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "walker", posts[0].Nickname)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Search_UnknownField(t *testing.T) {
	db, _ := setupMockDB(t)
	repo := NewPostRepository(db, 0)

	_, err := repo.Search(context.Background(), SearchField("password"), "x")
	assert.True(t, models.IsValidation(err))

	_, ok := ParseSearchField("password")
	assert.False(t, ok)
	f, ok := ParseSearchField("nickname")
	assert.True(t, ok)
	assert.Equal(t, SearchNickname, f)
}

func TestPostRepository_GetByID_JoinsNickname(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db, 0)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "puppylover")
	post := testutil.CreatePost(t, db, user.ID, "Walk", "Morning walk", "pw")

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "puppylover", got.Nickname)
	assert.Equal(t, "pw", got.Password)
	assert.Zero(t, got.ViewCount)

	_, err = repo.GetByID(ctx, post.ID+100)
	assert.True(t, models.IsNotFound(err))
}

func TestPostRepository_IncrementViewCount_MissingIsNoop(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db, 0)

	assert.NoError(t, repo.IncrementViewCount(context.Background(), 12345))
}

func TestPostRepository_ListPaged_Contiguous(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db, 0)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "pager")
	for i := 0; i < 7; i++ {
		testutil.CreatePost(t, db, user.ID, "post", "body", "pw")
	}

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 7)

	var paged []*models.Post
	for offset := 0; offset < 7; offset += 3 {
		page, err := repo.ListPaged(ctx, 3, offset)
		require.NoError(t, err)
		paged = append(paged, page...)
	}
	require.Len(t, paged, 7)
	for i := range all {
		assert.Equal(t, all[i].ID, paged[i].ID)
	}
	assert.Greater(t, all[0].ID, all[6].ID)
}

func TestPostRepository_Search_CaseSensitiveSubstring(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db, 0)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "DogWalker")
	bob := testutil.CreateUser(t, db, "catperson")
	testutil.CreatePost(t, db, alice.ID, "Hello World", "lower hello", "pw")
	testutil.CreatePost(t, db, bob.ID, "hello there", "Upper Hello", "pw")

	byTitle, err := repo.Search(ctx, SearchTitle, "Hello")
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
	assert.Equal(t, "Hello World", byTitle[0].Title)

	byContent, err := repo.Search(ctx, SearchContent, "hello")
	require.NoError(t, err)
	require.Len(t, byContent, 1)
	assert.Equal(t, "lower hello", byContent[0].Content)

	byNickname, err := repo.Search(ctx, SearchNickname, "Walk")
	require.NoError(t, err)
	require.Len(t, byNickname, 1)
	assert.Equal(t, "DogWalker", byNickname[0].Nickname)

	none, err := repo.Search(ctx, SearchNickname, "walk")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPostRepository_UpdateGuarded(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db, 0)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "editor")
	post := testutil.CreatePost(t, db, user.ID, "Before", "body", "pw")

	reject := func(*models.Post) error { return models.NewUnauthorizedError("password mismatch") }
	err := repo.UpdateGuarded(ctx, post.ID, reject, func(p *models.Post) { p.Title = "Hacked" })
	assert.True(t, models.IsUnauthorized(err))

	unchanged, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Before", unchanged.Title)

	accept := func(*models.Post) error { return nil }
	require.NoError(t, repo.UpdateGuarded(ctx, post.ID, accept, func(p *models.Post) { p.Title = "After" }))

	changed, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", changed.Title)
	assert.Equal(t, "free", changed.Category)

	err = repo.UpdateGuarded(ctx, post.ID+50, accept, func(*models.Post) {})
	assert.True(t, models.IsNotFound(err))
}

func TestPostRepository_DeleteGuarded_RemovesComments(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db, 0)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "remover")
	post := testutil.CreatePost(t, db, user.ID, "Doomed", "body", "pw")
	root := testutil.CreateComment(t, db, post.ID, user.ID, nil, "root")
	testutil.CreateComment(t, db, post.ID, user.ID, &root.ID, "reply")

	reject := func(*models.Post) error { return models.NewUnauthorizedError("password mismatch") }
	_, err := repo.DeleteGuarded(ctx, post.ID, reject)
	assert.True(t, models.IsUnauthorized(err))
	assert.Equal(t, int64(2), testutil.CountRows(t, db, &models.Comment{}))

	removed, err := repo.DeleteGuarded(ctx, post.ID, func(*models.Post) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, post.ID, removed.ID)
	assert.Zero(t, testutil.CountRows(t, db, &models.Comment{}))
	assert.Zero(t, testutil.CountRows(t, db, &models.Post{}))
}

func TestPostRepository_ListCacheInvalidatedOnWrite(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	db := testutil.NewSQLiteDB(t)
	repo := NewPostRepository(db, time.Minute)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "cacher")

	require.NoError(t, repo.Create(ctx, &models.Post{UserID: user.ID, Title: "one", Content: "c", Category: "free", Password: "pw"}))
	first, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Written behind the repository's back, so the cached listing stays stale.
	testutil.CreatePost(t, db, user.ID, "two", "c", "pw")
	cached, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	require.NoError(t, repo.Create(ctx, &models.Post{UserID: user.ID, Title: "three", Content: "c", Category: "free", Password: "pw"}))
	fresh, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh, 3)
	assert.Equal(t, "three", fresh[0].Title)
}
