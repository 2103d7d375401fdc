// Package testutil provides shared test databases and fixtures for backend tests.
package testutil

import (
	"fmt"
	"testing"

	"mungboard/internal/database"
	"mungboard/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewSQLiteDB opens a private in-memory SQLite database with the full schema.
// Foreign keys and case-sensitive LIKE are on, as in the file-backed driver.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1&_cslike=1&_busy_timeout=5000", uuid.NewString())
	db, err := database.Open(sqlite.Open(dsn))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// CreateUser inserts a user whose login, email and nickname derive from nickname.
func CreateUser(t testing.TB, db *gorm.DB, nickname string) *models.User {
	t.Helper()
	user := &models.User{
		LoginID:  "login_" + nickname,
		Email:    nickname + "@example.com",
		Password: "$2a$10$placeholderhashplaceholderhashplaceholderhashplac",
		Nickname: nickname,
		Role:     models.RoleUser,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreatePost inserts a post owned by userID.
func CreatePost(t testing.TB, db *gorm.DB, userID uint, title, content, password string) *models.Post {
	t.Helper()
	post := &models.Post{
		UserID:   userID,
		Title:    title,
		Content:  content,
		Category: models.CategoryFree,
		Password: password,
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

// CreateComment inserts a comment, threaded under parentID when non-nil.
func CreateComment(t testing.TB, db *gorm.DB, postID, userID uint, parentID *uint, content string) *models.Comment {
	t.Helper()
	comment := &models.Comment{
		PostID:   postID,
		UserID:   userID,
		ParentID: parentID,
		Content:  content,
	}
	require.NoError(t, db.Create(comment).Error)
	return comment
}

// CountRows counts rows of model in the database.
func CountRows(t testing.TB, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
