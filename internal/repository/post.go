// Package repository implements the data access layer for the board.
package repository

import (
	"context"
	"time"

	"mungboard/internal/cache"
	"mungboard/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SearchField selects which text a post search matches against.
type SearchField string

const (
	SearchTitle    SearchField = "title"
	SearchContent  SearchField = "content"
	SearchNickname SearchField = "nickname"
)

var searchColumns = map[SearchField]string{
	SearchTitle:    "posts.title",
	SearchContent:  "posts.content",
	SearchNickname: "users.nickname",
}

// ParseSearchField validates a client-supplied search type.
func ParseSearchField(s string) (SearchField, bool) {
	f := SearchField(s)
	_, ok := searchColumns[f]
	return f, ok
}

// listColumns leave out the password and inline file bytes.
var listColumns = []string{
	"posts.id", "posts.user_id", "posts.title", "posts.content", "posts.category",
	"posts.view_count", "posts.file_type", "posts.file_key",
	"posts.created_at", "posts.updated_at", "users.nickname AS nickname",
}

const newestFirst = "posts.created_at DESC, posts.id DESC"

// PostGuard inspects the locked row and returns an error to abort the mutation.
type PostGuard func(current *models.Post) error

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	ListAll(ctx context.Context) ([]*models.Post, error)
	ListByCategory(ctx context.Context, category string) ([]*models.Post, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Post, error)
	ListPaged(ctx context.Context, limit, offset int) ([]*models.Post, error)
	Search(ctx context.Context, field SearchField, keyword string) ([]*models.Post, error)
	IncrementViewCount(ctx context.Context, id uint) error
	UpdateGuarded(ctx context.Context, id uint, guard PostGuard, apply func(*models.Post)) error
	DeleteGuarded(ctx context.Context, id uint, guard PostGuard) (*models.Post, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db      *gorm.DB
	listTTL time.Duration
}

// NewPostRepository creates a new post repository. Listing results are cached
// in Redis for listTTL when a cache client is configured.
func NewPostRepository(db *gorm.DB, listTTL time.Duration) PostRepository {
	if listTTL <= 0 {
		listTTL = cache.DefaultListTTL
	}
	return &postRepository{db: db, listTTL: listTTL}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return classify(err, "Post", post.ID)
	}
	cache.InvalidatePostLists(ctx)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Select("posts.*, users.nickname AS nickname").
		Joins("LEFT JOIN users ON users.id = posts.user_id").
		Where("posts.id = ?", id).
		Take(&post).Error
	if err != nil {
		return nil, classify(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) listQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select(listColumns).
		Joins("LEFT JOIN users ON users.id = posts.user_id")
}

// cachedList serves a listing through the versioned list cache.
func (r *postRepository) cachedList(ctx context.Context, suffix string, query func(*[]*models.Post) error) ([]*models.Post, error) {
	posts := []*models.Post{}
	key, ok := cache.PostListKey(ctx, suffix)
	if !ok {
		if err := query(&posts); err != nil {
			return nil, classify(err, "Post", suffix)
		}
		return posts, nil
	}

	err := cache.Aside(ctx, key, &posts, r.listTTL, func() error {
		return query(&posts)
	})
	if err != nil {
		return nil, classify(err, "Post", suffix)
	}
	return posts, nil
}

func (r *postRepository) ListAll(ctx context.Context) ([]*models.Post, error) {
	return r.cachedList(ctx, cache.AllPostsSuffix(), func(dest *[]*models.Post) error {
		return r.listQuery(ctx).Order(newestFirst).Find(dest).Error
	})
}

func (r *postRepository) ListByCategory(ctx context.Context, category string) ([]*models.Post, error) {
	return r.cachedList(ctx, cache.CategorySuffix(category), func(dest *[]*models.Post) error {
		return r.listQuery(ctx).Where("posts.category = ?", category).Order(newestFirst).Find(dest).Error
	})
}

func (r *postRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Post, error) {
	return r.cachedList(ctx, cache.UserPostsSuffix(userID), func(dest *[]*models.Post) error {
		return r.listQuery(ctx).Where("posts.user_id = ?", userID).Order(newestFirst).Find(dest).Error
	})
}

func (r *postRepository) ListPaged(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return r.cachedList(ctx, cache.PageSuffix(limit, offset), func(dest *[]*models.Post) error {
		return r.listQuery(ctx).Order(newestFirst).Limit(limit).Offset(offset).Find(dest).Error
	})
}

// Search is a case-sensitive substring match. Searches are not cached.
func (r *postRepository) Search(ctx context.Context, field SearchField, keyword string) ([]*models.Post, error) {
	column, ok := searchColumns[field]
	if !ok {
		return nil, models.NewValidationError("unsupported search type: " + string(field))
	}

	posts := []*models.Post{}
	err := r.listQuery(ctx).
		Where(column+` LIKE ? ESCAPE '\'`, "%"+escapeLike(keyword)+"%").
		Order(newestFirst).
		Find(&posts).Error
	if err != nil {
		return nil, classify(err, "Post", keyword)
	}
	return posts, nil
}

// IncrementViewCount adds one view in a single statement. A missing post is
// not an error.
func (r *postRepository) IncrementViewCount(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
	if err != nil {
		return classify(err, "Post", id)
	}
	return nil
}

// UpdateGuarded locks the row, runs guard, lets apply edit the row and writes
// the editable columns back, all in one transaction.
func (r *postRepository) UpdateGuarded(ctx context.Context, id uint, guard PostGuard, apply func(*models.Post)) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := lockPost(tx, id)
		if err != nil {
			return err
		}
		if err := guard(current); err != nil {
			return err
		}

		apply(current)
		return tx.Model(current).
			Select("title", "content", "category", "file", "file_type", "file_key", "password", "updated_at").
			Updates(current).Error
	})
	if err != nil {
		return classify(err, "Post", id)
	}
	cache.InvalidatePostLists(ctx)
	return nil
}

// DeleteGuarded removes the post and all of its comments when guard passes.
// It returns the removed row so callers can release its attachment.
func (r *postRepository) DeleteGuarded(ctx context.Context, id uint, guard PostGuard) (*models.Post, error) {
	var removed *models.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := lockPost(tx, id)
		if err != nil {
			return err
		}
		if err := guard(current); err != nil {
			return err
		}

		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Post{}, id).Error; err != nil {
			return err
		}
		removed = current
		return nil
	})
	if err != nil {
		return nil, classify(err, "Post", id)
	}
	cache.InvalidatePostLists(ctx)
	return removed, nil
}

func lockPost(tx *gorm.DB, id uint) (*models.Post, error) {
	var current models.Post
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&current, id).Error; err != nil {
		return nil, classify(err, "Post", id)
	}
	return &current, nil
}
