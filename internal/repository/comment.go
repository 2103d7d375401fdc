package repository

import (
	"context"

	"mungboard/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentGuard inspects the locked comment and returns an error to abort the removal.
type CommentGuard func(current *models.Comment) error

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Comment, error)
	ListAll(ctx context.Context) ([]*models.Comment, error)
	UpdateOwned(ctx context.Context, id, postID, userID uint, content string) (int64, error)
	DeleteThread(ctx context.Context, id uint, guard CommentGuard) (int64, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) withNickname(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Select("comments.*, users.nickname AS nickname").
		Joins("LEFT JOIN users ON users.id = comments.user_id")
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return classify(err, "Comment", comment.PostID)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.withNickname(ctx).Where("comments.id = ?", id).Take(&comment).Error; err != nil {
		return nil, classify(err, "Comment", id)
	}
	return &comment, nil
}

// ListByPost returns the post's comments in creation order.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	err := r.withNickname(ctx).
		Where("comments.post_id = ?", postID).
		Order("comments.created_at ASC, comments.id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, classify(err, "Comment", postID)
	}
	return comments, nil
}

func (r *commentRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	err := r.withNickname(ctx).
		Where("comments.user_id = ?", userID).
		Order("comments.created_at DESC, comments.id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, classify(err, "Comment", userID)
	}
	return comments, nil
}

func (r *commentRepository) ListAll(ctx context.Context) ([]*models.Comment, error) {
	comments := []*models.Comment{}
	err := r.withNickname(ctx).
		Order("comments.created_at DESC, comments.id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, classify(err, "Comment", "all")
	}
	return comments, nil
}

// UpdateOwned rewrites the content of the comment only when id, post and
// author all match. It returns the number of rows changed.
func (r *commentRepository) UpdateOwned(ctx context.Context, id, postID, userID uint, content string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id = ? AND post_id = ? AND user_id = ?", id, postID, userID).
		Update("content", content)
	if res.Error != nil {
		return 0, classify(res.Error, "Comment", id)
	}
	return res.RowsAffected, nil
}

// DeleteThread removes a comment and every reply beneath it in one
// transaction, returning the number of rows removed. Replies go deepest level
// first and the comment itself last, so each statement counts only its own
// rows. Nothing is removed when guard rejects the comment.
func (r *commentRepository) DeleteThread(ctx context.Context, id uint, guard CommentGuard) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var root models.Comment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&root, id).Error; err != nil {
			return classify(err, "Comment", id)
		}
		if err := guard(&root); err != nil {
			return err
		}

		levels := [][]uint{{root.ID}}
		for frontier := levels[0]; len(frontier) > 0; {
			var children []uint
			if err := tx.Model(&models.Comment{}).Where("parent_id IN ?", frontier).Pluck("id", &children).Error; err != nil {
				return err
			}
			if len(children) > 0 {
				levels = append(levels, children)
			}
			frontier = children
		}

		for i := len(levels) - 1; i >= 0; i-- {
			res := tx.Where("id IN ?", levels[i]).Delete(&models.Comment{})
			if res.Error != nil {
				return res.Error
			}
			removed += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, classify(err, "Comment", id)
	}
	return removed, nil
}
