package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"mungboard/internal/models"
	"mungboard/internal/observability"
	"mungboard/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const maxCommentLen = 10000

type CommentService struct {
	commentRepo repository.CommentRepository
	authors     CommentAuthorGate
}

// RegisterCommentInput describes a new comment. ParentID threads it as a
// reply and must name a comment on the same post.
type RegisterCommentInput struct {
	PostID   uint
	ParentID *uint
	Content  string
}

type ModifyCommentInput struct {
	CommentID uint
	PostID    uint
	Content   string
}

func NewCommentService(commentRepo repository.CommentRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo}
}

// ReadByPostID lists a post's comments in the order they were written.
func (s *CommentService) ReadByPostID(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.commentRepo.ListByPost(ctx, postID)
}

func (s *CommentService) FindByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.commentRepo.GetByID(ctx, id)
}

func (s *CommentService) FindAll(ctx context.Context) ([]*models.Comment, error) {
	return s.commentRepo.ListAll(ctx)
}

func (s *CommentService) ReadByUserID(ctx context.Context, userID uint) ([]*models.Comment, error) {
	return s.commentRepo.ListByUser(ctx, userID)
}

func (s *CommentService) Register(ctx context.Context, who models.Identity, in RegisterCommentInput) (comment *models.Comment, err error) {
	span, ctx := observability.NewSpan(ctx, "CommentService.Register", attribute.Int("post.id", int(in.PostID)))
	defer span.Finish(&err)
	defer observability.TrackOperation("comment.register")()

	if err := requireIdentity(who); err != nil {
		return nil, err
	}
	if err := validateCommentContent(in.Content); err != nil {
		return nil, err
	}
	if in.PostID == 0 {
		return nil, models.NewValidationError("Post ID is required")
	}

	kind := "comment"
	if in.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != in.PostID {
			return nil, models.NewValidationError("A reply must belong to the same post as its parent")
		}
		kind = "reply"
	}

	comment = &models.Comment{
		PostID:   in.PostID,
		UserID:   who.UserID,
		ParentID: in.ParentID,
		Content:  in.Content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	comment.Nickname = who.Nickname

	observability.CommentsCreated.WithLabelValues(kind).Inc()
	return comment, nil
}

// ModifyComment rewrites the caller's own comment. A post ID that does not
// match the comment's post changes nothing and reports false.
func (s *CommentService) ModifyComment(ctx context.Context, who models.Identity, in ModifyCommentInput) (ok bool, err error) {
	span, ctx := observability.NewSpan(ctx, "CommentService.ModifyComment", attribute.Int("comment.id", int(in.CommentID)))
	defer span.Finish(&err)
	defer observability.TrackOperation("comment.modify")()

	if err := requireIdentity(who); err != nil {
		return false, err
	}
	if err := validateCommentContent(in.Content); err != nil {
		return false, err
	}

	existing, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return false, err
	}
	if err := s.authors.Guard(who)(existing); err != nil {
		return false, err
	}

	n, err := s.commentRepo.UpdateOwned(ctx, in.CommentID, in.PostID, who.UserID, in.Content)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RemoveComment deletes the caller's comment together with every reply
// beneath it and returns how many rows went. Either the whole thread goes
// or nothing does.
func (s *CommentService) RemoveComment(ctx context.Context, who models.Identity, commentID uint) (int64, error) {
	return s.removeThread(ctx, who, commentID, s.authors.Guard(who))
}

// RemovePostComment is RemoveComment for a comment addressed through its
// post. A comment that belongs to another post is reported as not found.
func (s *CommentService) RemovePostComment(ctx context.Context, who models.Identity, postID, commentID uint) (int64, error) {
	byAuthor := s.authors.Guard(who)
	return s.removeThread(ctx, who, commentID, func(current *models.Comment) error {
		if current.PostID != postID {
			return models.NewNotFoundError("Comment", commentID)
		}
		return byAuthor(current)
	})
}

func (s *CommentService) removeThread(ctx context.Context, who models.Identity, commentID uint, guard repository.CommentGuard) (removed int64, err error) {
	span, ctx := observability.NewSpan(ctx, "CommentService.RemoveComment", attribute.Int("comment.id", int(commentID)))
	defer span.Finish(&err)
	defer observability.TrackOperation("comment.remove")()

	if err := requireIdentity(who); err != nil {
		return 0, err
	}

	removed, err = s.commentRepo.DeleteThread(ctx, commentID, guard)
	if err != nil {
		return 0, err
	}

	span.AddAttributes(attribute.Int64("comments.removed", removed))
	observability.CommentsRemoved.Add(float64(removed))
	return removed, nil
}

func validateCommentContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Content is required")
	}
	if utf8.RuneCountInString(content) > maxCommentLen {
		return models.NewValidationError("Comment too long (max 10000 characters)")
	}
	return nil
}
