// Package service holds the board's business rules. Handlers pass the caller
// identity in explicitly; nothing here reads request state.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"mungboard/internal/filestore"
	"mungboard/internal/middleware"
	"mungboard/internal/models"
	"mungboard/internal/observability"
	"mungboard/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

type PostService struct {
	postRepo     repository.PostRepository
	files        filestore.Store
	maxFileBytes int
	passwords    PostPasswordGate
}

type CreatePostInput struct {
	Title    string
	Content  string
	Category string
	File     []byte
	FileType string
	Password string
}

// ModifyPostInput carries a full edit. An empty Category keeps the current
// one; a nil File keeps the current attachment; NewPassword rotates the
// password when set.
type ModifyPostInput struct {
	PostID      uint
	Title       string
	Content     string
	Category    string
	File        []byte
	FileType    string
	Password    string
	NewPassword string
}

// NewPostService wires the post rules. A nil store keeps attachments inline;
// maxFileBytes <= 0 disables the size check.
func NewPostService(postRepo repository.PostRepository, files filestore.Store, maxFileBytes int) *PostService {
	if files == nil {
		files = filestore.InlineStore{}
	}
	return &PostService{
		postRepo:     postRepo,
		files:        files,
		maxFileBytes: maxFileBytes,
	}
}

func (s *PostService) CreatePost(ctx context.Context, who models.Identity, in CreatePostInput) (post *models.Post, err error) {
	span, ctx := observability.NewSpan(ctx, "PostService.CreatePost")
	defer span.Finish(&err)
	defer observability.TrackOperation("post.create")()

	if err := requireIdentity(who); err != nil {
		return nil, err
	}
	if err := validatePostFields(in.Title, in.Content); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Category) == "" {
		return nil, models.NewValidationError("Category is required")
	}
	if in.Password == "" {
		return nil, models.NewValidationError("Password is required")
	}
	fileType, err := s.checkAttachment(in.File, in.FileType)
	if err != nil {
		return nil, err
	}

	post = &models.Post{
		UserID:   who.UserID,
		Title:    in.Title,
		Content:  in.Content,
		Category: in.Category,
		Password: in.Password,
	}

	var key string
	if len(in.File) > 0 {
		post.FileType = fileType
		if s.files.Inline() {
			post.File = in.File
		} else {
			key, err = s.upload(ctx, in.File, fileType)
			if err != nil {
				return nil, err
			}
			post.FileKey = key
		}
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		s.discard(ctx, key)
		return nil, err
	}
	post.Nickname = who.Nickname

	span.AddAttributes(attribute.Int("post.id", int(post.ID)))
	observability.PostsCreated.WithLabelValues(post.Category).Inc()
	return post, nil
}

func (s *PostService) ReadByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}

// IncreaseViewCount records one view. Views of a missing post are dropped.
func (s *PostService) IncreaseViewCount(ctx context.Context, id uint) error {
	if err := s.postRepo.IncrementViewCount(ctx, id); err != nil {
		return err
	}
	observability.PostViews.Inc()
	return nil
}

func (s *PostService) FindAll(ctx context.Context) ([]*models.Post, error) {
	return s.postRepo.ListAll(ctx)
}

func (s *PostService) GetPostsByCategory(ctx context.Context, category string) ([]*models.Post, error) {
	if strings.TrimSpace(category) == "" {
		return nil, models.NewValidationError("Category is required")
	}
	return s.postRepo.ListByCategory(ctx, category)
}

func (s *PostService) GetPostsByUser(ctx context.Context, userID uint) ([]*models.Post, error) {
	return s.postRepo.ListByUser(ctx, userID)
}

func (s *PostService) SearchByTitle(ctx context.Context, keyword string) ([]*models.Post, error) {
	return s.Search(ctx, repository.SearchTitle, keyword)
}

func (s *PostService) SearchByContent(ctx context.Context, keyword string) ([]*models.Post, error) {
	return s.Search(ctx, repository.SearchContent, keyword)
}

func (s *PostService) SearchByNickname(ctx context.Context, keyword string) ([]*models.Post, error) {
	return s.Search(ctx, repository.SearchNickname, keyword)
}

// Search matches keyword as a case-sensitive substring. A blank keyword
// matches nothing.
func (s *PostService) Search(ctx context.Context, field repository.SearchField, keyword string) ([]*models.Post, error) {
	if strings.TrimSpace(keyword) == "" {
		return []*models.Post{}, nil
	}
	return s.postRepo.Search(ctx, field, keyword)
}

// GetPagedPosts returns size posts, newest first, skipping offset.
func (s *PostService) GetPagedPosts(ctx context.Context, size, offset int) ([]*models.Post, error) {
	if size <= 0 {
		return nil, models.NewValidationError("Page size must be positive")
	}
	if offset < 0 {
		return nil, models.NewValidationError("Offset must not be negative")
	}
	return s.postRepo.ListPaged(ctx, size, offset)
}

func (s *PostService) CheckPassword(ctx context.Context, id uint, supplied string) (bool, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return s.passwords.Allows(post, supplied), nil
}

// ModifyPost rewrites the post when in.Password matches. The password is
// checked against the locked row in the same transaction as the write.
func (s *PostService) ModifyPost(ctx context.Context, in ModifyPostInput) (ok bool, err error) {
	span, ctx := observability.NewSpan(ctx, "PostService.ModifyPost", attribute.Int("post.id", int(in.PostID)))
	defer span.Finish(&err)
	defer observability.TrackOperation("post.modify")()

	if in.PostID == 0 {
		return false, models.NewValidationError("Post ID is required")
	}
	if err := validatePostFields(in.Title, in.Content); err != nil {
		return false, err
	}
	if in.Password == "" {
		return false, models.NewValidationError("Password is required")
	}
	fileType, err := s.checkAttachment(in.File, in.FileType)
	if err != nil {
		return false, err
	}

	var newKey string
	if len(in.File) > 0 && !s.files.Inline() {
		if newKey, err = s.upload(ctx, in.File, fileType); err != nil {
			return false, err
		}
	}

	var oldKey string
	err = s.postRepo.UpdateGuarded(ctx, in.PostID, s.passwords.Guard(in.Password), func(p *models.Post) {
		p.Title = in.Title
		p.Content = in.Content
		if strings.TrimSpace(in.Category) != "" {
			p.Category = in.Category
		}
		if len(in.File) > 0 {
			oldKey = p.FileKey
			p.FileType = fileType
			if newKey != "" {
				p.File = nil
				p.FileKey = newKey
			} else {
				p.File = in.File
				p.FileKey = ""
			}
		}
		if in.NewPassword != "" {
			p.Password = in.NewPassword
		}
	})
	if err != nil {
		s.discard(ctx, newKey)
		return false, err
	}

	s.discard(ctx, oldKey)
	return true, nil
}

// RemovePost deletes the post and its comments when password matches.
func (s *PostService) RemovePost(ctx context.Context, id uint, password string) (err error) {
	span, ctx := observability.NewSpan(ctx, "PostService.RemovePost", attribute.Int("post.id", int(id)))
	defer span.Finish(&err)
	defer observability.TrackOperation("post.remove")()

	if password == "" {
		return models.NewValidationError("Password is required")
	}

	removed, err := s.postRepo.DeleteGuarded(ctx, id, s.passwords.Guard(password))
	if err != nil {
		return err
	}
	s.discard(ctx, removed.FileKey)
	return nil
}

// GetAttachment returns inline bytes or, for externally stored files, a
// short-lived download URL.
func (s *PostService) GetAttachment(ctx context.Context, id uint) (*models.Attachment, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.HasAttachment() {
		return nil, models.NewNotFoundError("Attachment for post", id)
	}

	attachment := &models.Attachment{ContentType: filestore.ContentType(post.FileType)}
	if len(post.File) > 0 {
		attachment.Data = post.File
		return attachment, nil
	}

	url, err := s.files.URL(ctx, post.FileKey)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	attachment.URL = url
	return attachment, nil
}

func validatePostFields(title, content string) error {
	const maxTitleLen = 255

	if strings.TrimSpace(title) == "" {
		return models.NewValidationError("Title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return models.NewValidationError("Title too long (max 255 characters)")
	}
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Content is required")
	}
	return nil
}

// checkAttachment validates the upload and returns its type tag. A declared
// type must agree with the decoded image format.
func (s *PostService) checkAttachment(data []byte, declared string) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	if s.maxFileBytes > 0 && len(data) > s.maxFileBytes {
		return "", models.NewValidationError(fmt.Sprintf("Attachment too large (max %d bytes)", s.maxFileBytes))
	}

	detected, err := filestore.DetectImageType(data)
	if err != nil {
		if errors.Is(err, filestore.ErrUnsupportedImage) {
			return "", models.NewValidationError("Attachment must be a PNG, JPEG, GIF or WebP image")
		}
		return "", models.NewInternalError(err)
	}
	if t := filestore.NormalizeFileType(declared); t != "" && t != detected {
		return "", models.NewValidationError("Attachment type " + t + " does not match its contents")
	}
	return detected, nil
}

func (s *PostService) upload(ctx context.Context, data []byte, fileType string) (string, error) {
	key := filestore.NewKey(fileType)
	if err := s.files.Put(ctx, key, filestore.ContentType(fileType), data); err != nil {
		return "", models.NewInternalError(err)
	}
	return key, nil
}

// discard removes an object from the external store. Failures only leave an
// orphaned object behind, so they are logged and dropped.
func (s *PostService) discard(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.files.Delete(ctx, key); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to delete attachment object",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
