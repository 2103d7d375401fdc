package server

import (
	"mungboard/internal/middleware"
	"mungboard/internal/models"
	"mungboard/internal/repository"
	"mungboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

type postForm struct {
	Title       string `json:"title" form:"title"`
	Content     string `json:"content" form:"content"`
	Category    string `json:"category" form:"category"`
	Password    string `json:"password" form:"password"`
	NewPassword string `json:"new_password" form:"new_password"`
}

// GetPosts handles GET /api/posts
func (s *Server) GetPosts(c *fiber.Ctx) error {
	posts, err := s.postService.FindAll(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// GetPagedPosts handles GET /api/posts/paged?limit=&offset=
func (s *Server) GetPagedPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 10)

	posts, err := s.postService.GetPagedPosts(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// SearchPosts handles GET /api/posts/search?type=title|content|nickname&keyword=
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	field, ok := repository.ParseSearchField(c.Query("type", string(repository.SearchTitle)))
	if !ok {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Search type must be title, content or nickname"))
	}

	posts, err := s.postService.Search(c.UserContext(), field, c.Query("keyword"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// GetPostsByCategory handles GET /api/posts/category/:category
func (s *Server) GetPostsByCategory(c *fiber.Ctx) error {
	posts, err := s.postService.GetPostsByCategory(c.UserContext(), c.Params("category"))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id. Every detail view counts once.
func (s *Server) GetPost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.IncreaseViewCount(ctx, id); err != nil {
		return respondServiceError(c, err)
	}
	post, err := s.postService.ReadByID(ctx, id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// GetPostFile handles GET /api/posts/:id/file
func (s *Server) GetPostFile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	attachment, err := s.postService.GetAttachment(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	if attachment.URL != "" {
		return c.Redirect(attachment.URL, fiber.StatusFound)
	}

	c.Set(fiber.HeaderContentType, attachment.ContentType)
	return c.Send(attachment.Data)
}

// CheckPostPassword handles POST /api/posts/:id/check-password
func (s *Server) CheckPostPassword(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	matches, err := s.postService.CheckPassword(c.UserContext(), id, req.Password)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"matches": matches})
}

// CreatePost handles POST /api/posts as JSON or multipart with an optional "file" part.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req postForm
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	file, fileType, err := readUpload(c, s.config.MaxUploadBytes())
	if err != nil {
		return respondServiceError(c, err)
	}

	post, err := s.postService.CreatePost(c.UserContext(), middleware.IdentityFrom(c), service.CreatePostInput{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		File:     file,
		FileType: fileType,
		Password: req.Password,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id. The post password, not the session,
// authorizes the change.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req postForm
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}
	file, fileType, err := readUpload(c, s.config.MaxUploadBytes())
	if err != nil {
		return respondServiceError(c, err)
	}

	if _, err := s.postService.ModifyPost(ctx, service.ModifyPostInput{
		PostID:      id,
		Title:       req.Title,
		Content:     req.Content,
		Category:    req.Category,
		File:        file,
		FileType:    fileType,
		Password:    req.Password,
		NewPassword: req.NewPassword,
	}); err != nil {
		return respondServiceError(c, err)
	}

	post, err := s.postService.ReadByID(ctx, id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id with the post password in the body.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	if err := s.postService.RemovePost(c.UserContext(), id, req.Password); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetUserPosts handles GET /api/users/:id/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	posts, err := s.postService.GetPostsByUser(c.UserContext(), userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}
