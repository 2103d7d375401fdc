package server

import (
	"encoding/json"
	"time"

	"mungboard/internal/middleware"
	"mungboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetUserProfile handles GET /api/users/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.GetUserByID(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetUserByID(c.UserContext(), middleware.IdentityFrom(c).UserID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me. Omitted fields keep their value.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		Name            string          `json:"name"`
		Email           string          `json:"email"`
		Phone           string          `json:"phone"`
		Birth           *time.Time      `json:"birth"`
		Gender          string          `json:"gender"`
		Nickname        string          `json:"nickname"`
		Address         string          `json:"address"`
		ProfileImageURL string          `json:"profile_image_url"`
		PetInfo         json.RawMessage `json:"pet_info"`
		BusinessNumber  string          `json:"business_number"`
		BusinessSNSURL  string          `json:"business_sns_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), middleware.IdentityFrom(c), service.UpdateProfileInput{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Birth:           req.Birth,
		Gender:          req.Gender,
		Nickname:        req.Nickname,
		Address:         req.Address,
		ProfileImageURL: req.ProfileImageURL,
		PetInfo:         string(req.PetInfo),
		BusinessNumber:  req.BusinessNumber,
		BusinessSNSURL:  req.BusinessSNSURL,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// DeleteMyAccount handles DELETE /api/users/me. The caller's posts and
// comments go with the account and the presented token is revoked.
func (s *Server) DeleteMyAccount(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if err := s.userService.DeleteAccount(ctx, middleware.IdentityFrom(c)); err != nil {
		return respondServiceError(c, err)
	}
	if claims := middleware.ClaimsFrom(c); claims != nil {
		_ = s.auth.Revoke(ctx, claims)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
