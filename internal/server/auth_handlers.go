package server

import (
	"encoding/json"
	"time"

	"mungboard/internal/middleware"
	"mungboard/internal/models"
	"mungboard/internal/service"

	"github.com/gofiber/fiber/v2"
)

type signupRequest struct {
	LoginID         string          `json:"login_id"`
	Password        string          `json:"password"`
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	Birth           *time.Time      `json:"birth"`
	Gender          string          `json:"gender"`
	Nickname        string          `json:"nickname"`
	Role            string          `json:"role"`
	Address         string          `json:"address"`
	ProfileImageURL string          `json:"profile_image_url"`
	PetInfo         json.RawMessage `json:"pet_info"`
	BusinessNumber  string          `json:"business_number"`
	BusinessSNSURL  string          `json:"business_sns_url"`
}

// Signup handles POST /api/auth/signup
func (s *Server) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	user, err := s.userService.Signup(c.UserContext(), service.SignupInput{
		LoginID:         req.LoginID,
		Password:        req.Password,
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		Birth:           req.Birth,
		Gender:          req.Gender,
		Nickname:        req.Nickname,
		Role:            req.Role,
		Address:         req.Address,
		ProfileImageURL: req.ProfileImageURL,
		PetInfo:         string(req.PetInfo),
		BusinessNumber:  req.BusinessNumber,
		BusinessSNSURL:  req.BusinessSNSURL,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	token, err := s.auth.Issue(user.ID, user.Nickname)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		LoginID  string `json:"login_id"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c)
	}

	user, err := s.userService.Login(c.UserContext(), req.LoginID, req.Password)
	if err != nil {
		if models.IsUnauthorized(err) {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		return respondServiceError(c, err)
	}

	token, err := s.auth.Issue(user.ID, user.Nickname)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Logout handles POST /api/auth/logout by revoking the presented token.
func (s *Server) Logout(c *fiber.Ctx) error {
	if claims := middleware.ClaimsFrom(c); claims != nil {
		if err := s.auth.Revoke(c.UserContext(), claims); err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}
