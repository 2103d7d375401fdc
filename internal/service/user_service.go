package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"mungboard/internal/models"
	"mungboard/internal/repository"
	"mungboard/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepo repository.UserRepository
}

type SignupInput struct {
	LoginID         string
	Password        string
	Name            string
	Email           string
	Phone           string
	Birth           *time.Time
	Gender          string
	Nickname        string
	Role            string
	Address         string
	ProfileImageURL string
	PetInfo         string
	BusinessNumber  string
	BusinessSNSURL  string
}

// UpdateProfileInput overwrites only the fields that are set.
type UpdateProfileInput struct {
	Name            string
	Email           string
	Phone           string
	Birth           *time.Time
	Gender          string
	Nickname        string
	Address         string
	ProfileImageURL string
	PetInfo         string
	BusinessNumber  string
	BusinessSNSURL  string
}

var errInvalidCredentials = models.NewUnauthorizedError("Invalid login ID or password")

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	if err := validation.ValidateLoginID(in.LoginID); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateNickname(in.Nickname); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	role := strings.ToUpper(strings.TrimSpace(in.Role))
	switch role {
	case "":
		role = models.RoleUser
	case models.RoleUser, models.RoleHost:
	default:
		return nil, models.NewValidationError("Role must be USER or HOST")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		LoginID:         in.LoginID,
		Password:        string(hash),
		Name:            in.Name,
		Email:           in.Email,
		Phone:           in.Phone,
		Birth:           in.Birth,
		Gender:          in.Gender,
		Nickname:        in.Nickname,
		Role:            role,
		Address:         in.Address,
		ProfileImageURL: in.ProfileImageURL,
		PetInfo:         in.PetInfo,
		BusinessNumber:  in.BusinessNumber,
		BusinessSNSURL:  in.BusinessSNSURL,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if models.IsConstraint(err) {
			return nil, models.NewConstraintError("Login ID, email or nickname already in use", errors.Unwrap(err))
		}
		return nil, err
	}
	return user, nil
}

// Login checks the credentials. Unknown login IDs and wrong passwords fail
// the same way.
func (s *UserService) Login(ctx context.Context, loginID, password string) (*models.User, error) {
	if loginID == "" || password == "" {
		return nil, models.NewValidationError("Login ID and password are required")
	}

	user, err := s.userRepo.GetByLoginID(ctx, loginID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, errInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, who models.Identity, in UpdateProfileInput) (*models.User, error) {
	if err := requireIdentity(who); err != nil {
		return nil, err
	}
	if in.Email != "" {
		if err := validation.ValidateEmail(in.Email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}
	if in.Nickname != "" {
		if err := validation.ValidateNickname(in.Nickname); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}

	user, err := s.userRepo.GetByID(ctx, who.UserID)
	if err != nil {
		return nil, err
	}

	setIfPresent(&user.Name, in.Name)
	setIfPresent(&user.Email, in.Email)
	setIfPresent(&user.Phone, in.Phone)
	setIfPresent(&user.Gender, in.Gender)
	setIfPresent(&user.Nickname, in.Nickname)
	setIfPresent(&user.Address, in.Address)
	setIfPresent(&user.ProfileImageURL, in.ProfileImageURL)
	setIfPresent(&user.PetInfo, in.PetInfo)
	setIfPresent(&user.BusinessNumber, in.BusinessNumber)
	setIfPresent(&user.BusinessSNSURL, in.BusinessSNSURL)
	if in.Birth != nil {
		user.Birth = in.Birth
	}

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteAccount removes the caller along with their posts and comments.
func (s *UserService) DeleteAccount(ctx context.Context, who models.Identity) error {
	if err := requireIdentity(who); err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, who.UserID)
}

func setIfPresent(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
