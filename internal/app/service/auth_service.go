package service

import (
	"errors"

	"github.com/stitchline/stitchline-backend/config"
	"github.com/stitchline/stitchline-backend/internal/app/model"
	"github.com/stitchline/stitchline-backend/internal/app/repository"
	"github.com/stitchline/stitchline-backend/pkg/logger"
	"github.com/stitchline/stitchline-backend/pkg/util"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zip_code"`
	Country  string `json:"country"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileInput struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	City    *string `json:"city"`
	State   *string `json:"state"`
	ZipCode *string `json:"zip_code"`
	Country *string `json:"country"`
}

type AuthResponse struct {
	User   *model.User     `json:"user"`
	Tokens *util.TokenPair `json:"tokens"`
}

type AuthService interface {
	Register(input RegisterInput) (*AuthResponse, error)
	Login(input LoginInput) (*AuthResponse, error)
	GetUserByID(id uint) (*model.User, error)
	UpdateProfile(userID uint, input UpdateProfileInput) (*model.User, error)
}

type authService struct {
	userRepo repository.UserRepository
	jwtCfg   config.JWTConfig
}

func NewAuthService(userRepo repository.UserRepository, jwtCfg config.JWTConfig) AuthService {
	return &authService{userRepo: userRepo, jwtCfg: jwtCfg}
}

func (s *authService) Register(input RegisterInput) (*AuthResponse, error) {
	if _, err := s.userRepo.FindByEmail(input.Email); err == nil {
		return nil, ErrAccountExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := util.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        input.Email,
		PasswordHash: hash,
		Name:         input.Name,
		Phone:        input.Phone,
		Address:      input.Address,
		City:         input.City,
		State:        input.State,
		ZipCode:      input.ZipCode,
		Country:      input.Country,
		Role:         model.RoleCustomer,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	logger.Info("User registered", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return s.respondWithTokens(user)
}

func (s *authService) Login(input LoginInput) (*AuthResponse, error) {
	user, err := s.userRepo.FindByEmail(input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, input.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.respondWithTokens(user)
}

func (s *authService) respondWithTokens(user *model.User) (*AuthResponse, error) {
	tokens, err := util.GenerateTokenPair(
		user.ID, user.Email, string(user.Role),
		s.jwtCfg.Secret, s.jwtCfg.AccessTokenExpiry, s.jwtCfg.RefreshTokenExpiry,
	)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: user, Tokens: tokens}, nil
}

func (s *authService) GetUserByID(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) UpdateProfile(userID uint, input UpdateProfileInput) (*model.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Address != nil {
		user.Address = *input.Address
	}
	if input.City != nil {
		user.City = *input.City
	}
	if input.State != nil {
		user.State = *input.State
	}
	if input.ZipCode != nil {
		user.ZipCode = *input.ZipCode
	}
	if input.Country != nil {
		user.Country = *input.Country
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}
