package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"paragon-backend/domain"
	"paragon-backend/entities"
	"paragon-backend/internal/utils"
	"paragon-backend/internal/utils/mailing"
	"paragon-backend/pkg/jwt"
)

type (
	UserService interface {
		Register(ctx context.Context, req domain.RegisterRequest) (domain.RegisterResponse, error)
		Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error)
		Me(ctx context.Context, userID string) (domain.MeResponse, error)
		VerifyEmail(ctx context.Context, token string) error
	}

	userService struct {
		userRepository UserRepository
		jwtService     jwt.JWTService
		logger         *logrus.Logger
	}
)

func NewUserService(userRepository UserRepository, jwtService jwt.JWTService, logger *logrus.Logger) UserService {
	return &userService{
		userRepository: userRepository,
		jwtService:     jwtService,
		logger:         logger,
	}
}

func (s *userService) Register(ctx context.Context, req domain.RegisterRequest) (domain.RegisterResponse, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.RegisterResponse{}, err
	}

	user := &entities.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Role:     domain.RoleUser,
	}
	created, err := s.userRepository.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.RegisterResponse{}, domain.ErrEmailAlreadyExists
		}
		return domain.RegisterResponse{}, err
	}

	// The account works without verification; the mail is best-effort.
	if err := s.sendVerificationMail(created); err != nil {
		s.logger.WithFields(logrus.Fields{
			"module": "user",
			"email":  created.Email,
		}).Warn("failed to send verification email: ", err)
	}

	return domain.RegisterResponse{
		ID:    created.ID.String(),
		Name:  created.Name,
		Email: created.Email,
	}, nil
}

func (s *userService) sendVerificationMail(user *entities.User) error {
	token := s.jwtService.GenerateTokenUser(user.ID.String(), user.Role)
	verifyLink := fmt.Sprintf("%s/api/v1/users/verify?token=%s", utils.GetConfig("APP_URL"), token)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Confirm your email address by clicking <a href=%q>this link</a>.</p>",
		user.Name, verifyLink,
	)
	return mailing.SendMail(user.Email, "Verify your email", body)
}

func (s *userService) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	user, err := s.userRepository.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.LoginResponse{}, domain.ErrInvalidCredentials
		}
		return domain.LoginResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return domain.LoginResponse{}, domain.ErrInvalidCredentials
	}

	token := s.jwtService.GenerateTokenUser(user.ID.String(), user.Role)
	return domain.LoginResponse{
		Token: token,
		Role:  user.Role,
	}, nil
}

func (s *userService) Me(ctx context.Context, userID string) (domain.MeResponse, error) {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.MeResponse{}, domain.ErrUserNotFound
		}
		return domain.MeResponse{}, err
	}

	return domain.MeResponse{
		ID:         user.ID.String(),
		Name:       user.Name,
		Email:      user.Email,
		Role:       user.Role,
		IsVerified: user.IsVerified,
	}, nil
}

func (s *userService) VerifyEmail(ctx context.Context, token string) error {
	userID, _, err := s.jwtService.GetUserIDByToken(token)
	if err != nil {
		return err
	}

	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}
	if user.IsVerified {
		return nil
	}

	user.IsVerified = true
	return s.userRepository.UpdateUser(ctx, user)
}
