// Package auth 提供注册、登录与令牌刷新
package auth

import (
	"context"
	"errors"
	"time"

	"dream-planner-api/internal/config"
	"dream-planner-api/internal/domain/entity"
	"dream-planner-api/internal/domain/repository"
	apperrors "dream-planner-api/pkg/errors"
	"dream-planner-api/pkg/logger"
	"dream-planner-api/pkg/utils"
)

// ErrInvalidCredentials 邮箱或密码错误，不区分两者
var ErrInvalidCredentials = apperrors.New(apperrors.CodeUnauthorized, "invalid email or password")

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// Session 登录结果
type Session struct {
	User   *entity.User
	Tokens *utils.TokenPair
}

// Service 认证服务
type Service struct {
	users      repository.UserRepository
	jwt        *utils.JWTManager
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewService 创建认证服务
func NewService(users repository.UserRepository, cfg *config.JWTConfig) *Service {
	s := &Service{
		users:      users,
		jwt:        utils.NewJWTManager(cfg.Secret, cfg.Issuer),
		accessTTL:  cfg.Expiration,
		refreshTTL: cfg.RefreshExpiration,
	}
	if s.accessTTL <= 0 {
		s.accessTTL = defaultAccessTTL
	}
	if s.refreshTTL <= 0 {
		s.refreshTTL = defaultRefreshTTL
	}
	return s
}

// AccessTTL 访问令牌有效期
func (s *Service) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL 刷新令牌有效期
func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

// Register 注册新用户并签发令牌
func (s *Service) Register(ctx context.Context, email, password, name string) (*Session, error) {
	email = entity.NormalizeEmail(email)

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "registration failed")
	}
	if exists {
		return nil, apperrors.ErrEmailTaken
	}

	user := entity.NewUser(email, name)
	if err := user.SetPassword(password); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "registration failed")
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "registration failed")
	}

	tokens, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "user registered", "user_id", user.ID)
	return &Session{User: user, Tokens: tokens}, nil
}

// Login 校验邮箱密码并签发令牌
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "login failed")
	}
	if user == nil || !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		logger.Warn(ctx, "failed to update last login time", "error", err.Error(), "user_id", user.ID)
	}

	tokens, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Tokens: tokens}, nil
}

// Refresh 用刷新令牌换取新的访问令牌
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwt.ParseToken(refreshToken)
	if err != nil {
		if errors.Is(err, utils.ErrExpiredToken) {
			return "", apperrors.ErrTokenExpired
		}
		return "", apperrors.ErrTokenInvalid
	}
	if claims.Type != utils.TokenTypeRefresh {
		return "", apperrors.ErrTokenInvalid
	}

	token, err := s.jwt.GenerateToken(claims.UserID, claims.Email, utils.TokenTypeAccess, s.accessTTL)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeInternalError, "failed to generate access token")
	}
	return token, nil
}

// Me 获取当前用户
func (s *Service) Me(ctx context.Context, userID string) (*entity.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to get user info")
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}

func (s *Service) issue(user *entity.User) (*utils.TokenPair, error) {
	tokens, err := s.jwt.GenerateTokenPair(user.ID, user.Email, s.accessTTL, s.refreshTTL)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "failed to generate tokens")
	}
	return tokens, nil
}
