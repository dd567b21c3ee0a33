package service

import (
	"errors"
	"strings"
	"time"

	"github.com/tokonext/internal/config"
	"github.com/tokonext/internal/constants"
	"github.com/tokonext/internal/models"
	"github.com/tokonext/internal/repository"

	"github.com/golang-jwt/jwt/v5"
)

const defaultUserJWTExpireHours = 168

// UserAuthService 用户 Token 签发与解析（登录流程由外部身份服务负责）
type UserAuthService struct {
	cfg      config.JWTConfig
	userRepo repository.UserRepository
}

// NewUserAuthService 创建用户认证服务
func NewUserAuthService(cfg config.JWTConfig, userRepo repository.UserRepository) *UserAuthService {
	return &UserAuthService{cfg: cfg, userRepo: userRepo}
}

// UserJWTClaims 用户 JWT 声明
type UserJWTClaims struct {
	UserID       uint   `json:"user_id"`
	Email        string `json:"email"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// GenerateUserJWT 生成用户 JWT Token
func (s *UserAuthService) GenerateUserJWT(user *models.User, expireHours int) (string, time.Time, error) {
	if user == nil || user.ID == 0 {
		return "", time.Time{}, ErrUserNotFound
	}
	if strings.TrimSpace(s.cfg.SecretKey) == "" {
		return "", time.Time{}, ErrInvalidToken
	}
	resolvedHours := expireHours
	if resolvedHours <= 0 {
		resolvedHours = resolveUserJWTExpireHours(s.cfg)
	}
	now := time.Now()
	expiresAt := now.Add(time.Duration(resolvedHours) * time.Hour)
	claims := UserJWTClaims{
		UserID:       user.ID,
		Email:        user.Email,
		TokenVersion: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseUserJWT 解析用户 JWT Token
func (s *UserAuthService) ParseUserJWT(tokenString string) (*UserJWTClaims, error) {
	return ParseUserJWT(s.cfg.SecretKey, tokenString)
}

// ParseUserJWT 使用指定密钥解析用户 Token
func ParseUserJWT(secretKey, tokenString string) (*UserJWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &UserJWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if claims, ok := token.Claims.(*UserJWTClaims); ok && token.Valid && claims.UserID != 0 {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// GetActiveUser 获取可用用户
func (s *UserAuthService) GetActiveUser(id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !IsActiveUserStatus(user.Status) {
		return nil, ErrUserDisabled
	}
	return user, nil
}

// IsActiveUserStatus 判断账号状态是否可用
func IsActiveUserStatus(status string) bool {
	return strings.ToLower(strings.TrimSpace(status)) == constants.UserStatusActive
}

func resolveUserJWTExpireHours(cfg config.JWTConfig) int {
	if cfg.ExpireHours <= 0 {
		return defaultUserJWTExpireHours
	}
	return cfg.ExpireHours
}
