package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tokonext/internal/constants"
	"github.com/tokonext/internal/models"
)

const authStateCacheTTL = 10 * time.Minute

// UserAuthState 用户鉴权快照，中间件优先读取它以免每个请求查库。
// token_invalid_before 为 Unix 秒时间戳，0 表示未设置
type UserAuthState struct {
	UserID             uint   `json:"user_id"`
	Status             string `json:"status"`
	TokenVersion       uint64 `json:"token_version"`
	TokenInvalidBefore int64  `json:"token_invalid_before"`
	UpdatedAt          int64  `json:"updated_at"`
}

func userAuthStateKey(userID uint) string {
	return fmt.Sprintf("auth:user:%d", userID)
}

// BuildUserAuthState 从用户模型构建鉴权快照
func BuildUserAuthState(user *models.User) *UserAuthState {
	if user == nil {
		return nil
	}
	state := &UserAuthState{
		UserID:       user.ID,
		Status:       user.Status,
		TokenVersion: user.TokenVersion,
		UpdatedAt:    time.Now().Unix(),
	}
	if user.TokenInvalidBefore != nil {
		state.TokenInvalidBefore = user.TokenInvalidBefore.Unix()
	}
	return state
}

// GetUserAuthState 读取用户鉴权快照
func GetUserAuthState(ctx context.Context, userID uint) (*UserAuthState, bool, error) {
	var state UserAuthState
	hit, err := GetJSON(ctx, userAuthStateKey(userID), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}

// SetUserAuthState 写入用户鉴权快照
func SetUserAuthState(ctx context.Context, state *UserAuthState) error {
	if state == nil || state.UserID == 0 {
		return nil
	}
	return SetJSON(ctx, userAuthStateKey(state.UserID), state, authStateCacheTTL)
}

// Active 账号是否处于可用状态
func (s *UserAuthState) Active() bool {
	return s != nil && strings.EqualFold(strings.TrimSpace(s.Status), constants.UserStatusActive)
}

// Revoked 判断 Token 是否已失效：版本不一致，或签发时间早于失效时间点
func (s *UserAuthState) Revoked(tokenVersion uint64, issuedAt time.Time) bool {
	if s == nil {
		return true
	}
	if tokenVersion != s.TokenVersion {
		return true
	}
	if s.TokenInvalidBefore <= 0 {
		return false
	}
	return issuedAt.IsZero() || issuedAt.Unix() < s.TokenInvalidBefore
}
