package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"matchmaking/pkg/logger"

	"go.uber.org/zap"
)

// ErrNotFound 验证码不存在或已过期
var ErrNotFound = errors.New("otp not found")

// Store 带过期时间的验证码存储
// key 通常为小写邮箱
type Store interface {
	Save(ctx context.Context, key, code string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Sender 验证码投递
type Sender interface {
	Send(ctx context.Context, email, code string) error
}

// Generate 生成 length 位数字验证码
func Generate(length int) (string, error) {
	if length <= 0 {
		length = 6
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", length, n), nil
}

// LogSender 仅写日志的投递实现，用于开发环境
type LogSender struct{}

func (LogSender) Send(_ context.Context, email, code string) error {
	logger.Info("发送验证码",
		zap.String("email", email),
		zap.String("code", code),
	)
	return nil
}
