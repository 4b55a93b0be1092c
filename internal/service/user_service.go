package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"matchmaking/config"
	"matchmaking/internal/model"
	"matchmaking/internal/repository"
	"matchmaking/pkg/otp"
	"matchmaking/pkg/password"
)

// UserStore 账号存储
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
}

// TokenIssuer 令牌签发，由 jwt.JWTService 实现
type TokenIssuer interface {
	GenerateToken(userID string, extraData map[string]interface{}) (string, error)
}

// RegisterInput 注册参数
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Name     string
	Phone    string
}

type UserService struct {
	repo   UserStore
	tokens TokenIssuer
	otps   otp.Store
	sender otp.Sender
	otpCfg config.OTPConfig
	now    func() time.Time
}

func NewUserService(repo UserStore, tokens TokenIssuer, otps otp.Store, sender otp.Sender, otpCfg config.OTPConfig) *UserService {
	if otpCfg.TTL <= 0 {
		otpCfg.TTL = 10 * time.Minute
	}
	if otpCfg.Length <= 0 {
		otpCfg.Length = 6
	}
	if sender == nil {
		sender = otp.LogSender{}
	}
	return &UserService{repo: repo, tokens: tokens, otps: otps, sender: sender, otpCfg: otpCfg, now: time.Now}
}

// Register 注册
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, string, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, "", err
	}
	if err := password.ValidateStrength(in.Password); err != nil {
		return nil, "", fmt.Errorf("%w: %s", ErrInvalidArgument, err.Error())
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, "", conflictf("email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", storageErr(err)
	}

	// 密码哈希
	hash, err := password.Hash(in.Password)
	if err != nil {
		return nil, "", err
	}
	user := &model.User{
		Username:     strings.TrimSpace(in.Username),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(in.Name),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         model.RoleUser,
		Status:       model.UserStatusActive,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", conflictf("email already registered")
		}
		return nil, "", storageErr(err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login 登录
func (s *UserService) Login(ctx context.Context, email, plainPassword string) (*model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || plainPassword == "" {
		return nil, "", invalidf("email and password are required")
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", storageErr(err)
	}
	if !password.Verify(plainPassword, u.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}
	if !u.IsActive() {
		return nil, "", ErrAccountInactive
	}

	now := s.now()
	if err := s.repo.UpdateLastLogin(ctx, u.ID, now); err != nil {
		return nil, "", storageErr(err)
	}
	u.LastLogin = &now

	token, err := s.issueToken(u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// GetUser 获取账号
func (s *UserService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundf("user %d", id)
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return u, nil
}

// RequestOTP 生成并投递重置密码验证码
func (s *UserService) RequestOTP(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.repo.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundf("user with email %s", email)
		}
		return storageErr(err)
	}

	code, err := otp.Generate(s.otpCfg.Length)
	if err != nil {
		return err
	}
	if err := s.otps.Save(ctx, email, code, s.otpCfg.TTL); err != nil {
		return storageErr(err)
	}
	if err := s.sender.Send(ctx, email, code); err != nil {
		return fmt.Errorf("send otp: %w", err)
	}
	return nil
}

// VerifyOTP 校验验证码，不消耗
func (s *UserService) VerifyOTP(ctx context.Context, email, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	stored, err := s.otps.Get(ctx, email)
	if errors.Is(err, otp.ErrNotFound) {
		return ErrInvalidOTP
	}
	if err != nil {
		return storageErr(err)
	}
	if stored != strings.TrimSpace(code) {
		return ErrInvalidOTP
	}
	return nil
}

// ResetPassword 使用验证码重置密码，成功后验证码作废
func (s *UserService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.VerifyOTP(ctx, email, code); err != nil {
		return err
	}
	if err := password.ValidateStrength(newPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidArgument, err.Error())
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return notFoundf("user with email %s", email)
	}
	if err != nil {
		return storageErr(err)
	}
	if err := s.setPassword(ctx, u.ID, newPassword); err != nil {
		return err
	}
	if err := s.otps.Delete(ctx, email); err != nil {
		return storageErr(err)
	}
	return nil
}

// ChangePassword 校验当前密码后修改
func (s *UserService) ChangePassword(ctx context.Context, userID uint, current, newPassword string) error {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !password.Verify(current, u.PasswordHash) {
		return invalidf("current password is incorrect")
	}
	if err := password.ValidateStrength(newPassword); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidArgument, err.Error())
	}
	return s.setPassword(ctx, userID, newPassword)
}

func (s *UserService) setPassword(ctx context.Context, userID uint, plain string) error {
	hash, err := password.Hash(plain)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundf("user %d", userID)
		}
		return storageErr(err)
	}
	return nil
}

func (s *UserService) issueToken(u *model.User) (string, error) {
	token, err := s.tokens.GenerateToken(
		fmt.Sprintf("%d", u.ID),
		map[string]interface{}{"email": u.Email, "role": u.Role},
	)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", invalidf("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return "", invalidf("%s is not a valid email address", email)
	}
	return email, nil
}
