package service

import (
	"errors"
	"fmt"
)

// 业务错误分类，handler 通过 errors.Is 映射为 HTTP 状态码
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnauthorized    = errors.New("unauthorized")
	// ErrStorage 基础设施错误，原样上抛，不做重试
	ErrStorage = errors.New("storage failure")
)

// 认证相关错误
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = fmt.Errorf("%w: account is inactive", ErrUnauthorized)
	ErrInvalidOTP         = fmt.Errorf("%w: otp is invalid or expired", ErrInvalidArgument)
	ErrProfileRequired    = fmt.Errorf("%w: create a profile first", ErrNotFound)
)

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func conflictf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func unauthorizedf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, fmt.Sprintf(format, args...))
}

// storageErr 包装存储层错误，已分类的业务错误原样返回
func storageErr(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrNotFound, ErrConflict, ErrInvalidArgument, ErrUnauthorized, ErrStorage} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", ErrStorage, err)
}
