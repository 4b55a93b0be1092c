package password

import (
	"errors"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// MinLength 密码最小长度
const MinLength = 8

// ErrWeakPassword 密码强度不足
var ErrWeakPassword = errors.New("password must be at least 8 characters and contain upper and lower case letters, a digit and a special character")

// Hash 生成密码哈希
func Hash(plain string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify 校验密码
func Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// ValidateStrength 校验密码强度：长度、大小写字母、数字、特殊字符
func ValidateStrength(plain string) error {
	if len([]rune(plain)) < MinLength {
		return ErrWeakPassword
	}
	var upper, lower, digit, special bool
	for _, r := range plain {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	if !upper || !lower || !digit || !special {
		return ErrWeakPassword
	}
	return nil
}
