package security

import (
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

// HashPassword 入库前散列明文口令。
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ComparePassword 校验明文与散列；不匹配返回 error。
func ComparePassword(plain, hashed string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
