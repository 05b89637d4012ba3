package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword bcrypt 哈希；超过 72 字节的密码返回 bcrypt.ErrPasswordTooLong
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(pw, hashed string) bool {
	return hashed != "" && bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}
