package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewID 36 位 uuid v7（按时间有序，主键友好）
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// IsDupKey 唯一键冲突（不依赖 gorm.ErrDuplicatedKey，需要 TranslateError 才会生效）
func IsDupKey(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
