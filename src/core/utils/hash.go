package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashPassword 计算密码的HMAC-SHA256哈希（hex编码）
func HashPassword(password, salt string) string {
	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(password))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyPassword 恒定时间比较密码哈希
func VerifyPassword(password, salt, hashed string) bool {
	expected := HashPassword(password, salt)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(hashed)) == 1
}
