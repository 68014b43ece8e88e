package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type AuthToken struct {
	secretKey []byte
	issuer    string
}

func NewAuthToken(secretKey, issuer string) *AuthToken {
	if secretKey == "" {
		fmt.Println("Error! secret key cannot be empty")
	}
	if issuer == "" {
		issuer = "bunda-ai-server"
	}
	return &AuthToken{
		secretKey: []byte(secretKey),
		issuer:    issuer,
	}
}

// GenerateToken 生成用户JWT token
func (at *AuthToken) GenerateToken(userID uint, username string, expiry time.Duration) (string, error) {
	expireTime := time.Now().Add(expiry)

	claims := jwt.MapClaims{
		"user_id":  userID,
		"username": username,
		"iss":      at.issuer,
		"exp":      expireTime.Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(at.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// VerifyToken 校验用户token，返回 userID 与 username
func (at *AuthToken) VerifyToken(tokenString string) (uint, string, error) {
	if at == nil {
		return 0, "", errors.New("AuthToken instance is nil")
	}

	if len(at.secretKey) == 0 {
		return 0, "", errors.New("secret key is not initialized")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// 验证签名方法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return at.secretKey, nil
	})
	if err != nil {
		return 0, "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return 0, "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", errors.New("invalid claims")
	}

	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, "", errors.New("invalid user_id in claims")
	}

	username, _ := claims["username"].(string)

	return uint(userID), username, nil
}
