package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	at := NewAuthToken("test-secret", "bunda-test")

	token, err := at.GenerateToken(7, "ibu_siti", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	userID, username, err := at.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if userID != 7 {
		t.Errorf("userID = %d, 期望 7", userID)
	}
	if username != "ibu_siti" {
		t.Errorf("username = %q, 期望 ibu_siti", username)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	at := NewAuthToken("secret-a", "bunda-test")
	other := NewAuthToken("secret-b", "bunda-test")

	token, err := at.GenerateToken(1, "x", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := other.VerifyToken(token); err == nil {
		t.Error("不同密钥签发的token应校验失败")
	}
}

func TestTokenExpired(t *testing.T) {
	at := NewAuthToken("test-secret", "bunda-test")

	token, err := at.GenerateToken(1, "x", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := at.VerifyToken(token); err == nil {
		t.Error("过期token应校验失败")
	}
}

func TestTokenGarbage(t *testing.T) {
	at := NewAuthToken("test-secret", "bunda-test")
	if _, _, err := at.VerifyToken("not-a-token"); err == nil {
		t.Error("非法token应校验失败")
	}
}
