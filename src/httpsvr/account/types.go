package account

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"` // 有效期(秒)
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
}
