package account

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bunda-ai-server/src/configs"
	"bunda-ai-server/src/core/auth"
	"bunda-ai-server/src/core/utils"
	"bunda-ai-server/src/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AccountService 账号服务：登录与token签发
type AccountService struct {
	logger    *utils.Logger
	config    *configs.Config
	db        *gorm.DB
	authToken *auth.AuthToken
}

func NewAccountService(config *configs.Config, logger *utils.Logger, db *gorm.DB, authToken *auth.AuthToken) *AccountService {
	return &AccountService{
		logger:    logger,
		config:    config,
		db:        db,
		authToken: authToken,
	}
}

// Start 注册auth相关路由
func (s *AccountService) Start(ctx context.Context, engine *gin.Engine, apiGroup *gin.RouterGroup) {
	authGroup := apiGroup.Group("/auth")
	{
		authGroup.POST("/login", s.handleLogin)
	}
}

// handleLogin 用户名密码登录，成功返回JWT
func (s *AccountService) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "请求参数错误")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		utils.Error(c, http.StatusBadRequest, "username dan password wajib diisi")
		return
	}

	var user models.User
	err := s.db.Where("username = ?", req.Username).First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询用户失败: %v", err)
		}
		// 不区分用户不存在与密码错误
		utils.Error(c, http.StatusUnauthorized, "username atau password salah")
		return
	}

	if !utils.VerifyPassword(req.Password, s.config.PasswordSalt, user.Password) {
		utils.Error(c, http.StatusUnauthorized, "username atau password salah")
		return
	}

	expiry := time.Duration(s.config.JWT.ExpiryHours) * time.Hour
	token, err := s.authToken.GenerateToken(user.ID, user.Username, expiry)
	if err != nil {
		s.logger.Error("签发token失败: %v", err)
		utils.Error(c, http.StatusInternalServerError, "登录失败")
		return
	}

	utils.Success(c, LoginResponse{
		Token:     token,
		ExpiresIn: int64(expiry.Seconds()),
		UserID:    fmt.Sprintf("%d", user.ID),
		Username:  user.Username,
		Role:      user.Role,
	})
}
