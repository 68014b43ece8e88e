package assistant

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"bunda-ai-server/src/configs"
	"bunda-ai-server/src/core/auth"
	"bunda-ai-server/src/core/chat"
	"bunda-ai-server/src/core/middleware"
	"bunda-ai-server/src/core/providers"
	"bunda-ai-server/src/core/safety"
	"bunda-ai-server/src/core/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// AssistantService 聊天助手服务：接收用户消息，流式返回生成回复并落库
type AssistantService struct {
	logger          *utils.Logger
	config          *configs.Config
	db              *gorm.DB
	provider        providers.LLMProvider
	generateTimeout time.Duration

	// Redis客户端进程内只建一次，按请求借用
	redisOnce   sync.Once
	redisClient *redis.Client
	redisErr    error
}

func NewAssistantService(config *configs.Config, logger *utils.Logger, db *gorm.DB, provider providers.LLMProvider) *AssistantService {
	timeout := 60 * time.Second
	if d, err := time.ParseDuration(config.Chat.GenerateTimeout); err == nil && d > 0 {
		timeout = d
	}
	return &AssistantService{
		logger:          logger,
		config:          config,
		db:              db,
		provider:        provider,
		generateTimeout: timeout,
	}
}

// Start 注册chat相关路由
func (s *AssistantService) Start(ctx context.Context, engine *gin.Engine, apiGroup *gin.RouterGroup, authToken *auth.AuthToken) {
	chatGroup := apiGroup.Group("/chat").Use(middleware.JWTUserAuth(authToken, s.logger))
	{
		chatGroup.POST("/send", s.handleChatSend)
		chatGroup.GET("/history", s.handleChatHistory)
		chatGroup.DELETE("/history", s.handleClearHistory)
	}
}

// newMemory 按配置选择对话存储后端
func (s *AssistantService) newMemory(userID, sessionID string) (chat.MemoryInterface, error) {
	if s.config.DialogStorage == "redis" {
		s.redisOnce.Do(func() {
			s.redisClient, s.redisErr = chat.NewRedisClient(s.config.RedisCache)
		})
		if s.redisErr != nil {
			return nil, s.redisErr
		}
		return chat.NewRedisMemory(s.redisClient, s.config.RedisCache.Service, s.logger, userID, sessionID), nil
	}
	return chat.NewPostgresMemory(s.db, userID, sessionID), nil
}

// handleChatSend 处理聊天消息发送，回复以 text/plain 分片流式下发
// 该端点的错误响应为纯文本
func (s *AssistantService) handleChatSend(c *gin.Context) {
	var req ChatSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "permintaan tidak valid")
		return
	}
	if strings.TrimSpace(req.Message) == "" || strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.SessionID) == "" {
		c.String(http.StatusBadRequest, "message, user_id, dan session_id wajib diisi")
		return
	}

	// 校验token身份与请求体中的 user_id 严格一致
	userID := c.GetUint("user_id")
	if fmt.Sprintf("%d", userID) != req.UserID {
		c.String(http.StatusUnauthorized, "token tidak valid atau kedaluwarsa")
		return
	}

	memory, err := s.newMemory(req.UserID, req.SessionID)
	if err != nil {
		s.logger.Error("初始化对话存储失败: %v", err)
		c.String(http.StatusInternalServerError, "layanan sedang bermasalah")
		return
	}

	// 危险征兆确定性拦截：不调用生成模型，直接下发固定就医引导
	if phrase, hit := safety.DetectDangerSign(req.Message); hit {
		s.logger.Warn("命中危险征兆拦截 user=%s phrase=%q", req.UserID, phrase)
		s.respondEscalation(c, memory, req.Message, phrase)
		return
	}

	// 读取最近的会话历史（时间正序）
	history, err := memory.QueryMessagesLimit(s.config.Chat.HistoryLimit)
	if err != nil {
		s.logger.Error("获取对话历史失败: %v", err)
		c.String(http.StatusInternalServerError, "layanan sedang bermasalah")
		return
	}

	contents := chat.BuildContext(s.config.Chat.SystemPrompt, s.config.Chat.Greeting, history, req.Message, s.config.Chat.HistoryLimit)

	// 用户消息先落库，保证追加日志的因果顺序
	if err := memory.SaveMemory([]chat.Message{{Role: chat.RoleUser, Content: req.Message}}); err != nil {
		s.logger.Error("保存用户消息失败: %v", err)
		c.String(http.StatusInternalServerError, "layanan sedang bermasalah")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.generateTimeout)
	defer cancel()

	responses, err := s.provider.Response(ctx, req.SessionID, contents)
	if err != nil {
		s.logger.Error("LLM生成回复失败: %v", err)
		c.String(http.StatusInternalServerError, "asisten sedang tidak tersedia")
		return
	}

	// 边收边发：每个分片立即flush，同时累积完整回复
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Status(http.StatusOK)

	var fullReply strings.Builder
	for chunk := range responses {
		if chunk.Error != "" {
			// 流中断：硬断开连接（不发送终止分块），客户端据此识别为失败；
			// 不落库不完整的回复。ErrAbortHandler 在 HTTP/1.1 与 HTTP/2 下
			// 均由 net/http 中止连接，恢复中间件须原样放行该panic
			s.logger.Error("LLM响应错误 session=%s: %s", req.SessionID, chunk.Error)
			panic(http.ErrAbortHandler)
		}
		if chunk.Content == "" {
			continue
		}
		fullReply.WriteString(chunk.Content)
		if _, err := c.Writer.WriteString(chunk.Content); err != nil {
			s.logger.Warn("写入响应流失败 session=%s: %v", req.SessionID, err)
			return
		}
		c.Writer.Flush()
	}

	// 流完整结束后才落库模型回合
	if err := memory.SaveMemory([]chat.Message{{
		Role:     chat.RoleModel,
		Content:  fullReply.String(),
		Metadata: map[string]string{"finish_reason": "stop"},
	}}); err != nil {
		s.logger.Error("保存模型回复失败: %v", err)
	}
}

// respondEscalation 下发固定就医引导并落库两条回合
func (s *AssistantService) respondEscalation(c *gin.Context, memory chat.MemoryInterface, userMessage, phrase string) {
	if err := memory.SaveMemory([]chat.Message{{Role: chat.RoleUser, Content: userMessage}}); err != nil {
		s.logger.Error("保存用户消息失败: %v", err)
		c.String(http.StatusInternalServerError, "layanan sedang bermasalah")
		return
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Status(http.StatusOK)
	if _, err := c.Writer.WriteString(safety.EscalationMessage); err != nil {
		s.logger.Warn("写入响应流失败: %v", err)
		return
	}
	c.Writer.Flush()

	if err := memory.SaveMemory([]chat.Message{{
		Role:     chat.RoleModel,
		Content:  safety.EscalationMessage,
		Metadata: map[string]string{"source": "danger_prefilter", "phrase": phrase},
	}}); err != nil {
		s.logger.Error("保存模型回复失败: %v", err)
	}
}

// handleChatHistory 获取某个会话的聊天历史，支持分页
func (s *AssistantService) handleChatHistory(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Query("session_id"))
	if sessionID == "" {
		utils.Custom(c, http.StatusBadRequest, ChatHistoryResponse{Success: false, Message: "session_id wajib diisi"})
		return
	}

	pp := utils.ParsePageParams(c, 1, 20, 100)
	userID := fmt.Sprintf("%d", c.GetUint("user_id"))

	memory, err := s.newMemory(userID, sessionID)
	if err != nil {
		s.logger.Error("初始化对话存储失败: %v", err)
		utils.Custom(c, http.StatusInternalServerError, ChatHistoryResponse{Success: false, Message: "查询失败"})
		return
	}

	// 倒序分页读取，再反转为从旧到新展示
	pageItems, total64, err := memory.QueryMessages("DESC", pp.Page, pp.PageSize)
	if err != nil {
		s.logger.Error("查询对话记忆失败: %v", err)
		utils.Custom(c, http.StatusInternalServerError, ChatHistoryResponse{Success: false, Message: "查询失败"})
		return
	}
	for i, j := 0, len(pageItems)-1; i < j; i, j = i+1, j-1 {
		pageItems[i], pageItems[j] = pageItems[j], pageItems[i]
	}

	utils.Custom(c, http.StatusOK, ChatHistoryResponse{
		Success:  true,
		Messages: pageItems,
		Total:    int(total64),
		Page:     pp.Page,
		PageSize: pp.PageSize,
	})
}

// handleClearHistory 清空某个会话的聊天记录
func (s *AssistantService) handleClearHistory(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Query("session_id"))
	if sessionID == "" {
		utils.Custom(c, http.StatusBadRequest, ClearHistoryResponse{Success: false, Message: "session_id wajib diisi"})
		return
	}

	userID := fmt.Sprintf("%d", c.GetUint("user_id"))
	memory, err := s.newMemory(userID, sessionID)
	if err != nil {
		s.logger.Error("初始化对话存储失败: %v", err)
		utils.Custom(c, http.StatusInternalServerError, ClearHistoryResponse{Success: false, Message: "操作失败"})
		return
	}

	if err := memory.ClearMemory(); err != nil {
		s.logger.Error("清空会话失败: %v", err)
		utils.Custom(c, http.StatusInternalServerError, ClearHistoryResponse{Success: false, Message: "操作失败"})
		return
	}

	utils.Custom(c, http.StatusOK, ClearHistoryResponse{Success: true})
}
