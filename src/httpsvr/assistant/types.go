package assistant

import "bunda-ai-server/src/core/chat"

// ChatSendRequest 发送消息请求
type ChatSendRequest struct {
	Message   string `json:"message"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

// ChatHistoryResponse 聊天历史响应
type ChatHistoryResponse struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message,omitempty"`
	Messages []chat.Message `json:"messages,omitempty"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// ClearHistoryResponse 清空会话响应
type ClearHistoryResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
