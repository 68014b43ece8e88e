package providers

import "context"

// 对话角色
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message LLM请求消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chunk 流式回复的单个分片，Error非空表示流中断
type Chunk struct {
	Content string
	Error   string
}

// LLMProvider 生成模型提供者接口
// Response 立即返回分片通道，生成在后台进行；通道关闭表示流结束
type LLMProvider interface {
	Response(ctx context.Context, sessionID string, messages []Message) (<-chan Chunk, error)
	Cleanup() error
}
