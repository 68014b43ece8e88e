package chat

import "time"

// 消息角色
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message 单条对话消息
type Message struct {
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at,omitempty"`
}

// MemoryInterface 对话记忆存储接口，按 (userID, sessionID) 作用域，只追加
type MemoryInterface interface {
	// SaveMemory 追加保存消息（不删除旧记录）
	SaveMemory(dialogue []Message) error
	// QueryMessagesLimit 获取最近 limit 条消息，按时间正序返回（limit<=0 返回全部）
	QueryMessagesLimit(limit int) ([]Message, error)
	// QueryMessages 支持分页与排序的查询，order 为 "ASC" 或 "DESC"
	QueryMessages(order string, page, pageSize int) ([]Message, int64, error)
	// ClearMemory 清空该会话的全部消息
	ClearMemory() error
}
