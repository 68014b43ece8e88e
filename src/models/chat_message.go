package models

import (
	"time"

	"gorm.io/datatypes"
)

// ChatMessage 按 (userID, sessionID) 存储的单条对话消息，只追加不修改
type ChatMessage struct {
	ID        uint           `gorm:"primaryKey"`
	UserID    string         `gorm:"size:64;not null;index:idx_chat_user_session"`
	SessionID string         `gorm:"size:64;not null;index:idx_chat_user_session"`
	Role      string         `gorm:"size:32;not null"` // 可选值：user/model
	Content   string         `gorm:"type:text;not null"`
	Metadata  datatypes.JSON `gorm:"type:json"` // 附加信息，如 finish_reason、是否命中危险征兆拦截
	CreatedAt time.Time
}

func (ChatMessage) TableName() string { return "chat_messages" }
