package chat

import (
	"encoding/json"
	"strings"

	"bunda-ai-server/src/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PostgresMemory 使用数据库存储会话消息（按 userID+sessionID，每条消息一行）
type PostgresMemory struct {
	db        *gorm.DB
	userID    string
	sessionID string
}

// NewPostgresMemory 创建数据库记忆存储
func NewPostgresMemory(db *gorm.DB, userID, sessionID string) *PostgresMemory {
	return &PostgresMemory{db: db, userID: userID, sessionID: sessionID}
}

func (m *PostgresMemory) toMessage(r models.ChatMessage) Message {
	msg := Message{
		Role:      r.Role,
		Content:   r.Content,
		CreatedAt: r.CreatedAt,
	}
	if len(r.Metadata) > 0 {
		meta := make(map[string]string)
		if err := json.Unmarshal(r.Metadata, &meta); err == nil {
			msg.Metadata = meta
		}
	}
	return msg
}

// SaveMemory 追加保存消息（通常为单条），不做预查询
func (m *PostgresMemory) SaveMemory(dialogue []Message) error {
	if m.db == nil || len(dialogue) == 0 {
		return nil
	}
	rows := make([]models.ChatMessage, 0, len(dialogue))
	for _, msg := range dialogue {
		row := models.ChatMessage{
			UserID:    m.userID,
			SessionID: m.sessionID,
			Role:      msg.Role,
			Content:   msg.Content,
		}
		if len(msg.Metadata) > 0 {
			if data, err := json.Marshal(msg.Metadata); err == nil {
				row.Metadata = datatypes.JSON(data)
			}
		}
		rows = append(rows, row)
	}
	return m.db.Create(&rows).Error
}

// QueryMessagesLimit 获取最近 limit 条消息（limit<=0 返回全部），按时间正序返回
func (m *PostgresMemory) QueryMessagesLimit(limit int) ([]Message, error) {
	if m.db == nil {
		return nil, nil
	}
	var rows []models.ChatMessage
	if limit > 0 {
		// 先按时间倒序拿最近 limit 条
		if err := m.db.Where("user_id = ? AND session_id = ?", m.userID, m.sessionID).
			Order("created_at DESC, id DESC").
			Limit(limit).
			Find(&rows).Error; err != nil {
			return nil, err
		}
		// 反转为时间正序
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	} else {
		if err := m.db.Where("user_id = ? AND session_id = ?", m.userID, m.sessionID).
			Order("created_at ASC, id ASC").
			Find(&rows).Error; err != nil {
			return nil, err
		}
	}

	messages := make([]Message, 0, len(rows))
	for _, r := range rows {
		messages = append(messages, m.toMessage(r))
	}
	return messages, nil
}

// QueryMessages 支持分页与排序的查询
// order: "ASC" 或 "DESC"（其他值按 ASC 处理）
func (m *PostgresMemory) QueryMessages(order string, page, pageSize int) ([]Message, int64, error) {
	if m.db == nil {
		return nil, 0, nil
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	// 统计总数
	var total int64
	if err := m.db.Model(&models.ChatMessage{}).
		Where("user_id = ? AND session_id = ?", m.userID, m.sessionID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 排序
	ord := strings.ToUpper(strings.TrimSpace(order))
	orderBy := "created_at ASC, id ASC"
	if ord == "DESC" {
		orderBy = "created_at DESC, id DESC"
	}

	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}

	var rows []models.ChatMessage
	if err := m.db.Where("user_id = ? AND session_id = ?", m.userID, m.sessionID).
		Order(orderBy).
		Limit(pageSize).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	messages := make([]Message, 0, len(rows))
	for _, r := range rows {
		messages = append(messages, m.toMessage(r))
	}
	return messages, total, nil
}

// ClearMemory 清空该会话的对话记录
func (m *PostgresMemory) ClearMemory() error {
	if m.db == nil {
		return nil
	}
	return m.db.Where("user_id = ? AND session_id = ?", m.userID, m.sessionID).
		Delete(&models.ChatMessage{}).Error
}
