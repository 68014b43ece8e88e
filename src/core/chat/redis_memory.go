package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"bunda-ai-server/src/configs"
	"bunda-ai-server/src/core/utils"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient 创建Redis客户端并探活，进程内复用同一个实例
func NewRedisClient(cfg configs.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("Redis地址未配置")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("Redis连接失败: %v", err)
	}
	return client, nil
}

// RedisMemory 使用Redis持久化会话消息（哈希：key 固定，field=userID:sessionID）
// 整个会话以JSON数组存储，追加为读-改-写；客户端由外部持有并复用
type RedisMemory struct {
	client  *redis.Client
	hashKey string
	field   string
	ctx     context.Context
	logger  *utils.Logger
}

// NewRedisMemory 创建一个按 (userID, sessionID) 作用域的Redis记忆存储视图
func NewRedisMemory(client *redis.Client, service string, logger *utils.Logger, userID, sessionID string) *RedisMemory {
	if service == "" {
		service = "bunda"
	}
	return &RedisMemory{
		client:  client,
		hashKey: fmt.Sprintf("%s:dialogue", service),
		field:   fmt.Sprintf("%s:%s", userID, sessionID),
		ctx:     context.Background(),
		logger:  logger,
	}
}

func (rm *RedisMemory) load() ([]Message, error) {
	val, err := rm.client.HGet(rm.ctx, rm.hashKey, rm.field).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var msgs []Message
	if err := json.Unmarshal([]byte(val), &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (rm *RedisMemory) store(msgs []Message) error {
	bytes, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	return rm.client.HSet(rm.ctx, rm.hashKey, rm.field, bytes).Err()
}

// SaveMemory 追加保存消息
func (rm *RedisMemory) SaveMemory(dialogue []Message) error {
	if len(dialogue) == 0 {
		return nil
	}
	existing, err := rm.load()
	if err != nil {
		return err
	}
	now := time.Now()
	for _, msg := range dialogue {
		if msg.CreatedAt.IsZero() {
			msg.CreatedAt = now
		}
		existing = append(existing, msg)
	}
	return rm.store(existing)
}

// QueryMessagesLimit 获取最近 limit 条消息（limit<=0 返回全部），按时间正序返回
func (rm *RedisMemory) QueryMessagesLimit(limit int) ([]Message, error) {
	msgs, err := rm.load()
	if err != nil {
		return nil, err
	}
	return tailWindow(msgs, limit), nil
}

// QueryMessages 支持分页与排序的查询
func (rm *RedisMemory) QueryMessages(order string, page, pageSize int) ([]Message, int64, error) {
	msgs, err := rm.load()
	if err != nil {
		return nil, 0, err
	}
	items, total := paginateMessages(msgs, order, page, pageSize)
	return items, total, nil
}

// ClearMemory 清空该会话的对话记录
func (rm *RedisMemory) ClearMemory() error {
	return rm.client.HDel(rm.ctx, rm.hashKey, rm.field).Err()
}

// tailWindow 取最近 limit 条（limit<=0 返回全部）
func tailWindow(msgs []Message, limit int) []Message {
	if limit > 0 && len(msgs) > limit {
		return msgs[len(msgs)-limit:]
	}
	return msgs
}

// paginateMessages 对内存中的消息序列做排序与分页，order 为 "ASC" 或 "DESC"
func paginateMessages(msgs []Message, order string, page, pageSize int) ([]Message, int64) {
	total := int64(len(msgs))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	if strings.ToUpper(strings.TrimSpace(order)) == "DESC" {
		reversed := make([]Message, len(msgs))
		for i, m := range msgs {
			reversed[len(msgs)-1-i] = m
		}
		msgs = reversed
	}

	start := (page - 1) * pageSize
	if start > len(msgs) {
		start = len(msgs)
	}
	end := start + pageSize
	if end > len(msgs) {
		end = len(msgs)
	}
	return msgs[start:end], total
}
