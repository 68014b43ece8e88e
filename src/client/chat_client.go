package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"unicode/utf8"

	"bunda-ai-server/src/core/utils"

	"github.com/google/uuid"
)

// 会话状态机
type State int

const (
	StateIdle State = iota
	StateSending
	StateStreaming
	StateDone
	StateErrored
)

// 消息角色
const (
	RoleUser    = "user"
	RoleModel   = "model"
	RoleLoading = "loading" // 仅用于UI反馈的临时占位
)

// FallbackErrorMessage 发送失败时展示给用户的固定回复（印尼语）
const FallbackErrorMessage = "Maaf, terjadi gangguan. Silakan coba beberapa saat lagi."

// Message 客户端消息，ID为客户端生成的标识，仅用于UI对账
type Message struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TokenSource 每次发送前获取新鲜的认证token
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc 函数式TokenSource
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

type sendRequest struct {
	Message   string `json:"message"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

// ChatClient 单个会话的聊天客户端状态机。
// 维护按插入顺序只追加的消息列表，同一实例同时只允许一个在途请求。
type ChatClient struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource

	mu        sync.Mutex
	userID    string
	sessionID string
	messages  []Message
	state     State
	sending   bool
	streamID  string // 当前在途model消息的ID，流分片按此追加

	onUpdate func([]Message)
}

// NewChatClient 创建聊天客户端，会话ID在创建时生成
func NewChatClient(baseURL string, httpClient *http.Client, tokens TokenSource) *ChatClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ChatClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		tokens:     tokens,
		sessionID:  uuid.NewString(),
		state:      StateIdle,
	}
}

// SetUser 认证解析完成后设置用户ID，设置前 SendMessage 为空操作
func (c *ChatClient) SetUser(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = userID
}

// SetOnUpdate 设置消息列表变更回调（每个流分片都会触发）
func (c *ChatClient) SetOnUpdate(fn func([]Message)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUpdate = fn
}

// SessionID 当前会话标识
func (c *ChatClient) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// State 当前状态
func (c *ChatClient) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Messages 返回消息列表副本，按插入顺序
func (c *ChatClient) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *ChatClient) notify() {
	c.mu.Lock()
	fn := c.onUpdate
	var snapshot []Message
	if fn != nil {
		snapshot = make([]Message, len(c.messages))
		copy(snapshot, c.messages)
	}
	c.mu.Unlock()
	if fn != nil {
		fn(snapshot)
	}
}

// removeLoadingLocked 移除loading占位（列表中最多存在一个，且总在末尾）
func (c *ChatClient) removeLoadingLocked() {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == RoleLoading {
			c.messages = append(c.messages[:i], c.messages[i+1:]...)
			return
		}
	}
}

// removeByIDLocked 按ID移除消息
func (c *ChatClient) removeByIDLocked(id string) {
	if id == "" {
		return
	}
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].ID == id {
			c.messages = append(c.messages[:i], c.messages[i+1:]...)
			return
		}
	}
}

// SendMessage 发送一条用户消息并流式接收回复。
// 空消息、用户未解析、或已有请求在途时为空操作。
// 单飞闸在任何异步操作前同步检查，两次快速提交不会并发发出请求。
func (c *ChatClient) SendMessage(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	c.mu.Lock()
	if c.sending || c.userID == "" || c.sessionID == "" {
		c.mu.Unlock()
		return nil
	}
	c.sending = true
	c.state = StateSending
	c.messages = append(c.messages,
		Message{ID: utils.GenerateMessageToken(), Role: RoleUser, Content: text},
		Message{ID: utils.GenerateMessageToken(), Role: RoleLoading},
	)
	c.mu.Unlock()
	c.notify()

	err := c.doSend(ctx, text)

	c.mu.Lock()
	if err != nil {
		// 失败：撤下loading与半截回复，只追加一条固定的错误提示
		c.removeLoadingLocked()
		c.removeByIDLocked(c.streamID)
		c.messages = append(c.messages, Message{
			ID:      utils.GenerateMessageToken(),
			Role:    RoleModel,
			Content: FallbackErrorMessage,
		})
		c.state = StateErrored
	} else {
		c.state = StateDone
	}
	c.streamID = ""
	c.sending = false
	c.mu.Unlock()
	c.notify()

	return err
}

func (c *ChatClient) doSend(ctx context.Context, text string) error {
	c.mu.Lock()
	userID := c.userID
	sessionID := c.sessionID
	c.mu.Unlock()

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("获取认证token失败: %w", err)
	}

	body, err := json.Marshal(sendRequest{Message: text, UserID: userID, SessionID: sessionID})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/chat/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("chat request failed with status %d", resp.StatusCode)
	}

	// 收到响应头：撤下loading，插入空的model消息开始增量填充
	streamID := utils.GenerateMessageToken()
	c.mu.Lock()
	c.removeLoadingLocked()
	c.messages = append(c.messages, Message{ID: streamID, Role: RoleModel})
	c.streamID = streamID
	c.state = StateStreaming
	c.mu.Unlock()
	c.notify()

	// 按读到的字节增量解码，只在完整rune边界处追加
	var pending []byte
	buf := make([]byte, 512)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			cut := completeRuneBoundary(pending)
			if cut > 0 {
				c.appendToStream(streamID, string(pending[:cut]))
				pending = pending[cut:]
			}
		}
		if readErr == io.EOF {
			if len(pending) > 0 {
				c.appendToStream(streamID, string(pending))
			}
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

// appendToStream 将解码后的文本追加到在途model消息并触发回调
func (c *ChatClient) appendToStream(streamID, fragment string) {
	if fragment == "" {
		return
	}
	c.mu.Lock()
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].ID == streamID {
			c.messages[i].Content += fragment
			break
		}
	}
	c.mu.Unlock()
	c.notify()
}

// completeRuneBoundary 返回 b 中完整UTF-8序列的前缀长度
func completeRuneBoundary(b []byte) int {
	end := len(b)
	for end > 0 && end > len(b)-utf8.UTFMax {
		r, size := utf8.DecodeLastRune(b[:end])
		if r != utf8.RuneError || size > 1 {
			return end
		}
		end--
	}
	return end
}

// ResetChat 丢弃消息列表并生成新的会话ID；不影响服务端已保存的历史。
// 发送进行中时为空操作。
func (c *ChatClient) ResetChat() {
	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return
	}
	c.messages = nil
	c.sessionID = uuid.NewString()
	c.state = StateIdle
	c.mu.Unlock()
	c.notify()
}
