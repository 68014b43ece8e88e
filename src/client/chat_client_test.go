package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"unicode/utf8"
)

func staticToken(token string) TokenFunc {
	return func(ctx context.Context) (string, error) { return token, nil }
}

// streamHandler 按分片flush下发纯文本回复
func streamHandler(t *testing.T, chunks ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Error("响应不支持flush")
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		for _, chunk := range chunks {
			if _, err := w.Write([]byte(chunk)); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func newTestClient(serverURL string) *ChatClient {
	c := NewChatClient(serverURL, nil, staticToken("tok"))
	c.SetUser("7")
	return c
}

func TestSendMessageStreamsReply(t *testing.T) {
	srv := httptest.NewServer(streamHandler(t, "Halo ", "ibu, ", "ada yang bisa dibantu?"))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if err := c.SendMessage(context.Background(), "Halo"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	msgs := c.Messages()
	if len(msgs) != 2 {
		t.Fatalf("消息数 = %d, 期望 2: %+v", len(msgs), msgs)
	}
	if msgs[0].Role != RoleUser || msgs[0].Content != "Halo" {
		t.Errorf("user消息 = %+v", msgs[0])
	}
	if msgs[1].Role != RoleModel || msgs[1].Content != "Halo ibu, ada yang bisa dibantu?" {
		t.Errorf("model消息 = %+v", msgs[1])
	}
	if c.State() != StateDone {
		t.Errorf("state = %v, 期望 StateDone", c.State())
	}
}

func TestSendMessageNoOps(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
	}))
	defer srv.Close()

	// 空白消息
	c := newTestClient(srv.URL)
	if err := c.SendMessage(context.Background(), "   "); err != nil {
		t.Fatal(err)
	}

	// 用户尚未设置
	c2 := NewChatClient(srv.URL, nil, staticToken("tok"))
	if err := c2.SendMessage(context.Background(), "Halo"); err != nil {
		t.Fatal(err)
	}

	if n := requests.Load(); n != 0 {
		t.Errorf("不应发出请求, got %d", n)
	}
	if len(c.Messages()) != 0 || len(c2.Messages()) != 0 {
		t.Error("空操作不应改动消息列表")
	}
}

func TestSendMessageSingleFlight(t *testing.T) {
	var requests atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		close(entered)
		<-release
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.SendMessage(context.Background(), "pertama")
	}()
	<-entered

	// 第一条仍在途：第二次提交应立即返回且不发请求
	if err := c.SendMessage(context.Background(), "kedua"); err != nil {
		t.Fatal(err)
	}
	if n := requests.Load(); n != 1 {
		t.Errorf("请求数 = %d, 期望 1", n)
	}

	close(release)
	wg.Wait()

	// 在途请求结束后消息列表不含第二条
	for _, m := range c.Messages() {
		if m.Content == "kedua" {
			t.Error("被拒绝的提交不应出现在消息列表中")
		}
	}
}

func TestLoadingPlaceholderInvariant(t *testing.T) {
	srv := httptest.NewServer(streamHandler(t, "a", "b", "c"))
	defer srv.Close()

	c := newTestClient(srv.URL)

	// 每次快照最多一个loading，且总在末尾
	c.SetOnUpdate(func(msgs []Message) {
		loading := 0
		for i, m := range msgs {
			if m.Role == RoleLoading {
				loading++
				if i != len(msgs)-1 {
					t.Errorf("loading占位不在末尾: %+v", msgs)
				}
			}
		}
		if loading > 1 {
			t.Errorf("loading占位超过一个: %+v", msgs)
		}
	})

	if err := c.SendMessage(context.Background(), "Halo"); err != nil {
		t.Fatal(err)
	}
	for _, m := range c.Messages() {
		if m.Role == RoleLoading {
			t.Error("发送结束后不应残留loading占位")
		}
	}
}

func TestSendMessageServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "layanan sedang bermasalah", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if err := c.SendMessage(context.Background(), "Halo"); err == nil {
		t.Fatal("期望返回错误")
	}

	msgs := c.Messages()
	if len(msgs) != 2 {
		t.Fatalf("消息数 = %d, 期望 2: %+v", len(msgs), msgs)
	}
	if msgs[1].Role != RoleModel || msgs[1].Content != FallbackErrorMessage {
		t.Errorf("末条应为固定错误提示, got %+v", msgs[1])
	}
	if c.State() != StateErrored {
		t.Errorf("state = %v, 期望 StateErrored", c.State())
	}
}

func TestSendMessageStreamAborted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("jawaban seba"))
		w.(http.Flusher).Flush()
		// 不发送终止分块直接断开，客户端应识别为失败
		panic(http.ErrAbortHandler)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if err := c.SendMessage(context.Background(), "Halo"); err == nil {
		t.Fatal("期望返回错误")
	}

	// 半截回复被撤下，只保留用户消息与固定错误提示
	msgs := c.Messages()
	if len(msgs) != 2 {
		t.Fatalf("消息数 = %d, 期望 2: %+v", len(msgs), msgs)
	}
	if msgs[1].Content != FallbackErrorMessage {
		t.Errorf("末条 = %+v", msgs[1])
	}
	for _, m := range msgs {
		if m.Content == "jawaban seba" {
			t.Error("半截回复不应残留")
		}
	}
	if c.State() != StateErrored {
		t.Errorf("state = %v", c.State())
	}
}

func TestStreamRuneBoundary(t *testing.T) {
	// 多字节字符被拆到两个分片，快照任何时刻都应是合法UTF-8
	full := "kehamilan sehat ❤ ibu"
	raw := []byte(full)
	cut := 17 // 落在 ❤ 的三个字节中间
	srv := httptest.NewServer(streamHandler(t, string(raw[:cut]), string(raw[cut:])))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.SetOnUpdate(func(msgs []Message) {
		for _, m := range msgs {
			if !utf8.ValidString(m.Content) {
				t.Errorf("快照包含非法UTF-8: %q", m.Content)
			}
		}
	})

	if err := c.SendMessage(context.Background(), "Halo"); err != nil {
		t.Fatal(err)
	}
	msgs := c.Messages()
	if msgs[len(msgs)-1].Content != full {
		t.Errorf("最终内容 = %q, 期望 %q", msgs[len(msgs)-1].Content, full)
	}
}

func TestCompleteRuneBoundary(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want int
	}{
		{"纯ASCII", []byte("abc"), 3},
		{"完整多字节", []byte("héllo"), 6},
		{"尾部半个rune", append([]byte("ab"), 0xE2, 0x9D), 2},
		{"空", nil, 0},
		{"只有半个rune", []byte{0xE2, 0x9D}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := completeRuneBoundary(tt.in); got != tt.want {
				t.Errorf("completeRuneBoundary(%q) = %d, 期望 %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestResetChat(t *testing.T) {
	srv := httptest.NewServer(streamHandler(t, "ok"))
	defer srv.Close()

	c := newTestClient(srv.URL)
	oldSession := c.SessionID()

	if err := c.SendMessage(context.Background(), "Halo"); err != nil {
		t.Fatal(err)
	}

	c.ResetChat()
	if c.SessionID() == oldSession {
		t.Error("重置后应生成新的会话ID")
	}
	if len(c.Messages()) != 0 {
		t.Error("重置后消息列表应为空")
	}
	if c.State() != StateIdle {
		t.Errorf("state = %v, 期望 StateIdle", c.State())
	}
}

func TestResetChatNoOpWhileSending(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	oldSession := c.SessionID()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.SendMessage(context.Background(), "Halo")
	}()
	<-entered

	c.ResetChat()
	if c.SessionID() != oldSession {
		t.Error("发送进行中重置应为空操作")
	}

	close(release)
	wg.Wait()
}
