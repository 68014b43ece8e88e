package chat

import (
	"fmt"
	"testing"

	"bunda-ai-server/src/core/providers"
)

const (
	testPrompt   = "kamu adalah asisten edukasi"
	testGreeting = "baik, saya mengerti"
)

func assertAlternating(t *testing.T, seq []providers.Message) {
	t.Helper()
	if len(seq) == 0 {
		t.Fatal("上下文为空")
	}
	if seq[0].Role != providers.RoleUser {
		t.Fatalf("首回合角色 = %q, 期望 user", seq[0].Role)
	}
	for i := 1; i < len(seq); i++ {
		if seq[i].Role == seq[i-1].Role {
			t.Fatalf("第%d与第%d回合角色相同: %q", i-1, i, seq[i].Role)
		}
	}
}

func TestBuildContextEmptyHistory(t *testing.T) {
	seq := BuildContext(testPrompt, testGreeting, nil, "Apa itu trimester pertama?", 10)

	if len(seq) != 3 {
		t.Fatalf("回合数 = %d, 期望 3", len(seq))
	}
	if seq[0].Content != testPrompt {
		t.Errorf("首回合应为系统指令, got %q", seq[0].Content)
	}
	if seq[1].Role != providers.RoleModel || seq[1].Content != testGreeting {
		t.Errorf("第二回合应为固定确认, got %+v", seq[1])
	}
	if seq[2].Role != providers.RoleUser || seq[2].Content != "Apa itu trimester pertama?" {
		t.Errorf("末回合应为用户消息, got %+v", seq[2])
	}
	assertAlternating(t, seq)
}

func TestBuildContextAlternation(t *testing.T) {
	// 存储中的角色序列形状不限，映射后整体必须以 user 开头交替
	history := []Message{
		{Role: RoleUser, Content: "halo"},
		{Role: RoleModel, Content: "halo juga"},
		{Role: RoleUser, Content: "mual terus"},
		{Role: RoleModel, Content: "itu wajar di awal kehamilan"},
	}
	seq := BuildContext(testPrompt, testGreeting, history, "terima kasih", 10)
	assertAlternating(t, seq)
	if got := len(seq); got != 7 {
		t.Fatalf("回合数 = %d, 期望 7", got)
	}
}

func TestBuildContextMalformedRoles(t *testing.T) {
	// 非 user 角色一律按 model 处理（防御性映射）
	history := []Message{
		{Role: "assistant", Content: "a"},
		{Role: "", Content: "b"},
		{Role: "system", Content: "c"},
	}
	seq := BuildContext(testPrompt, testGreeting, history, "halo", 10)

	// 固定两回合之后的三条历史都应映射为 model
	for i := 2; i < 5; i++ {
		if seq[i].Role != providers.RoleModel {
			t.Errorf("历史回合%d角色 = %q, 期望 model", i, seq[i].Role)
		}
	}
}

func TestBuildContextHistoryBound(t *testing.T) {
	history := make([]Message, 0, 200)
	for i := 0; i < 200; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleModel
		}
		history = append(history, Message{Role: role, Content: fmt.Sprintf("msg-%d", i)})
	}

	seq := BuildContext(testPrompt, testGreeting, history, "baru", 10)

	// 固定2回合 + 最近10条历史 + 新消息
	if got := len(seq); got != 13 {
		t.Fatalf("回合数 = %d, 期望 13", got)
	}
	// 截断应保留最近的历史
	if seq[2].Content != "msg-190" {
		t.Errorf("历史窗口起点 = %q, 期望 msg-190", seq[2].Content)
	}
	if seq[11].Content != "msg-199" {
		t.Errorf("历史窗口终点 = %q, 期望 msg-199", seq[11].Content)
	}
}

func TestBuildContextNoLimit(t *testing.T) {
	history := []Message{{Role: RoleUser, Content: "x"}}
	seq := BuildContext(testPrompt, testGreeting, history, "y", 0)
	if len(seq) != 4 {
		t.Fatalf("limit<=0 不应截断, 回合数 = %d", len(seq))
	}
}
