package configs

import (
	"strings"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.setDefaults()

	if cfg.Chat.HistoryLimit != 10 {
		t.Errorf("history_limit = %d, 期望 10", cfg.Chat.HistoryLimit)
	}
	if cfg.Chat.GenerateTimeout != "60s" {
		t.Errorf("generate_timeout = %q", cfg.Chat.GenerateTimeout)
	}
	if cfg.Chat.SystemPrompt == "" || cfg.Chat.Greeting == "" {
		t.Error("系统指令与确认回合应有默认值")
	}
	if cfg.DialogStorage != "postgres" {
		t.Errorf("dialogStorage = %q", cfg.DialogStorage)
	}
	if cfg.LLM.ModelName == "" {
		t.Error("模型名称应有默认值")
	}
}

func TestConfigOverlay(t *testing.T) {
	cfg := &Config{}
	cfg.setDefaults()

	// 局部覆盖不应影响其他默认值
	if err := cfg.FromString("chat:\n  history_limit: 4\n"); err != nil {
		t.Fatal(err)
	}
	if cfg.Chat.HistoryLimit != 4 {
		t.Errorf("history_limit = %d, 期望 4", cfg.Chat.HistoryLimit)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, 默认值被覆盖", cfg.Server.Port)
	}
}

func TestDefaultSystemPromptPolicy(t *testing.T) {
	// 指令需覆盖关键守则：不诊断、固定谢绝话术、危险征兆就医引导
	for _, want := range []string{"diagnosis", "kesehatan ibu", "fasilitas kesehatan"} {
		if !strings.Contains(strings.ToLower(DefaultSystemPrompt), want) {
			t.Errorf("系统指令缺少关键内容 %q", want)
		}
	}
}
