package gemini

import (
	"context"
	"fmt"

	"bunda-ai-server/src/configs"
	"bunda-ai-server/src/core/providers"
	"bunda-ai-server/src/core/utils"

	"google.golang.org/genai"
)

// Provider 基于 Gemini API 的流式生成提供者
type Provider struct {
	client      *genai.Client
	modelName   string
	temperature float32
	logger      *utils.Logger
}

// NewProvider 创建 Gemini 提供者，进程内复用同一个客户端
func NewProvider(ctx context.Context, cfg configs.LLMConfig, logger *utils.Logger) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API密钥未配置")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("创建gemini客户端失败: %v", err)
	}

	modelName := cfg.ModelName
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}
	temperature := float32(cfg.Temperature)
	if temperature <= 0 {
		temperature = 0.5
	}

	return &Provider{
		client:      client,
		modelName:   modelName,
		temperature: temperature,
		logger:      logger,
	}, nil
}

// safetySettings 按伤害类别配置拦截阈值
// 只拦截高置信度违规：孕产健康话题容易被过严的过滤器误伤
func safetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, cat := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  cat,
			Threshold: genai.HarmBlockThresholdBlockOnlyHigh,
		})
	}
	return settings
}

// toContents 将通用消息转为 genai 回合，非 user 角色一律按 model 处理
func toContents(messages []providers.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		var role genai.Role = genai.RoleModel
		if msg.Role == providers.RoleUser {
			role = genai.RoleUser
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}
	return contents
}

// Response 发起流式生成，分片写入返回的通道
func (p *Provider) Response(ctx context.Context, sessionID string, messages []providers.Message) (<-chan providers.Chunk, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("消息列表为空")
	}

	config := &genai.GenerateContentConfig{
		Temperature:    genai.Ptr(p.temperature),
		SafetySettings: safetySettings(),
	}

	contents := toContents(messages)
	out := make(chan providers.Chunk, 8)

	go func() {
		defer close(out)
		for resp, err := range p.client.Models.GenerateContentStream(ctx, p.modelName, contents, config) {
			if err != nil {
				if p.logger != nil {
					p.logger.Error("gemini流式生成失败 session=%s: %v", sessionID, err)
				}
				select {
				case out <- providers.Chunk{Error: err.Error()}:
				case <-ctx.Done():
				}
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			select {
			case out <- providers.Chunk{Content: text}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// Cleanup 释放资源，genai客户端无需显式关闭
func (p *Provider) Cleanup() error {
	return nil
}
