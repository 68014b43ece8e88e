package chat

import (
	"bunda-ai-server/src/core/providers"
)

// BuildContext 组装一次生成调用的完整上下文回合序列：
// 固定系统指令回合(user) + 固定确认回合(model) + 最近 limit 条历史 + 本次用户消息。
// 开头两个固定回合保证序列总是以 user/model 交替姿态起步，与存储中的实际内容无关。
func BuildContext(systemPrompt, greeting string, history []Message, userMessage string, limit int) []providers.Message {
	history = tailWindow(history, limit)

	seq := make([]providers.Message, 0, len(history)+3)
	seq = append(seq, providers.Message{Role: providers.RoleUser, Content: systemPrompt})
	seq = append(seq, providers.Message{Role: providers.RoleModel, Content: greeting})

	for _, msg := range history {
		// 防御性映射：user 之外的角色一律按 model 处理
		role := providers.RoleModel
		if msg.Role == RoleUser {
			role = providers.RoleUser
		}
		seq = append(seq, providers.Message{Role: role, Content: msg.Content})
	}

	seq = append(seq, providers.Message{Role: providers.RoleUser, Content: userMessage})
	return seq
}
