// Package relevance 实现了问题是否属于允许主题域的判定。
package relevance

import (
	"strings"

	"opioid-chat-go/internal/model"
)

// Classifier 定义了主题判定策略，便于将来替换为向量或规则分类器。
type Classifier interface {
	// Relevant 判断问题是否属于允许的主题域。空问题由 HTTP 层短路，
	// 不会进入分类器。
	Relevant(question string, history []model.ChatMessage) bool
}

// KeywordClassifier 是基于关键词子串与相似度回退的默认实现。
//
// 判定顺序（固定的单一策略）：
//  1. 问题转小写；
//  2. 命中禁止关键词且未命中允许关键词 -> false；
//  3. 命中允许关键词 -> true；
//  4. 最近 3 条用户消息中任何一条命中允许关键词 -> true（视为追问）；
//  5. 与上一条用户消息的相似度达到阈值 -> true（视为换个说法的追问）；
//  6. 其余 -> false。
type KeywordClassifier struct {
	// FollowUpThreshold 是步骤 5 的相似度阈值。
	FollowUpThreshold float64
}

// NewKeywordClassifier 返回带默认阈值（0.5）的分类器。
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{FollowUpThreshold: 0.5}
}

// Relevant 实现 Classifier。
func (c *KeywordClassifier) Relevant(question string, history []model.ChatMessage) bool {
	q := strings.ToLower(strings.TrimSpace(question))

	hitRelevant := containsAny(q, relevantTopics)
	hitIrrelevant := containsAny(q, irrelevantTopics)

	if hitIrrelevant && !hitRelevant {
		return false
	}
	if hitRelevant {
		return true
	}

	// 无历史时只做关键词匹配
	userTurns := lastUserTurns(history, 3)
	for _, turn := range userTurns {
		if containsAny(strings.ToLower(turn), relevantTopics) {
			return true
		}
	}

	if len(userTurns) > 0 {
		prev := strings.ToLower(userTurns[len(userTurns)-1])
		if Similarity(q, prev) >= c.FollowUpThreshold {
			return true
		}
	}

	return false
}

// ContainsRelevantTopic 判断一段文本是否包含任一允许主题关键词。
// 抓取器用它做页面内容门控。
func ContainsRelevantTopic(text string) bool {
	return containsAny(strings.ToLower(text), relevantTopics)
}

// containsAny 判断 s 是否包含 keywords 中的任一子串。
func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// lastUserTurns 按时间顺序返回最近 n 条用户消息的内容。
func lastUserTurns(history []model.ChatMessage, n int) []string {
	var turns []string
	for i := len(history) - 1; i >= 0 && len(turns) < n; i-- {
		if history[i].Role == model.RoleUser {
			turns = append(turns, history[i].Content)
		}
	}
	// 反转回时间顺序
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns
}
