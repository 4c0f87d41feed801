package relevance

import (
	"testing"

	"opioid-chat-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordClassifier_NoHistory(t *testing.T) {
	c := NewKeywordClassifier()

	tests := []struct {
		name     string
		question string
		want     bool
	}{
		{"relevant keyword", "What is naloxone?", true},
		{"relevant keyword mid-sentence", "How do painkillers lead to addiction?", true},
		{"relevant keyword uppercase", "Tell me about FENTANYL", true},
		{"irrelevant keyword only", "Who won the Grammy this year?", false},
		{"irrelevant keyword sports", "What sports are on TV tonight?", false},
		{"neither keyword set", "What is the capital of France?", false},
		{"both sets hit favors relevant", "Did any celebrity die of an opioid overdose?", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Relevant(tt.question, nil))
		})
	}
}

func TestKeywordClassifier_FollowUp(t *testing.T) {
	c := NewKeywordClassifier()

	history := []model.ChatMessage{
		{Role: model.RoleUser, Content: "What is naloxone?"},
		{Role: model.RoleAssistant, Content: "Naloxone is a medication that reverses overdoses."},
	}

	// 追问本身没有关键词，但最近的用户消息有
	assert.True(t, c.Relevant("How fast does it work?", history))

	// 追问命中禁止关键词时仍然拒绝
	assert.False(t, c.Relevant("And who won the grammy?", history))
}

func TestKeywordClassifier_SimilarityFollowUp(t *testing.T) {
	c := NewKeywordClassifier()

	history := []model.ChatMessage{
		{Role: model.RoleUser, Content: "how does treatment work exactly"},
	}
	// 历史中的用户消息也没有关键词，但当前问题与上一条高度相似
	assert.True(t, c.Relevant("how does treatment work", history))

	// 完全不相似且无关键词
	assert.False(t, c.Relevant("zzz qqq", history))
}

func TestSimilarity(t *testing.T) {
	require.Equal(t, 1.0, Similarity("abc", "abc"))
	require.Equal(t, 0.0, Similarity("abc", "xyz"))
	assert.InDelta(t, 0.8, Similarity("abcde", "abcdx"), 1e-9)
	assert.Equal(t, 1.0, Similarity("", ""))
}

func TestContainsRelevantTopic(t *testing.T) {
	assert.True(t, ContainsRelevantTopic("This page discusses Opioid misuse prevention."))
	assert.False(t, ContainsRelevantTopic("A page about gardening."))
}
