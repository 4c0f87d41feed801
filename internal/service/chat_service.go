package service

import (
	"context"
	"strings"
	"time"

	"opioid-chat-go/internal/config"
	"opioid-chat-go/internal/model"
	"opioid-chat-go/internal/postprocess"
	"opioid-chat-go/internal/relevance"
	"opioid-chat-go/pkg/llm"
	"opioid-chat-go/pkg/log"

	"github.com/gorilla/websocket"
)

// defaultRules 是内置的系统提示规则，config 未覆盖时使用。
const defaultRules = `You are an educational chatbot specifically designed to provide accurate, factual, and age-appropriate information about opioids, including opioid use and misuse, addiction, overdose, prevention, pain management, treatment, risk factors, and related topics.

Your responses should only address inquiries directly related to opioid education and opioid awareness. You are strictly prohibited from discussing unrelated subjects such as celebrities, entertainment, politics, sports, or general health.

You should use context from previous conversations to answer follow-up questions, but your responses must remain rooted solely in the educational data regarding opioids.

Always cite sources at the end of your answers. Only cite real sources from the provided context. Do not invent sources. Only provide a URL if it is real and comes from the provided context. If you cannot find the answer or a valid source in the provided context, prioritize official health or government sources such as nida.nih.gov, samhsa.gov, or cdc.gov.`

// ErrorAnswerPrefix 是上游模型失败时回答文本的固定前缀。
const ErrorAnswerPrefix = "ERROR: "

// ChatService 定义了问答管线的操作接口。
type ChatService interface {
	// Answer 执行完整管线并返回处理后的回答。上游失败被吸收为
	// "ERROR: ..." 文本，调用方以 200 返回给用户。
	Answer(ctx context.Context, question, sessionID string) postprocess.Rendered
	// StreamAnswer 与 Answer 相同的管线，但将模型分块流式写入 writer。
	StreamAnswer(ctx context.Context, question, sessionID string, writer llm.MessageWriter) error
}

type chatService struct {
	classifier       relevance.Classifier
	contextService   ContextService
	llmClient        llm.Client
	processor        *postprocess.Processor
	conversationRepo historyStore
	historyPairs     int
	rules            string
}

// historyStore 是 ChatService 需要的对话历史窄接口。
type historyStore interface {
	GetConversationHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, error)
	UpdateConversationHistory(ctx context.Context, sessionID string, messages []model.ChatMessage) error
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(
	classifier relevance.Classifier,
	contextService ContextService,
	llmClient llm.Client,
	processor *postprocess.Processor,
	conversationRepo historyStore,
	cfg config.ContextConfig,
	prompt config.LLMPromptConfig,
) ChatService {
	rules := prompt.Rules
	if rules == "" {
		rules = defaultRules
	}
	pairs := cfg.HistoryPairs
	if pairs <= 0 {
		pairs = 5
	}
	return &chatService{
		classifier:       classifier,
		contextService:   contextService,
		llmClient:        llmClient,
		processor:        processor,
		conversationRepo: conversationRepo,
		historyPairs:     pairs,
		rules:            rules,
	}
}

// Answer 协调相关性门控、上下文装配、模型调用与后处理。
func (s *chatService) Answer(ctx context.Context, question, sessionID string) postprocess.Rendered {
	history := s.loadHistory(ctx, sessionID)

	// 1. 相关性门控：离题问题不触发任何远程调用
	if !s.classifier.Relevant(question, history) {
		return postprocess.Rendered{
			Text:    relevance.RefusalMessage,
			Display: relevance.RefusalMessage,
			Voice:   relevance.RefusalMessage,
		}
	}

	// 2. 装配 grounding 上下文与消息列表
	contextText, contextURLs := s.contextService.GroundingContext(ctx)
	messages := s.composeMessages(contextText, history, question)

	// 3. 调用模型。失败吸收为 ERROR 文本，不重试，不向上抛
	raw, err := s.llmClient.Complete(ctx, messages, nil)
	if err != nil {
		log.Error("completion call failed", err)
		errText := ErrorAnswerPrefix + "failed to get a response from the model."
		return postprocess.Rendered{Text: errText, Display: errText, Voice: errText}
	}

	// 4. 后处理（URL 校验、回退来源、渲染）
	rendered := s.processor.Process(ctx, raw, contextURLs, question)

	// 5. 保存对话。使用后台上下文：即使原始请求被取消也要保存成功的回答
	s.saveTurn(context.Background(), sessionID, question, rendered.Text)

	return rendered
}

// StreamAnswer 流式版本：分块直接下发，结束后保存完整回答。
func (s *chatService) StreamAnswer(ctx context.Context, question, sessionID string, writer llm.MessageWriter) error {
	history := s.loadHistory(ctx, sessionID)

	if !s.classifier.Relevant(question, history) {
		return writer.WriteMessage(websocket.TextMessage, []byte(relevance.RefusalMessage))
	}

	contextText, _ := s.contextService.GroundingContext(ctx)
	messages := s.composeMessages(contextText, history, question)

	// 拦截 writer 以捕获完整答案
	answerBuilder := &strings.Builder{}
	interceptor := &captureWriter{next: writer, builder: answerBuilder}

	if err := s.llmClient.StreamChat(ctx, messages, nil, interceptor); err != nil {
		return err
	}

	if answerBuilder.Len() > 0 {
		s.saveTurn(context.Background(), sessionID, question, answerBuilder.String())
	}
	return nil
}

func (s *chatService) loadHistory(ctx context.Context, sessionID string) []model.ChatMessage {
	history, err := s.conversationRepo.GetConversationHistory(ctx, sessionID)
	if err != nil {
		log.Errorf("Failed to load conversation history: %v", err)
		return []model.ChatMessage{}
	}
	return history
}

// composeMessages 组装 system 消息、最近 N 轮历史与当前问题。
func (s *chatService) composeMessages(contextText string, history []model.ChatMessage, question string) []llm.Message {
	var sys strings.Builder
	sys.WriteString(s.rules)
	sys.WriteString("\n\nContext:\n")
	if contextText != "" {
		sys.WriteString(contextText)
	} else {
		sys.WriteString("(no local context available this turn)")
	}

	window := lastTurns(history, s.historyPairs*2)

	msgs := make([]llm.Message, 0, len(window)+2)
	msgs = append(msgs, llm.Message{Role: model.RoleSystem, Content: sys.String()})
	for _, m := range window {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, llm.Message{Role: model.RoleUser, Content: question})
	return msgs
}

// saveTurn 将一问一答追加到会话历史。只记录错误，不影响已返回的回答。
func (s *chatService) saveTurn(ctx context.Context, sessionID, question, answer string) {
	history, err := s.conversationRepo.GetConversationHistory(ctx, sessionID)
	if err != nil {
		log.Errorf("Failed to get conversation history: %v", err)
		return
	}

	now := time.Now()
	history = append(history,
		model.ChatMessage{Role: model.RoleUser, Content: question, Timestamp: now},
		model.ChatMessage{Role: model.RoleAssistant, Content: answer, Timestamp: now},
	)

	if err := s.conversationRepo.UpdateConversationHistory(ctx, sessionID, history); err != nil {
		log.Errorf("Failed to save conversation history: %v", err)
	}
}

// lastTurns 返回最近 n 条消息。
func lastTurns(history []model.ChatMessage, n int) []model.ChatMessage {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// captureWriter 是对下游 writer 的封装，用于捕获写入的完整回答。
type captureWriter struct {
	next    llm.MessageWriter
	builder *strings.Builder
}

// WriteMessage 满足 llm.MessageWriter 接口。
func (w *captureWriter) WriteMessage(messageType int, data []byte) error {
	w.builder.Write(data)
	return w.next.WriteMessage(messageType, data)
}
