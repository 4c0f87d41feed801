// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"opioid-chat-go/internal/service"
	"opioid-chat-go/pkg/log"
	"opioid-chat-go/pkg/translate"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// EmptyQuestionMessage 是空问题的固定提示文案，以 200 返回。
const EmptyQuestionMessage = "Please ask a valid question."

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// ChatHandler 负责处理问答相关的请求。
type ChatHandler struct {
	chatService     service.ChatService
	translateClient translate.Client
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService, translateClient translate.Client) *ChatHandler {
	return &ChatHandler{
		chatService:     chatService,
		translateClient: translateClient,
	}
}

type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
	Language  string `json:"language"`
}

// Ask 处理 POST /ask：完整管线，返回展示与语音两种渲染。
func (h *ChatHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Question == "" {
		// 空问题在进入分类器之前短路
		c.JSON(http.StatusOK, gin.H{"answer": EmptyQuestionMessage, "voice_answer": EmptyQuestionMessage})
		return
	}

	rendered := h.chatService.Answer(c.Request.Context(), req.Question, h.sessionID(c, req.SessionID))

	answer := rendered.Display
	if req.Language != "" && req.Language != "en" {
		if translated, err := h.translateClient.Translate(c.Request.Context(), answer, req.Language); err != nil {
			// 翻译失败退回原文
			log.Warnf("answer translation to %q failed: %v", req.Language, err)
		} else {
			answer = translated
		}
	}

	c.JSON(http.StatusOK, gin.H{"answer": answer, "voice_answer": rendered.Voice})
}

// Voice 处理 POST /voice：与 /ask 相同的管线，只返回语音渲染。
func (h *ChatHandler) Voice(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Question == "" {
		c.JSON(http.StatusOK, gin.H{"answer": EmptyQuestionMessage})
		return
	}

	rendered := h.chatService.Answer(c.Request.Context(), req.Question, h.sessionID(c, req.SessionID))
	c.JSON(http.StatusOK, gin.H{"answer": rendered.Voice})
}

// HandleWebSocket 处理 GET /chat：流式问答。每条收到的文本消息视为一个问题。
func (h *ChatHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	sessionID := h.sessionID(c, c.Query("session_id"))
	log.Infof("WebSocket 连接已建立, session: %s", sessionID)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}

		question := string(message)
		if question == "" {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(EmptyQuestionMessage))
			continue
		}

		if err := h.chatService.StreamAnswer(c.Request.Context(), question, sessionID, &wsChunkWriter{conn: conn}); err != nil {
			log.Errorf("处理流式响应失败: %v", err)
			errResp := map[string]string{"error": "The model is temporarily unavailable. Please try again later."}
			b, _ := json.Marshal(errResp)
			_ = conn.WriteMessage(websocket.TextMessage, b)
		}
		sendCompletion(conn)
	}
}

// sessionID 返回客户端提供的会话 ID，缺省退化为调用方地址。
func (h *ChatHandler) sessionID(c *gin.Context, provided string) string {
	if provided != "" {
		return provided
	}
	return c.ClientIP()
}

// wsChunkWriter 把模型分块包装成 {"chunk":"..."} 再写入连接。
type wsChunkWriter struct {
	conn *websocket.Conn
}

// WriteMessage 满足 llm.MessageWriter 接口。
func (w *wsChunkWriter) WriteMessage(messageType int, data []byte) error {
	payload := map[string]string{"chunk": string(data)}
	b, _ := json.Marshal(payload)
	return w.conn.WriteMessage(messageType, b)
}

// sendCompletion 发送完成通知 JSON
func sendCompletion(conn *websocket.Conn) {
	notif := map[string]interface{}{
		"type":      "completion",
		"status":    "finished",
		"timestamp": time.Now().UnixMilli(),
	}
	b, _ := json.Marshal(notif)
	_ = conn.WriteMessage(websocket.TextMessage, b)
}
