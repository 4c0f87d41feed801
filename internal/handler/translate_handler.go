package handler

import (
	"net/http"

	"opioid-chat-go/pkg/log"
	"opioid-chat-go/pkg/translate"

	"github.com/gin-gonic/gin"
)

// TranslateHandler 负责文本翻译请求。
type TranslateHandler struct {
	translateClient translate.Client
}

// NewTranslateHandler 创建一个新的 TranslateHandler。
func NewTranslateHandler(translateClient translate.Client) *TranslateHandler {
	return &TranslateHandler{translateClient: translateClient}
}

type translateRequest struct {
	Text       string `json:"text"`
	TargetLang string `json:"target_lang"`
}

// Translate 处理 POST /translate。
func (h *TranslateHandler) Translate(c *gin.Context) {
	var req translateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == "" || req.TargetLang == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text and target_lang are required"})
		return
	}

	translated, err := h.translateClient.Translate(c.Request.Context(), req.Text, req.TargetLang)
	if err != nil {
		log.Error("translation failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "translation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"translated_text": translated})
}
