package handler

import (
	"net/http"

	"opioid-chat-go/internal/config"

	"github.com/gin-gonic/gin"
)

// IntroMessage 是首页的欢迎文案。
const IntroMessage = "Welcome to the AI Opioid Education Chatbot! Here you will learn all about opioids!"

// SystemHandler 负责首页与诊断端点。
type SystemHandler struct{}

// NewSystemHandler 创建一个新的 SystemHandler。
func NewSystemHandler() *SystemHandler {
	return &SystemHandler{}
}

// Index 处理 GET /。
func (h *SystemHandler) Index(c *gin.Context) {
	c.String(http.StatusOK, IntroMessage)
}

// Env 处理 GET /env：报告必需配置是否已设置，从不返回实际值。
func (h *SystemHandler) Env(c *gin.Context) {
	conf := config.Conf
	c.JSON(http.StatusOK, gin.H{
		"llm_endpoint_set":    conf.LLM.BaseURL != "",
		"llm_api_key_set":     conf.LLM.APIKey != "",
		"feedback_secret_set": conf.Feedback.SecretKey != "",
		"database_url_set":    conf.Database.Postgres.DSN != "",
		"redis_addr_set":      conf.Database.Redis.Addr != "",
		"docs_folder_set":     conf.Context.Folder != "",
	})
}
