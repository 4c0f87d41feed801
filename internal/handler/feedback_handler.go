package handler

import (
	"net/http"
	"strconv"

	"opioid-chat-go/internal/service"
	"opioid-chat-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// FeedbackHandler 负责反馈的提交与查看。
type FeedbackHandler struct {
	feedbackService service.FeedbackService
}

// NewFeedbackHandler 创建一个新的 FeedbackHandler。
func NewFeedbackHandler(feedbackService service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

const (
	feedbackSuccessPage = `<html><body><h3>Thank you for your feedback!</h3></body></html>`
	feedbackFailurePage = `<html><body><h3>Sorry, we could not record your feedback. Please try again later.</h3></body></html>`
)

// Submit 处理 POST /feedback（表单编码，字段 feedback 与 rate）。
func (h *FeedbackHandler) Submit(c *gin.Context) {
	comments := c.PostForm("feedback")
	rate, err := strconv.Atoi(c.PostForm("rate"))
	if err != nil {
		c.Data(http.StatusBadRequest, "text/html; charset=utf-8", []byte(feedbackFailurePage))
		return
	}

	if err := h.feedbackService.Record(c.ClientIP(), rate, comments); err != nil {
		// 持久化失败只在服务端记录，调用方看到失败页
		log.Error("failed to record feedback", err)
		c.Data(http.StatusInternalServerError, "text/html; charset=utf-8", []byte(feedbackFailurePage))
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(feedbackSuccessPage))
}

// View 处理 GET /view_feedback?key=...，密钥校验失败返回 401。
func (h *FeedbackHandler) View(c *gin.Context) {
	if !h.feedbackService.VerifyKey(c.Query("key")) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized access"})
		return
	}

	feedbacks, err := h.feedbackService.ListAll()
	if err != nil {
		log.Error("failed to list feedback", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load feedback"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"feedback": feedbacks})
}
