package service

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"opioid-chat-go/internal/config"
	"opioid-chat-go/internal/model"
	"opioid-chat-go/internal/repository"
	"opioid-chat-go/pkg/log"
)

// FeedbackService 定义了用户反馈的业务操作。
type FeedbackService interface {
	// Record 插入一条反馈记录；userID 为调用方地址。
	Record(userID string, rating int, comments string) error
	// ListAll 返回全部反馈记录。
	ListAll() ([]model.Feedback, error)
	// VerifyKey 以常数时间比较校验查看密钥。
	VerifyKey(key string) bool
}

type feedbackService struct {
	repo repository.FeedbackRepository
	cfg  config.FeedbackConfig
}

// NewFeedbackService 创建一个新的 FeedbackService 实例。
func NewFeedbackService(repo repository.FeedbackRepository, cfg config.FeedbackConfig) FeedbackService {
	return &feedbackService{repo: repo, cfg: cfg}
}

// Record 实现 FeedbackService。配置了镜像文件时同时追加一行 JSON。
func (s *feedbackService) Record(userID string, rating int, comments string) error {
	feedback := &model.Feedback{
		UserID:      userID,
		Rating:      rating,
		Comments:    comments,
		SubmittedAt: time.Now(),
	}
	if err := s.repo.Create(feedback); err != nil {
		return fmt.Errorf("failed to store feedback: %w", err)
	}

	if s.cfg.MirrorPath != "" {
		if err := appendMirror(s.cfg.MirrorPath, feedback); err != nil {
			// 镜像失败不影响主存储
			log.Warnf("failed to mirror feedback to %q: %v", s.cfg.MirrorPath, err)
		}
	}
	return nil
}

// ListAll 实现 FeedbackService。
func (s *feedbackService) ListAll() ([]model.Feedback, error) {
	return s.repo.FindAll()
}

// VerifyKey 实现 FeedbackService。普通字符串相等会泄露时序信息，
// 这里使用常数时间比较。
func (s *feedbackService) VerifyKey(key string) bool {
	return subtle.ConstantTimeCompare([]byte(key), []byte(s.cfg.SecretKey)) == 1
}

// appendMirror 以 JSON Lines 形式把记录追加到镜像文件。
func appendMirror(path string, feedback *model.Feedback) error {
	line, err := json.Marshal(feedback)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return err
	}
	return nil
}
