package repository

import (
	"opioid-chat-go/internal/model"

	"gorm.io/gorm"
)

// FeedbackRepository 接口定义了反馈记录的持久化操作。
// 只有插入与全量读取，记录写入后不修改不删除。
type FeedbackRepository interface {
	Create(feedback *model.Feedback) error
	FindAll() ([]model.Feedback, error)
}

// feedbackRepository 是 FeedbackRepository 接口的 GORM 实现。
type feedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository 创建一个新的 FeedbackRepository 实例。
func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

// Create 在数据库中插入一条新的反馈记录。
func (r *feedbackRepository) Create(feedback *model.Feedback) error {
	return r.db.Create(feedback).Error
}

// FindAll 按提交时间顺序检索所有反馈记录。
func (r *feedbackRepository) FindAll() ([]model.Feedback, error) {
	var feedbacks []model.Feedback
	err := r.db.Order("submitted_at asc").Find(&feedbacks).Error
	return feedbacks, err
}
