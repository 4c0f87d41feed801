package model

import "time"

// Feedback 代表一条用户反馈记录，写入后不再修改或删除。
type Feedback struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      string    `gorm:"size:64;index" json:"user_id"` // 调用方地址
	Rating      int       `gorm:"not null" json:"rating"`
	Comments    string    `gorm:"type:text" json:"comments"`
	SubmittedAt time.Time `gorm:"autoCreateTime" json:"submitted_at"`
}

func (Feedback) TableName() string {
	return "feedbacks"
}
