package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// 用户类型
const (
	UserTypeTraveler = "traveler"
	UserTypeAdmin    = "admin"
)

// User 用户结构体 (对应 users 表)
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;not null"` // bcrypt 哈希
	UserType     string    `json:"user_type" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
}

// BeforeCreate 插入前生成 UUID
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// SearchRecord 搜索历史
type SearchRecord struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	UserID          *uuid.UUID     `json:"user_id,omitempty" gorm:"type:uuid;index"`
	Query           string         `json:"query" gorm:"not null"`
	TranslatedQuery string         `json:"translated_query"`
	Keywords        pq.StringArray `json:"keywords" gorm:"type:text[]"`
	ResultCount     int            `json:"result_count"`
	Fallback        bool           `json:"fallback"`
	CreatedAt       time.Time      `json:"created_at" gorm:"index"`
}
