package models

import (
	"time"
)

// 用户
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"not null" json:"-"`                     // HMAC-SHA256哈希，见 utils.HashPassword
	Role      string    `gorm:"size:32;default:'patient'" json:"role"` // 可选值：patient/midwife/admin
	FullName  string    `gorm:"size:128" json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
