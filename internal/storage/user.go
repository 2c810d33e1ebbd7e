package storage

import "time"

// User は登録済みアカウントを表します。
// PasswordHash には bcrypt のハッシュのみを保存し、平文は保持しません。
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Username     string    `gorm:"size:64;uniqueIndex;not null" json:"username" validate:"required,max=64"`
	Email        string    `gorm:"size:254;uniqueIndex;not null" json:"email" validate:"required,email,max=254"`
	PasswordHash string    `gorm:"size:60;not null" json:"-" validate:"required"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
