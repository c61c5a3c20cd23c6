package model

import "time"

// User owns tasks and categories. The password is kept only as a bcrypt hash
// and never leaves the server.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex"`
	Email        string `gorm:"uniqueIndex"`
	PasswordHash []byte
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
