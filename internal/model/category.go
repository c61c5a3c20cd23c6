package model

import "time"

// Category groups tasks by area (work, health, shopping, etc.). Each category
// belongs to exactly one user.
type Category struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index"`
	Name      string
	Color     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Tasks     []Task `gorm:"foreignKey:CategoryID"`
}
