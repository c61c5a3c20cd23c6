package model

import "time"

// Session is a server-side login session. The bearer token handed to the
// client is a JWT carrying the session id; deleting the row invalidates the
// token even while its embedded expiry is still in the future.
type Session struct {
	ID        string `gorm:"primaryKey"`
	UserID    uint   `gorm:"index"`
	ExpiresAt time.Time
	CreatedAt time.Time
}
