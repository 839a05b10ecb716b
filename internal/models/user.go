// Package models contains data structures for the application's domain models.
package models

import "time"

// User is an identity record. The publishing core only references users; the
// identity store owns their lifecycle.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Bio       string    `gorm:"type:text" json:"bio"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SameUser reports whether a and b refer to the same persisted user.
func SameUser(a, b *User) bool {
	return a != nil && b != nil && a.ID != 0 && a.ID == b.ID
}
