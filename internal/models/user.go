package models

import (
	"time"
)

// User is a board member that can sign in. Password holds a bcrypt hash.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"unique;not null"`
	Password  string    `json:"-" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName specifies the table name for User Model
func (User) TableName() string {
	return "users"
}
