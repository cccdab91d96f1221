package models

import "time"

type User struct {
	ID           int64     `bson:"_id" json:"id"`
	Username     string    `bson:"username" json:"username"`
	PasswordHash string    `bson:"passwordHash" json:"-"` // bcrypt hash
	CreatedAt    time.Time `bson:"createdAt" json:"created_at"`
}
