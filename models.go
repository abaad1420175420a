package main

import (
	"fmt"
	"time"
)

const (
	DEFAULT_IMAGE_URL        = "/static/images/default-pic.png"
	DEFAULT_HEADER_IMAGE_URL = "/static/images/warbler-hero.png"
)

// User represents a registered user. Password holds the bcrypt hash, never
// the plaintext.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Email          string    `gorm:"size:128;not null;uniqueIndex" json:"email"`
	Password       string    `gorm:"size:255;not null" json:"-"`
	ImageURL       string    `gorm:"size:512" json:"image_url"`
	HeaderImageURL string    `gorm:"size:512" json:"header_image_url"`
	Bio            string    `gorm:"type:text" json:"bio"`
	Location       string    `gorm:"size:128" json:"location"`
	CreatedAt      time.Time `json:"created_at"`
}

func (u *User) String() string {
	return fmt.Sprintf("<User #%d: %s, %s>", u.ID, u.Username, u.Email)
}

// Message is a warble. UserID is fixed at creation.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"size:140;not null" json:"text"`
	Timestamp time.Time `gorm:"not null;index" json:"timestamp"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// Follow is a directed edge: UserFollowingID follows UserBeingFollowedID.
type Follow struct {
	UserBeingFollowedID uint      `gorm:"primaryKey;autoIncrement:false"`
	UserFollowingID     uint      `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt           time.Time
}

func (Follow) TableName() string {
	return "follows"
}

type Like struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_likes_user_message"`
	MessageID uint      `gorm:"not null;uniqueIndex:idx_likes_user_message;index"`
	CreatedAt time.Time
}

func (Like) TableName() string {
	return "likes"
}
