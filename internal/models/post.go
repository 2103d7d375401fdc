// Package models contains data structures for the board's domain models.
package models

import (
	"time"
)

// Post is a board entry. Ownership is proven with Password, not with the
// session identity.
type Post struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	UserID    uint   `gorm:"not null;index" json:"user_id"`
	User      *User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Title     string `gorm:"size:255;not null" json:"title"`
	Content   string `gorm:"type:text;not null" json:"content"`
	Category  string `gorm:"size:50;not null;index" json:"category"`
	ViewCount int64  `gorm:"not null;default:0" json:"view_count"`
	// File holds the attachment bytes when the inline store is used.
	File     []byte `json:"-"`
	FileType string `gorm:"size:20" json:"file_type,omitempty"`
	// FileKey is the object key when the attachment lives in an external store.
	FileKey  string `gorm:"size:255" json:"-"`
	Password string `gorm:"size:255;not null" json:"-"`
	// Nickname is joined from users at read time.
	Nickname  string    `gorm:"->;-:migration" json:"nickname,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasAttachment reports whether the post carries a file in either store.
func (p *Post) HasAttachment() bool {
	return len(p.File) > 0 || p.FileKey != ""
}

// Attachment is a post file ready to be served: inline bytes or a
// short-lived URL into the external store.
type Attachment struct {
	ContentType string
	Data        []byte
	URL         string
}

// Post categories shown on the board. Any non-empty category is accepted.
const (
	CategoryFree     = "free"
	CategoryQuestion = "question"
	CategoryShow     = "show"
	CategoryNotice   = "notice"
)
