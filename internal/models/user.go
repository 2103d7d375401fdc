package models

import (
	"time"
)

// User roles. The role is stored and displayed but never consulted for
// authorization.
const (
	RoleUser  = "USER"
	RoleHost  = "HOST"
	RoleAdmin = "ADMIN"
)

// User is a registered board member.
type User struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	LoginID         string     `gorm:"column:login_id;size:50;uniqueIndex;not null" json:"login_id"`
	Name            string     `gorm:"size:50" json:"name"`
	Email           string     `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Password        string     `gorm:"not null" json:"-"`
	Phone           string     `gorm:"size:30" json:"phone,omitempty"`
	Birth           *time.Time `json:"birth,omitempty"`
	Gender          string     `gorm:"size:10" json:"gender,omitempty"`
	Nickname        string     `gorm:"size:50;uniqueIndex;not null" json:"nickname"`
	Role            string     `gorm:"size:10;not null;default:USER" json:"role"`
	Address         string     `gorm:"size:255" json:"address,omitempty"`
	ProfileImageURL string     `gorm:"size:512" json:"profile_image_url,omitempty"`
	// PetInfo is an opaque JSON document owned by the client.
	PetInfo        string    `gorm:"type:text" json:"pet_info,omitempty"`
	BusinessNumber string    `gorm:"size:30" json:"business_number,omitempty"`
	BusinessSNSURL string    `gorm:"column:business_sns_url;size:512" json:"business_sns_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
