package models

import (
	"time"

	"gorm.io/gorm"
)

// Notice is a store-wide announcement posted by an admin
type Notice struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	AuthorID  uint           `gorm:"not null;index" json:"author_id"` // foreign key to users table
	Author    User           `gorm:"foreignKey:AuthorID" json:"-"`
	Title     string         `gorm:"not null" json:"title"`
	Body      string         `gorm:"type:text;not null" json:"body"`
	Active    bool           `gorm:"not null" json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Notice model
func (Notice) TableName() string {
	return "notices"
}
