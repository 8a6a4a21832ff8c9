package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type User struct {
	ID            uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at"`
	Username      string         `gorm:"unique;not null" json:"username"`
	FirstName     string         `json:"first_name"`
	LastName      string         `json:"last_name"`
	Email         string         `gorm:"unique;not null" json:"email"`
	Headline      string         `json:"headline"`
	Company       string         `json:"company"`
	Avatar        string         `json:"avatar"`
	Skills        pq.StringArray `gorm:"type:text[]" json:"skills"`
	AccountStatus string         `json:"account_status"`
	IsVerified    bool           `json:"is_verified"`

	SentRequests     []Connection `json:"-" gorm:"foreignKey:RequesterID"`
	ReceivedRequests []Connection `json:"-" gorm:"foreignKey:AddresseeID"`
}
