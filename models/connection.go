package models

import (
	"time"

	"gorm.io/gorm"
)

// Connection status values. Pending, accepted and blocked are "blocking"
// statuses: at most one row per user pair may hold one of them at a time
// (enforced by a partial unique index on the pair columns, see config.InitDB).
const (
	ConnectionStatusPending   = "pending"
	ConnectionStatusAccepted  = "accepted"
	ConnectionStatusRejected  = "rejected"
	ConnectionStatusWithdrawn = "withdrawn"
	ConnectionStatusBlocked   = "blocked"
)

type Connection struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`

	RequesterID uint `gorm:"not null;index" json:"requester_id"`
	AddresseeID uint `gorm:"not null;index" json:"addressee_id"`

	// Normalized unordered pair key: PairLowID < PairHighID always.
	// Every pair lookup goes through these two columns.
	PairLowID  uint `gorm:"not null;index:idx_connection_pair" json:"-"`
	PairHighID uint `gorm:"not null;index:idx_connection_pair" json:"-"`

	Status  string `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Message string `json:"message"`

	AcceptedAt *time.Time `json:"accepted_at"`
	RejectedAt *time.Time `json:"rejected_at"`
	BlockedAt  *time.Time `json:"blocked_at"`

	Requester User `gorm:"foreignKey:RequesterID" json:"-"`
	Addressee User `gorm:"foreignKey:AddresseeID" json:"-"`
}

func (Connection) TableName() string {
	return "connections"
}

// BeforeSave keeps the normalized pair key in sync with the endpoints.
func (c *Connection) BeforeSave(tx *gorm.DB) error {
	c.PairLowID, c.PairHighID = NormalizePair(c.RequesterID, c.AddresseeID)
	return nil
}

// NormalizePair returns the two user ids ordered low, high.
func NormalizePair(a, b uint) (uint, uint) {
	if a < b {
		return a, b
	}
	return b, a
}

// IsBlockingStatus reports whether status excludes further requests for the
// pair while it holds.
func IsBlockingStatus(status string) bool {
	switch status {
	case ConnectionStatusPending, ConnectionStatusAccepted, ConnectionStatusBlocked:
		return true
	}
	return false
}

// CounterpartID returns the other endpoint of the edge relative to userID.
func (c *Connection) CounterpartID(userID uint) uint {
	if c.RequesterID == userID {
		return c.AddresseeID
	}
	return c.RequesterID
}

// HasEndpoint reports whether userID is one of the edge's two endpoints.
func (c *Connection) HasEndpoint(userID uint) bool {
	return c.RequesterID == userID || c.AddresseeID == userID
}
