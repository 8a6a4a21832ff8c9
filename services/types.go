package services

import "time"

// UserSummary is the slice of a user profile the connection surface exposes.
type UserSummary struct {
	ID         uint   `json:"id"`
	Username   string `json:"username"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Headline   string `json:"headline"`
	Avatar     string `json:"avatar"`
	IsVerified bool   `json:"isVerified"`
}

// ConnectionEntry is one row in a connection or request listing, viewed from
// the perspective of the user who asked.
type ConnectionEntry struct {
	ConnectionID uint        `json:"connectionId"`
	User         UserSummary `json:"user"`
	Status       string      `json:"status"`
	Message      string      `json:"message,omitempty"`
	IsOutgoing   bool        `json:"isOutgoing"`
	CreatedAt    time.Time   `json:"createdAt"`
	AcceptedAt   *time.Time  `json:"acceptedAt,omitempty"`
}

// ConnectionStatus describes the relationship between two users. The view is
// symmetric except for IsOutgoingRequest, which flips with the viewer.
type ConnectionStatus struct {
	IsConnected            bool  `json:"isConnected"`
	IsPending              bool  `json:"isPending"`
	IsBlocked              bool  `json:"isBlocked"`
	IsOutgoingRequest      bool  `json:"isOutgoingRequest"`
	MutualConnectionsCount int   `json:"mutualConnectionsCount"`
	ConnectionID           *uint `json:"connectionId,omitempty"`
}

type ConnectionStats struct {
	TotalConnections     int64 `json:"totalConnections"`
	PendingReceivedCount int64 `json:"pendingReceivedCount"`
	SentCount            int64 `json:"sentCount"`
}

// Suggestion is one "people you may know" candidate.
type Suggestion struct {
	User             UserSummary `json:"user"`
	SharedConnection int64       `json:"sharedConnections"`
}
