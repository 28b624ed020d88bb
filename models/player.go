package models

import "time"

// Player is the identity record matches, games, and scores reference.
// Authentication lives in the profile service behind the gateway; this row is
// the local snapshot the scoresheet needs (see workers.PlayerSyncWorker).
type Player struct {
	ID        string  `gorm:"primaryKey;type:uuid" json:"id"`
	Username  string  `gorm:"uniqueIndex;not null" json:"username"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     string  `json:"email,omitempty"`
	IsActive  bool    `gorm:"default:true" json:"is_active"`

	LastSeen *time.Time `json:"last_seen,omitempty"`

	Matches []Match `gorm:"many2many:match_players" json:"matches,omitempty"`

	Timestamps
}
