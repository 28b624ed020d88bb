package models

import "time"

// Game is one scored hand within a match.
type Game struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	MatchID  string `gorm:"type:uuid;not null;index" json:"match_id"`
	WinnerID string `gorm:"type:uuid;not null;index" json:"winner_id"`
	LoserID  string `gorm:"type:uuid;not null" json:"loser_id"`
	Points   int    `gorm:"not null" json:"points"`

	// Bonus conditions from the scoresheet; informational only, the scoring
	// math never reads them.
	Gin      bool `gorm:"default:false" json:"gin"`
	Undercut bool `gorm:"default:false" json:"undercut"`

	// PointsApplied is the amount currently reflected in the winner's Score.
	// The engine subtracts it before re-applying Points on every edit, so an
	// edited game never double-counts.
	PointsApplied int `gorm:"not null;default:0" json:"-"`

	PlayedAt  time.Time `gorm:"autoCreateTime" json:"played_at"`
	CreatedBy *string   `gorm:"type:uuid" json:"created_by,omitempty"`

	Timestamps
}
