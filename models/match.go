package models

import "time"

// DefaultTargetScore is the score a player must reach to end a match.
const DefaultTargetScore = 500

// Match is a contest between exactly two players. It stays open until one
// player's Score reaches TargetScore, at which point the scoring engine marks
// it complete, stamps EndedAt, and writes one Outcome per player.
type Match struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	StartedAt   time.Time  `gorm:"autoCreateTime" json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	TargetScore int        `gorm:"not null;default:500" json:"target_score"`
	Complete    bool       `gorm:"not null;default:false" json:"complete"`
	CreatedBy   *string    `gorm:"type:uuid" json:"created_by,omitempty"`

	Players  []Player  `gorm:"many2many:match_players" json:"players,omitempty"`
	Games    []Game    `gorm:"foreignKey:MatchID" json:"games,omitempty"`
	Scores   []Score   `gorm:"foreignKey:MatchID" json:"scores,omitempty"`
	Outcomes []Outcome `gorm:"foreignKey:MatchID" json:"outcomes,omitempty"`

	Timestamps
}

// Score is one player's running point total within one match.
// Exactly one row per (match, player); created at 0 when the player joins the
// roster and mutated only by the scoring engine.
type Score struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	MatchID  string `gorm:"type:uuid;not null;uniqueIndex:idx_scores_match_player" json:"match_id"`
	PlayerID string `gorm:"type:uuid;not null;uniqueIndex:idx_scores_match_player" json:"player_id"`
	Points   int    `gorm:"not null;default:0" json:"points"`

	Player Player `gorm:"foreignKey:PlayerID" json:"player,omitempty"`

	Timestamps
}

// Outcome results
const (
	OutcomeWin  = "win"
	OutcomeLoss = "loss"
)

// Outcome records a player's final result for a completed match. Rows exist
// only while Match.Complete is true; the engine deletes them if a deletion
// drops every score back below the target.
type Outcome struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	MatchID  string `gorm:"type:uuid;not null;uniqueIndex:idx_outcomes_match_player" json:"match_id"`
	PlayerID string `gorm:"type:uuid;not null;uniqueIndex:idx_outcomes_match_player" json:"player_id"`
	Result   string `gorm:"type:varchar(8);not null;check:result IN ('win','loss')" json:"result"`

	Player Player `gorm:"foreignKey:PlayerID" json:"player,omitempty"`

	Timestamps
}
