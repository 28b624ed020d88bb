package models

import "time"

// PlayerStanding is a denormalized win/loss record per player, rebuilt from
// Outcomes and Games by the standings refresh job. Read-only outside the
// StandingsService.
type PlayerStanding struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	PlayerID string `gorm:"type:uuid;uniqueIndex;not null" json:"player_id"`
	Username string `gorm:"index;not null" json:"username"`

	MatchesPlayed int64 `gorm:"default:0" json:"matches_played"`
	MatchesWon    int64 `gorm:"default:0" json:"matches_won"`
	MatchesLost   int64 `gorm:"default:0" json:"matches_lost"`
	GamesWon      int64 `gorm:"default:0" json:"games_won"`
	GamesLost     int64 `gorm:"default:0" json:"games_lost"`
	PointsScored  int64 `gorm:"default:0" json:"points_scored"`

	ComputedAt time.Time `json:"computed_at"`
}
