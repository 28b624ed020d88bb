package scoring

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/theletterjeff/gin-rummy-scoresheet/models"
)

// Engine owns the match-scoring rules: roster-to-score sync, score updates on
// game create/edit/delete, completion detection, and completion reversal.
// Every operation runs as a single transaction, so a reader never observes a
// score at or past the target without the match marked complete and both
// outcomes written, or vice versa.
type Engine struct {
	DB *gorm.DB
}

func NewEngine(db *gorm.DB) *Engine {
	return &Engine{DB: db}
}

// GameInput carries the full desired state of a game. For updates, services
// merge partial request bodies into the stored game first, so the engine
// always receives complete values.
type GameInput struct {
	MatchID   string
	WinnerID  string
	LoserID   string
	Points    int
	Gin       bool
	Undercut  bool
	CreatedBy string
}

// AddPlayer puts a player on a match's roster and creates their zero Score.
// Re-adding a player who is already on the roster is a no-op that returns the
// existing Score.
func (e *Engine) AddPlayer(matchID, playerID string) (*models.Score, error) {
	var score *models.Score
	err := e.DB.Transaction(func(tx *gorm.DB) error {
		match, err := loadMatch(tx, matchID)
		if err != nil {
			return err
		}

		var player models.Player
		if err := tx.First(&player, "id = ?", playerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("player %s not found", playerID)
			}
			return fmt.Errorf("load player: %w", err)
		}

		if onRoster(match, playerID) {
			var existing models.Score
			err := tx.Where("match_id = ? AND player_id = ?", matchID, playerID).
				First(&existing).Error
			if err == nil {
				score = &existing
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("load score: %w", err)
			}
			// roster row exists but the score is missing; recreate it below
		} else {
			if len(match.Players) >= 2 {
				return conflictf("match %s already has two players", matchID)
			}
			if err := tx.Model(match).Association("Players").Append(&player); err != nil {
				return fmt.Errorf("append roster: %w", err)
			}
		}

		s := models.Score{
			ID:       uuid.NewString(),
			MatchID:  match.ID,
			PlayerID: player.ID,
			Points:   0,
		}
		if err := tx.Create(&s).Error; err != nil {
			return fmt.Errorf("create score: %w", err)
		}
		score = &s
		return nil
	})
	return score, err
}

// RecordGame saves a new game and adds its points to the winner's score, then
// checks whether that score just finished the match.
func (e *Engine) RecordGame(in GameInput) (*models.Game, error) {
	if in.Points <= 0 {
		return nil, validationf("points must be greater than 0")
	}

	var game *models.Game
	err := e.DB.Transaction(func(tx *gorm.DB) error {
		match, err := loadMatch(tx, in.MatchID)
		if err != nil {
			return err
		}
		if err := checkRoster(match, in.WinnerID, in.LoserID); err != nil {
			return err
		}

		g := models.Game{
			ID:            uuid.NewString(),
			MatchID:       match.ID,
			WinnerID:      in.WinnerID,
			LoserID:       in.LoserID,
			Points:        in.Points,
			Gin:           in.Gin,
			Undercut:      in.Undercut,
			PointsApplied: in.Points,
		}
		if in.CreatedBy != "" {
			g.CreatedBy = &in.CreatedBy
		}
		if err := tx.Create(&g).Error; err != nil {
			return fmt.Errorf("create game: %w", err)
		}

		score, err := applyPoints(tx, match.ID, in.WinnerID, in.Points)
		if err != nil {
			return err
		}
		if err := finishIfComplete(tx, match, score); err != nil {
			return err
		}
		game = &g
		return nil
	})
	return game, err
}

// UpdateGame reconciles an edited game against the scores: the previously
// applied amount is fully reversed against the old winner, then the new
// points are applied to the new winner. When the edit leaves a completed
// match with every score below target, completion is reverted the same way a
// deletion would revert it.
func (e *Engine) UpdateGame(gameID string, in GameInput) (*models.Game, error) {
	if in.Points <= 0 {
		return nil, validationf("points must be greater than 0")
	}

	var game *models.Game
	err := e.DB.Transaction(func(tx *gorm.DB) error {
		var g models.Game
		if err := tx.First(&g, "id = ?", gameID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("game %s not found", gameID)
			}
			return fmt.Errorf("load game: %w", err)
		}

		match, err := loadMatch(tx, g.MatchID)
		if err != nil {
			return err
		}
		if err := checkRoster(match, in.WinnerID, in.LoserID); err != nil {
			return err
		}

		oldScore, err := applyPoints(tx, g.MatchID, g.WinnerID, -g.PointsApplied)
		if err != nil {
			return err
		}
		score, err := applyPoints(tx, g.MatchID, in.WinnerID, in.Points)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"winner_id":      in.WinnerID,
			"loser_id":       in.LoserID,
			"points":         in.Points,
			"gin":            in.Gin,
			"undercut":       in.Undercut,
			"points_applied": in.Points,
		}
		if err := tx.Model(&g).Updates(updates).Error; err != nil {
			return fmt.Errorf("update game: %w", err)
		}

		// A winner change on a completed match invalidates the stored outcomes:
		// the WIN must follow whichever score is still at target. Dropping the
		// old rows lets the completion transition re-fire for the right player;
		// the old winner is checked first so a score that stayed past target
		// keeps its win.
		if match.Complete && in.WinnerID != g.WinnerID {
			if err := tx.Where("match_id = ?", match.ID).Delete(&models.Outcome{}).Error; err != nil {
				return fmt.Errorf("clear outcomes: %w", err)
			}
			if err := finishIfComplete(tx, match, oldScore); err != nil {
				return err
			}
		}
		if err := finishIfComplete(tx, match, score); err != nil {
			return err
		}
		if err := revertIfBelowTarget(tx, g.MatchID); err != nil {
			return err
		}

		g.WinnerID = in.WinnerID
		g.LoserID = in.LoserID
		g.Points = in.Points
		g.Gin = in.Gin
		g.Undercut = in.Undercut
		g.PointsApplied = in.Points
		game = &g
		return nil
	})
	return game, err
}

// DeleteGame removes a game, subtracts its applied points from the winner's
// score, and reverts match completion if no score remains at or above target.
func (e *Engine) DeleteGame(gameID string) error {
	return e.DB.Transaction(func(tx *gorm.DB) error {
		var g models.Game
		if err := tx.First(&g, "id = ?", gameID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundf("game %s not found", gameID)
			}
			return fmt.Errorf("load game: %w", err)
		}

		if _, err := applyPoints(tx, g.MatchID, g.WinnerID, -g.PointsApplied); err != nil {
			return err
		}
		if err := revertIfBelowTarget(tx, g.MatchID); err != nil {
			return err
		}
		if err := tx.Delete(&models.Game{}, "id = ?", gameID).Error; err != nil {
			return fmt.Errorf("delete game: %w", err)
		}
		return nil
	})
}

// DeleteMatch removes a match and everything hanging off it: games, scores,
// outcomes, and roster rows.
func (e *Engine) DeleteMatch(matchID string) error {
	return e.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("match_id = ?", matchID).Delete(&models.Game{}).Error; err != nil {
			return err
		}
		if err := tx.Where("match_id = ?", matchID).Delete(&models.Outcome{}).Error; err != nil {
			return err
		}
		if err := tx.Where("match_id = ?", matchID).Delete(&models.Score{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM match_players WHERE match_id = ?", matchID).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Match{}, "id = ?", matchID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return notFoundf("match %s not found", matchID)
		}
		return nil
	})
}

func loadMatch(tx *gorm.DB, id string) (*models.Match, error) {
	var match models.Match
	if err := tx.Preload("Players").First(&match, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("match %s not found", id)
		}
		return nil, fmt.Errorf("load match: %w", err)
	}
	return &match, nil
}

func onRoster(match *models.Match, playerID string) bool {
	for _, p := range match.Players {
		if p.ID == playerID {
			return true
		}
	}
	return false
}

func checkRoster(match *models.Match, winnerID, loserID string) error {
	if winnerID == "" || loserID == "" {
		return validationf("winner_id and loser_id are required")
	}
	if winnerID == loserID {
		return validationf("winner and loser must be different players")
	}
	if !onRoster(match, winnerID) {
		return conflictf("winner %s is not on the match roster", winnerID)
	}
	if !onRoster(match, loserID) {
		return conflictf("loser %s is not on the match roster", loserID)
	}
	return nil
}

// applyPoints adjusts a score in place with an atomic increment and returns
// the fresh row. The increment runs inside the caller's transaction, so the
// re-read sees the adjusted value.
func applyPoints(tx *gorm.DB, matchID, playerID string, delta int) (*models.Score, error) {
	result := tx.Model(&models.Score{}).
		Where("match_id = ? AND player_id = ?", matchID, playerID).
		Update("points", gorm.Expr("points + ?", delta))
	if result.Error != nil {
		return nil, fmt.Errorf("update score: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, notFoundf("no score for player %s in match %s", playerID, matchID)
	}

	var score models.Score
	if err := tx.Where("match_id = ? AND player_id = ?", matchID, playerID).
		First(&score).Error; err != nil {
		return nil, fmt.Errorf("reload score: %w", err)
	}
	return &score, nil
}

// finishIfComplete fires the completion transition when a freshly persisted
// score reaches the match target. The outcome-existence guard makes the
// transition fire exactly once per match.
func finishIfComplete(tx *gorm.DB, match *models.Match, score *models.Score) error {
	if score.Points < match.TargetScore {
		return nil
	}

	var existing int64
	if err := tx.Model(&models.Outcome{}).
		Where("match_id = ? AND player_id = ?", match.ID, score.PlayerID).
		Count(&existing).Error; err != nil {
		return fmt.Errorf("check outcome: %w", err)
	}
	if existing > 0 {
		return nil
	}

	var loserID string
	for _, p := range match.Players {
		if p.ID != score.PlayerID {
			loserID = p.ID
		}
	}
	if loserID == "" {
		return conflictf("match %s has no opponent on the roster", match.ID)
	}

	now := time.Now()
	if err := tx.Model(&models.Match{}).Where("id = ?", match.ID).
		Updates(map[string]interface{}{"complete": true, "ended_at": now}).Error; err != nil {
		return fmt.Errorf("finish match: %w", err)
	}

	outcomes := []models.Outcome{
		{ID: uuid.NewString(), MatchID: match.ID, PlayerID: score.PlayerID, Result: models.OutcomeWin},
		{ID: uuid.NewString(), MatchID: match.ID, PlayerID: loserID, Result: models.OutcomeLoss},
	}
	if err := tx.Create(&outcomes).Error; err != nil {
		return fmt.Errorf("create outcomes: %w", err)
	}

	match.Complete = true
	match.EndedAt = &now
	return nil
}

// revertIfBelowTarget re-reads the match and its scores from storage and, if
// the match is complete but no score remains at or above target, reopens it
// and deletes the outcomes. Scores that stayed past target keep the match
// finished.
func revertIfBelowTarget(tx *gorm.DB, matchID string) error {
	var match models.Match
	if err := tx.First(&match, "id = ?", matchID).Error; err != nil {
		return fmt.Errorf("reload match: %w", err)
	}
	if !match.Complete {
		return nil
	}

	var scores []models.Score
	if err := tx.Where("match_id = ?", matchID).Find(&scores).Error; err != nil {
		return fmt.Errorf("reload scores: %w", err)
	}
	for _, s := range scores {
		if s.Points >= match.TargetScore {
			return nil
		}
	}

	if err := tx.Model(&models.Match{}).Where("id = ?", matchID).
		Updates(map[string]interface{}{"complete": false, "ended_at": nil}).Error; err != nil {
		return fmt.Errorf("reopen match: %w", err)
	}
	if err := tx.Where("match_id = ?", matchID).Delete(&models.Outcome{}).Error; err != nil {
		return fmt.Errorf("delete outcomes: %w", err)
	}
	return nil
}
