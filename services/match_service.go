package services

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/theletterjeff/gin-rummy-scoresheet/models"
	"github.com/theletterjeff/gin-rummy-scoresheet/scoring"
)

type MatchService struct {
	DB     *gorm.DB
	Engine *scoring.Engine
}

func NewMatchService(db *gorm.DB, engine *scoring.Engine) *MatchService {
	return &MatchService{DB: db, Engine: engine}
}

func (s *MatchService) CreateMatch(c *fiber.Ctx) error {
	type Req struct {
		TargetScore *int     `json:"target_score,omitempty"`
		Players     []string `json:"players,omitempty"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	targetScore := models.DefaultTargetScore
	if req.TargetScore != nil {
		if *req.TargetScore <= 0 {
			return c.Status(400).JSON(fiber.Map{"error": "target_score must be greater than 0"})
		}
		targetScore = *req.TargetScore
	}
	if len(req.Players) > 2 {
		return c.Status(400).JSON(fiber.Map{"error": "a match takes at most 2 players"})
	}
	if len(req.Players) == 2 && req.Players[0] == req.Players[1] {
		return c.Status(400).JSON(fiber.Map{"error": "a match needs two different players"})
	}
	if len(req.Players) > 0 {
		var known int64
		if err := s.DB.Model(&models.Player{}).Where("id IN ?", req.Players).Count(&known).Error; err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "DB error"})
		}
		if known != int64(len(req.Players)) {
			return c.Status(404).JSON(fiber.Map{"error": "one or more players not found"})
		}
	}

	match := models.Match{
		ID:          uuid.NewString(),
		TargetScore: targetScore,
	}
	if userID, ok := c.Locals("user_id").(string); ok && userID != "" {
		match.CreatedBy = &userID
	}
	// the match row and its roster land together or not at all; a rejected
	// player must not leave a half-rostered match behind
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&match).Error; err != nil {
			return err
		}
		eng := scoring.NewEngine(tx)
		for _, playerID := range req.Players {
			if _, err := eng.AddPlayer(match.ID, playerID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domainError(c, err)
	}

	if err := s.DB.Preload("Players").Preload("Scores").First(&match, "id = ?", match.ID).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.Status(201).JSON(match)
}

func (s *MatchService) GetAllMatches(c *fiber.Ctx) error {
	var matches []models.Match
	err := s.DB.
		Preload("Players").
		Preload("Scores").
		Order("started_at DESC").
		Find(&matches).Error
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch matches"})
	}
	return c.JSON(matches)
}

func (s *MatchService) GetMatchByID(c *fiber.Ctx) error {
	id := c.Params("id")
	var match models.Match
	err := s.DB.
		Preload("Players").
		Preload("Scores.Player").
		Preload("Outcomes.Player").
		Preload("Games", func(db *gorm.DB) *gorm.DB {
			return db.Order("played_at ASC")
		}).
		First(&match, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "match not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(match)
}

// AddPlayer puts a player on the match roster and creates their zero score.
func (s *MatchService) AddPlayer(c *fiber.Ctx) error {
	matchID := c.Params("id")
	type Req struct {
		PlayerID string `json:"player_id"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.PlayerID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "player_id is required"})
	}

	score, err := s.Engine.AddPlayer(matchID, req.PlayerID)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(201).JSON(score)
}

func (s *MatchService) DeleteMatch(c *fiber.Ctx) error {
	if err := s.Engine.DeleteMatch(c.Params("id")); err != nil {
		return domainError(c, err)
	}
	return c.JSON(fiber.Map{"message": "match deleted"})
}
