package services

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/theletterjeff/gin-rummy-scoresheet/models"
	"github.com/theletterjeff/gin-rummy-scoresheet/scoring"
)

type GameService struct {
	DB     *gorm.DB
	Engine *scoring.Engine
}

func NewGameService(db *gorm.DB, engine *scoring.Engine) *GameService {
	return &GameService{DB: db, Engine: engine}
}

// CreateGame records one hand for a match and lets the engine push the points
// onto the winner's score (and finish the match if the score crossed target).
func (s *GameService) CreateGame(c *fiber.Ctx) error {
	matchID := c.Params("id")
	type Req struct {
		WinnerID string `json:"winner_id"`
		LoserID  string `json:"loser_id"`
		Points   int    `json:"points"`
		Gin      bool   `json:"gin"`
		Undercut bool   `json:"undercut"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	in := scoring.GameInput{
		MatchID:  matchID,
		WinnerID: req.WinnerID,
		LoserID:  req.LoserID,
		Points:   req.Points,
		Gin:      req.Gin,
		Undercut: req.Undercut,
	}
	if userID, ok := c.Locals("user_id").(string); ok {
		in.CreatedBy = userID
	}

	game, err := s.Engine.RecordGame(in)
	if err != nil {
		return domainError(c, err)
	}
	return c.Status(201).JSON(game)
}

func (s *GameService) GetGamesByMatch(c *fiber.Ctx) error {
	matchID := c.Params("id")
	if err := s.DB.First(&models.Match{}, "id = ?", matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "match not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	var games []models.Game
	if err := s.DB.Where("match_id = ?", matchID).
		Order("played_at ASC").
		Find(&games).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch games"})
	}
	return c.JSON(games)
}

func (s *GameService) GetGameByID(c *fiber.Ctx) error {
	var game models.Game
	if err := s.DB.First(&game, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "game not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(game)
}

// UpdateGame accepts a partial body, merges it over the stored game, and hands
// the full desired state to the engine so the reconciliation never sees a
// half-filled input.
func (s *GameService) UpdateGame(c *fiber.Ctx) error {
	gameID := c.Params("id")
	type Req struct {
		WinnerID *string `json:"winner_id,omitempty"`
		LoserID  *string `json:"loser_id,omitempty"`
		Points   *int    `json:"points,omitempty"`
		Gin      *bool   `json:"gin,omitempty"`
		Undercut *bool   `json:"undercut,omitempty"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	var existing models.Game
	if err := s.DB.First(&existing, "id = ?", gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "game not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	in := scoring.GameInput{
		MatchID:  existing.MatchID,
		WinnerID: existing.WinnerID,
		LoserID:  existing.LoserID,
		Points:   existing.Points,
		Gin:      existing.Gin,
		Undercut: existing.Undercut,
	}
	if req.WinnerID != nil {
		in.WinnerID = *req.WinnerID
	}
	if req.LoserID != nil {
		in.LoserID = *req.LoserID
	}
	if req.Points != nil {
		in.Points = *req.Points
	}
	if req.Gin != nil {
		in.Gin = *req.Gin
	}
	if req.Undercut != nil {
		in.Undercut = *req.Undercut
	}

	game, err := s.Engine.UpdateGame(gameID, in)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(game)
}

func (s *GameService) DeleteGame(c *fiber.Ctx) error {
	if err := s.Engine.DeleteGame(c.Params("id")); err != nil {
		return domainError(c, err)
	}
	return c.JSON(fiber.Map{"message": "game deleted"})
}
