package services

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/theletterjeff/gin-rummy-scoresheet/models"
)

type PlayerService struct {
	DB *gorm.DB
}

func NewPlayerService(db *gorm.DB) *PlayerService {
	return &PlayerService{DB: db}
}

func (s *PlayerService) CreatePlayer(c *fiber.Ctx) error {
	type Req struct {
		Username  string  `json:"username"`
		FirstName *string `json:"first_name,omitempty"`
		LastName  *string `json:"last_name,omitempty"`
		Email     string  `json:"email,omitempty"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		return c.Status(400).JSON(fiber.Map{"error": "username is required"})
	}

	var existing models.Player
	if err := s.DB.Where("username = ?", req.Username).First(&existing).Error; err == nil {
		return c.Status(409).JSON(fiber.Map{"error": "username already taken"})
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	player := models.Player{
		ID:        uuid.NewString(),
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		IsActive:  true,
	}
	if err := s.DB.Create(&player).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to create player"})
	}
	return c.Status(201).JSON(player)
}

func (s *PlayerService) GetAllPlayers(c *fiber.Ctx) error {
	var players []models.Player
	if err := s.DB.Order("username ASC").Find(&players).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch players"})
	}
	return c.JSON(players)
}

func (s *PlayerService) GetPlayerByUsername(c *fiber.Ctx) error {
	username := c.Params("username")
	var player models.Player
	err := s.DB.Preload("Matches", func(db *gorm.DB) *gorm.DB {
		return db.Order("started_at DESC")
	}).Where("username = ?", username).First(&player).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "player not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(player)
}

func (s *PlayerService) UpdatePlayer(c *fiber.Ctx) error {
	username := c.Params("username")
	type Req struct {
		FirstName *string `json:"first_name,omitempty"`
		LastName  *string `json:"last_name,omitempty"`
		Email     *string `json:"email,omitempty"`
		IsActive  *bool   `json:"is_active,omitempty"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	var player models.Player
	if err := s.DB.Where("username = ?", username).First(&player).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "player not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) > 0 {
		if err := s.DB.Model(&player).Updates(updates).Error; err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "update failed"})
		}
	}

	if err := s.DB.Where("username = ?", username).First(&player).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(player)
}
