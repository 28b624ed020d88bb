package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/theletterjeff/gin-rummy-scoresheet/models"
)

// StandingsService maintains the denormalized per-player win/loss records the
// profile pages read. The table is rebuilt from Outcomes and Games, never
// written incrementally, so a refresh always converges on the truth.
type StandingsService struct {
	DB *gorm.DB
}

func NewStandingsService(db *gorm.DB) *StandingsService {
	return &StandingsService{DB: db}
}

// standingRow matches the aggregate query below.
type standingRow struct {
	PlayerID      string
	Username      string
	MatchesPlayed int64
	MatchesWon    int64
	MatchesLost   int64
	GamesWon      int64
	GamesLost     int64
	PointsScored  int64
}

// Recompute rebuilds every PlayerStanding row in one transaction.
func (s *StandingsService) Recompute() error {
	query := `
        SELECT
            p.id AS player_id,
            p.username,
            (SELECT COUNT(*) FROM scores sc WHERE sc.player_id = p.id)                        AS matches_played,
            (SELECT COUNT(*) FROM outcomes o WHERE o.player_id = p.id AND o.result = 'win')   AS matches_won,
            (SELECT COUNT(*) FROM outcomes o WHERE o.player_id = p.id AND o.result = 'loss')  AS matches_lost,
            (SELECT COUNT(*) FROM games g WHERE g.winner_id = p.id)                           AS games_won,
            (SELECT COUNT(*) FROM games g WHERE g.loser_id = p.id)                            AS games_lost,
            (SELECT COALESCE(SUM(sc.points), 0) FROM scores sc WHERE sc.player_id = p.id)     AS points_scored
        FROM players p
    `
	now := time.Now()
	return s.DB.Transaction(func(tx *gorm.DB) error {
		// the read runs inside the same transaction as the rebuild so a write
		// landing in between cannot produce a half-stale snapshot
		var rows []standingRow
		if err := tx.Raw(query).Scan(&rows).Error; err != nil {
			return fmt.Errorf("aggregate standings: %w", err)
		}

		if err := tx.Where("1 = 1").Delete(&models.PlayerStanding{}).Error; err != nil {
			return fmt.Errorf("clear standings: %w", err)
		}
		for _, row := range rows {
			standing := models.PlayerStanding{
				ID:            uuid.NewString(),
				PlayerID:      row.PlayerID,
				Username:      row.Username,
				MatchesPlayed: row.MatchesPlayed,
				MatchesWon:    row.MatchesWon,
				MatchesLost:   row.MatchesLost,
				GamesWon:      row.GamesWon,
				GamesLost:     row.GamesLost,
				PointsScored:  row.PointsScored,
				ComputedAt:    now,
			}
			if err := tx.Create(&standing).Error; err != nil {
				return fmt.Errorf("insert standing for %s: %w", row.Username, err)
			}
		}
		return nil
	})
}

// StartScheduler refreshes the standings on an interval until the process
// shuts down.
func (s *StandingsService) StartScheduler(interval time.Duration) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := s.Recompute(); err != nil {
				log.Printf("[Standings] refresh failed: %v", err)
			}
		}),
	)
}

func (s *StandingsService) GetStandings(c *fiber.Ctx) error {
	var standings []models.PlayerStanding
	err := s.DB.
		Order("matches_won DESC").
		Order("points_scored DESC").
		Order("username ASC").
		Find(&standings).Error
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch standings"})
	}
	return c.JSON(standings)
}

func (s *StandingsService) GetStandingByUsername(c *fiber.Ctx) error {
	var standing models.PlayerStanding
	err := s.DB.Where("username = ?", c.Params("username")).First(&standing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "no standing for that player"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(standing)
}

// RefreshStandings recomputes on demand (admin endpoint).
func (s *StandingsService) RefreshStandings(c *fiber.Ctx) error {
	if err := s.Recompute(); err != nil {
		log.Printf("ERROR recomputing standings: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "refresh failed"})
	}
	return s.GetStandings(c)
}
