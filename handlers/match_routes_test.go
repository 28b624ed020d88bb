package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/theletterjeff/gin-rummy-scoresheet/models"
	"github.com/theletterjeff/gin-rummy-scoresheet/scoring"
	"github.com/theletterjeff/gin-rummy-scoresheet/services"
)

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	err = db.AutoMigrate(
		&models.Player{},
		&models.Match{},
		&models.Score{},
		&models.Outcome{},
		&models.Game{},
		&models.PlayerStanding{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	engine := scoring.NewEngine(db)
	app := fiber.New()
	SetupPlayerRoutes(app, services.NewPlayerService(db))
	SetupMatchRoutes(app, services.NewMatchService(db, engine), services.NewGameService(db, engine))
	SetupStandingsRoutes(app, services.NewStandingsService(db))
	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "test-user")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	resp.Body.Close()
	return resp, raw
}

func seedRoster(t *testing.T, db *gorm.DB) (models.Player, models.Player) {
	t.Helper()
	alice := models.Player{ID: uuid.NewString(), Username: "alice", IsActive: true}
	bob := models.Player{ID: uuid.NewString(), Username: "bob", IsActive: true}
	if err := db.Create(&alice).Error; err != nil {
		t.Fatalf("create alice: %v", err)
	}
	if err := db.Create(&bob).Error; err != nil {
		t.Fatalf("create bob: %v", err)
	}
	return alice, bob
}

func TestRecordGameToCompletionFlow(t *testing.T) {
	app, db := newTestApp(t)
	alice, bob := seedRoster(t, db)

	resp, raw := doJSON(t, app, "POST", "/matches",
		fmt.Sprintf(`{"players": [%q, %q]}`, alice.ID, bob.ID))
	if resp.StatusCode != 201 {
		t.Fatalf("create match: status %d — %s", resp.StatusCode, raw)
	}
	var match models.Match
	if err := json.Unmarshal(raw, &match); err != nil {
		t.Fatalf("decode match: %v", err)
	}
	if match.TargetScore != models.DefaultTargetScore {
		t.Errorf("target_score = %d, want default %d", match.TargetScore, models.DefaultTargetScore)
	}
	if len(match.Scores) != 2 {
		t.Fatalf("scores on new match = %d, want 2", len(match.Scores))
	}

	resp, raw = doJSON(t, app, "POST", "/matches/"+match.ID+"/games",
		fmt.Sprintf(`{"winner_id": %q, "loser_id": %q, "points": 450}`, alice.ID, bob.ID))
	if resp.StatusCode != 201 {
		t.Fatalf("first game: status %d — %s", resp.StatusCode, raw)
	}

	resp, raw = doJSON(t, app, "POST", "/matches/"+match.ID+"/games",
		fmt.Sprintf(`{"winner_id": %q, "loser_id": %q, "points": 60, "gin": true}`, alice.ID, bob.ID))
	if resp.StatusCode != 201 {
		t.Fatalf("second game: status %d — %s", resp.StatusCode, raw)
	}
	var finishing models.Game
	if err := json.Unmarshal(raw, &finishing); err != nil {
		t.Fatalf("decode game: %v", err)
	}

	resp, raw = doJSON(t, app, "GET", "/matches/"+match.ID, "")
	if resp.StatusCode != 200 {
		t.Fatalf("get match: status %d", resp.StatusCode)
	}
	var got models.Match
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode match detail: %v", err)
	}
	if !got.Complete {
		t.Errorf("match not complete at 510 points")
	}
	if got.EndedAt == nil {
		t.Errorf("ended_at missing on completed match")
	}
	if len(got.Outcomes) != 2 {
		t.Errorf("outcomes = %d, want 2", len(got.Outcomes))
	}

	// deleting the finishing game reopens the match
	resp, _ = doJSON(t, app, "DELETE", "/games/"+finishing.ID, "")
	if resp.StatusCode != 200 {
		t.Fatalf("delete game: status %d", resp.StatusCode)
	}
	_, raw = doJSON(t, app, "GET", "/matches/"+match.ID, "")
	got = models.Match{}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode reopened match: %v", err)
	}
	if got.Complete {
		t.Errorf("match still complete after finishing game deleted")
	}
	if len(got.Outcomes) != 0 {
		t.Errorf("outcomes = %d after reversal, want 0", len(got.Outcomes))
	}
}

func TestGameValidationOverHTTP(t *testing.T) {
	app, db := newTestApp(t)
	alice, bob := seedRoster(t, db)

	_, raw := doJSON(t, app, "POST", "/matches",
		fmt.Sprintf(`{"players": [%q, %q]}`, alice.ID, bob.ID))
	var match models.Match
	if err := json.Unmarshal(raw, &match); err != nil {
		t.Fatalf("decode match: %v", err)
	}

	tests := []struct {
		name string
		body string
		want int
	}{
		{
			name: "non-positive points",
			body: fmt.Sprintf(`{"winner_id": %q, "loser_id": %q, "points": 0}`, alice.ID, bob.ID),
			want: 400,
		},
		{
			name: "winner off roster",
			body: fmt.Sprintf(`{"winner_id": %q, "loser_id": %q, "points": 25}`, uuid.NewString(), bob.ID),
			want: 409,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, raw := doJSON(t, app, "POST", "/matches/"+match.ID+"/games", tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d — %s", resp.StatusCode, tt.want, raw)
			}
		})
	}

	// unknown match is a 404
	resp, _ := doJSON(t, app, "POST", "/matches/"+uuid.NewString()+"/games",
		fmt.Sprintf(`{"winner_id": %q, "loser_id": %q, "points": 25}`, alice.ID, bob.ID))
	if resp.StatusCode != 404 {
		t.Errorf("unknown match: status = %d, want 404", resp.StatusCode)
	}
}

func TestCreateMatchFailureLeavesNothingBehind(t *testing.T) {
	app, db := newTestApp(t)
	alice, _ := seedRoster(t, db)

	resp, raw := doJSON(t, app, "POST", "/matches",
		fmt.Sprintf(`{"players": [%q, %q]}`, alice.ID, uuid.NewString()))
	if resp.StatusCode != 404 {
		t.Fatalf("status = %d, want 404 — %s", resp.StatusCode, raw)
	}

	// a rejected creation must not leave a match or any scores visible
	var matches, scores int64
	db.Model(&models.Match{}).Count(&matches)
	db.Model(&models.Score{}).Count(&scores)
	if matches != 0 || scores != 0 {
		t.Errorf("rows after rejected creation: matches=%d scores=%d, want all 0", matches, scores)
	}
}

func TestUpdatePlayerReturnsFreshState(t *testing.T) {
	app, db := newTestApp(t)
	alice, _ := seedRoster(t, db)

	resp, raw := doJSON(t, app, "PATCH", "/players/"+alice.Username,
		`{"first_name": "Alice", "is_active": false}`)
	if resp.StatusCode != 200 {
		t.Fatalf("update player: status %d — %s", resp.StatusCode, raw)
	}
	var got models.Player
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode player: %v", err)
	}
	if got.FirstName == nil || *got.FirstName != "Alice" {
		t.Errorf("first_name not reflected in response")
	}
	if got.IsActive {
		t.Errorf("is_active = true in response, want false")
	}
}

func TestSecuredRoutesRequireUserContext(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest("POST", "/matches", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 401 {
		t.Errorf("status without X-User-ID = %d, want 401", resp.StatusCode)
	}
}
