package seeder

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"pokerlog/internal/sessions"
	"pokerlog/internal/users"
)

const (
	DefaultEmail    = "demo@example.com"
	DefaultName     = "Demo Player"
	DefaultPassword = "demo-password"
)

type venue struct {
	name string
	kind sessions.LocationType
}

var (
	gameTypes = []string{"No Limit Hold'em", "Pot Limit Omaha", "Limit Hold'em", "Seven Card Stud"}
	blinds    = []string{"1/2", "1/3", "2/5", "5/10"}
	venues    = []venue{
		{"Bellagio", sessions.LocationTypeCasino},
		{"Aria", sessions.LocationTypeCasino},
		{"Commerce Casino", sessions.LocationTypeCasino},
		{"Mike's place", sessions.LocationTypeHome},
		{"Friday home game", sessions.LocationTypeHome},
	}
)

// Seeder fills a user's history with plausible demo sessions.
type Seeder struct {
	DBManager    cartridge.DBManager
	Logger       *slog.Logger
	SessionCount int

	rng *rand.Rand
	now func() time.Time
}

// NewSeeder creates a new seeder instance
func NewSeeder(dbManager cartridge.DBManager, logger *slog.Logger, sessionCount int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		DBManager:    dbManager,
		Logger:       logger,
		SessionCount: sessionCount,
		rng:          rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
		now:          time.Now,
	}
}

// WithSeed makes the generated sessions reproducible.
func (s *Seeder) WithSeed(seed uint64) *Seeder {
	s.rng = rand.New(rand.NewPCG(seed, seed))
	return s
}

// Run ensures the demo user exists and adds SessionCount sessions spread
// over the past year.
func (s *Seeder) Run(ctx context.Context, email, name, password string) (*users.User, error) {
	start := s.now()
	s.Logger.Info("Starting database seeding...", slog.Int("session_count", s.SessionCount))

	user, err := s.seedUser(email, name, password)
	if err != nil {
		return nil, fmt.Errorf("failed to seed user: %w", err)
	}

	created, err := s.seedSessions(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to seed sessions: %w", err)
	}

	s.Logger.Info("Seeding completed successfully",
		slog.String("email", user.Email),
		slog.Int("sessions", created),
		slog.Duration("elapsed", time.Since(start)))
	return user, nil
}

// seedUser returns the existing user for email or registers one.
func (s *Seeder) seedUser(email, name, password string) (*users.User, error) {
	db := s.DBManager.GetConnection()

	user, err := users.FindByEmail(db, email)
	if err == nil {
		s.Logger.Info("Seed user already exists", slog.String("email", user.Email))
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check for existing user: %w", err)
	}

	s.Logger.Info("Creating seed user", slog.String("email", email))
	return users.Register(db, email, password, name)
}

func (s *Seeder) seedSessions(ctx context.Context, userID uint) (int, error) {
	db := s.DBManager.GetConnection()
	now := s.now().UTC()

	created := 0
	for i := 0; i < s.SessionCount; i++ {
		if err := ctx.Err(); err != nil {
			return created, err
		}

		in := s.randomInput(now)
		if _, err := sessions.Create(db, userID, in, time.UTC); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// randomInput draws one session from the past 365 days. Buy-ins scale with
// the blinds and results swing around a small positive edge.
func (s *Seeder) randomInput(now time.Time) sessions.Input {
	v := venues[s.rng.IntN(len(venues))]
	stakeIndex := s.rng.IntN(len(blinds))
	if v.kind == sessions.LocationTypeHome {
		stakeIndex = 0
	}

	buyIn := float64(100 * (stakeIndex + 1) * (2 + s.rng.IntN(3)))
	swing := s.rng.NormFloat64()*buyIn*0.8 + buyIn*0.05
	endAmount := buyIn + swing
	if endAmount < 0 {
		endAmount = 0
	}
	hours := 1 + float64(s.rng.IntN(16))*0.5

	played := now.AddDate(0, 0, -s.rng.IntN(365)).
		Truncate(24 * time.Hour).
		Add(time.Duration(12+s.rng.IntN(10)) * time.Hour)

	return sessions.Input{
		GameType:     gameTypes[s.rng.IntN(len(gameTypes))],
		Blinds:       blinds[stakeIndex],
		Location:     v.name,
		LocationType: string(v.kind),
		BuyIn:        decimal.NewFromFloat(buyIn),
		EndAmount:    decimal.NewFromFloat(endAmount).Round(0),
		Duration:     decimal.NewFromFloat(hours),
		Timestamp:    played.Format(time.RFC3339),
	}
}
