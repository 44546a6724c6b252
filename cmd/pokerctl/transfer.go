package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"pokerlog/internal/sessions"
	"pokerlog/internal/users"
)

// sessionArchive is the YAML layout shared by export and import. Amounts
// are strings so no precision is lost on the way through.
type sessionArchive struct {
	Email      string          `yaml:"email"`
	ExportedAt string          `yaml:"exported_at"`
	Sessions   []archivedEntry `yaml:"sessions"`
}

type archivedEntry struct {
	GameType     string `yaml:"game_type"`
	Blinds       string `yaml:"blinds,omitempty"`
	Location     string `yaml:"location,omitempty"`
	LocationType string `yaml:"location_type"`
	BuyIn        string `yaml:"buy_in"`
	EndAmount    string `yaml:"end_amount"`
	Winnings     string `yaml:"winnings,omitempty"`
	Duration     string `yaml:"duration"`
	Notes        string `yaml:"notes,omitempty"`
	Timestamp    string `yaml:"timestamp"`
}

func exportSessions(db *gorm.DB, user *users.User, w io.Writer, now time.Time) (int, error) {
	rows, err := sessions.List(db, user.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	archive := sessionArchive{
		Email:      user.Email,
		ExportedAt: now.UTC().Format(time.RFC3339),
		Sessions:   make([]archivedEntry, 0, len(rows)),
	}
	for _, s := range rows {
		archive.Sessions = append(archive.Sessions, archivedEntry{
			GameType:     s.GameType,
			Blinds:       s.Blinds,
			Location:     s.Location,
			LocationType: string(s.LocationType),
			BuyIn:        s.BuyIn.String(),
			EndAmount:    s.EndAmount.String(),
			Winnings:     s.Winnings.String(),
			Duration:     s.Duration.String(),
			Notes:        s.Notes,
			Timestamp:    s.Timestamp.UTC().Format(time.RFC3339),
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(archive); err != nil {
		return 0, fmt.Errorf("failed to encode sessions: %w", err)
	}
	return len(rows), enc.Close()
}

// importSessions decodes an archive and stores each entry for userID.
// Archived winnings are ignored. Nothing is written when an amount fails
// to parse; a store error stops the import after the rows already written.
func importSessions(ctx context.Context, db *gorm.DB, userID uint, r io.Reader, loc *time.Location) (int, error) {
	var archive sessionArchive
	if err := yaml.NewDecoder(r).Decode(&archive); err != nil {
		return 0, fmt.Errorf("failed to decode archive: %w", err)
	}

	inputs := make([]sessions.Input, 0, len(archive.Sessions))
	for i, e := range archive.Sessions {
		in, err := e.input()
		if err != nil {
			return 0, fmt.Errorf("session %d: %w", i+1, err)
		}
		inputs = append(inputs, in)
	}

	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if _, err := sessions.Create(db, userID, in, loc); err != nil {
			return i, fmt.Errorf("session %d: %w", i+1, err)
		}
	}
	return len(inputs), nil
}

func (e archivedEntry) input() (sessions.Input, error) {
	amounts := map[string]string{"buy_in": e.BuyIn, "end_amount": e.EndAmount, "duration": e.Duration}
	parsed := make(map[string]decimal.Decimal, len(amounts))
	for field, raw := range amounts {
		if raw == "" {
			parsed[field] = decimal.Zero
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return sessions.Input{}, fmt.Errorf("%s %q is not a number", field, raw)
		}
		parsed[field] = d
	}

	return sessions.Input{
		GameType:     e.GameType,
		Blinds:       e.Blinds,
		Location:     e.Location,
		LocationType: e.LocationType,
		BuyIn:        parsed["buy_in"],
		EndAmount:    parsed["end_amount"],
		Duration:     parsed["duration"],
		Notes:        e.Notes,
		Timestamp:    e.Timestamp,
	}, nil
}
