// Package sessions stores poker sessions. Every query is scoped to the owning
// user, and winnings are recomputed from buy-in and end amount on each write.
package sessions

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"pokerlog/internal/analytics"
	"pokerlog/internal/timeframe"
)

// LocationType says where a session was played.
type LocationType string

const (
	LocationTypeHome   LocationType = "home"
	LocationTypeCasino LocationType = "casino"
)

// ValidLocationTypes returns all valid location types
func ValidLocationTypes() []LocationType {
	return []LocationType{LocationTypeHome, LocationTypeCasino}
}

// IsValidLocationType checks if the given type is valid
func IsValidLocationType(t LocationType) bool {
	for _, valid := range ValidLocationTypes() {
		if t == valid {
			return true
		}
	}
	return false
}

// Session is one recorded poker session.
type Session struct {
	ID           uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       uint            `gorm:"not null;index:idx_poker_sessions_user_timestamp,priority:1" json:"user_id"`
	GameType     string          `gorm:"not null;size:100" json:"game_type"`
	Blinds       string          `gorm:"size:50" json:"blinds"`
	Location     string          `gorm:"size:255" json:"location"`
	LocationType LocationType    `gorm:"size:20;default:'casino'" json:"location_type"`
	BuyIn        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"buy_in"`
	EndAmount    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"end_amount"`
	Winnings     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"winnings"`
	Duration     decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"duration"`
	Notes        string          `gorm:"type:text" json:"notes"`
	Timestamp    time.Time       `gorm:"not null;index:idx_poker_sessions_user_timestamp,priority:2" json:"timestamp"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Session) TableName() string {
	return "poker_sessions"
}

// Record converts the row into the aggregator's record shape.
func (s Session) Record() analytics.Record {
	return analytics.Record{
		ID:           s.ID,
		UserID:       s.UserID,
		GameType:     s.GameType,
		Blinds:       s.Blinds,
		Location:     s.Location,
		LocationType: string(s.LocationType),
		BuyIn:        analytics.Number(s.BuyIn.InexactFloat64()),
		EndAmount:    analytics.Number(s.EndAmount.InexactFloat64()),
		Winnings:     analytics.Number(s.Winnings.InexactFloat64()),
		Duration:     analytics.Number(s.Duration.InexactFloat64()),
		Notes:        s.Notes,
		Timestamp:    s.Timestamp.UTC().Format(time.RFC3339),
	}
}

// Records converts rows for the aggregator, keeping their order.
func Records(rows []Session) []analytics.Record {
	records := make([]analytics.Record, len(rows))
	for i, s := range rows {
		records[i] = s.Record()
	}
	return records
}

// ErrSessionNotFound is returned when a session does not exist or belongs
// to another user.
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidSession matches every ValidationError.
var ErrInvalidSession = errors.New("invalid session")

// ValidationError carries a message fit to show the client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidSession
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Input holds the client-editable fields of a session. Winnings are not
// accepted; they always follow from BuyIn and EndAmount.
type Input struct {
	GameType     string          `json:"gameType" yaml:"game_type"`
	Blinds       string          `json:"blinds" yaml:"blinds"`
	Location     string          `json:"location" yaml:"location"`
	LocationType string          `json:"locationType" yaml:"location_type"`
	BuyIn        decimal.Decimal `json:"buyIn" yaml:"buy_in"`
	EndAmount    decimal.Decimal `json:"endAmount" yaml:"end_amount"`
	Duration     decimal.Decimal `json:"duration" yaml:"duration"`
	Notes        string          `json:"notes" yaml:"notes"`
	Timestamp    string          `json:"timestamp" yaml:"timestamp"`
}

// apply validates in and copies it onto s, recomputing winnings. Bare dates
// are pinned to midday in loc.
func (in Input) apply(s *Session, loc *time.Location) error {
	if strings.TrimSpace(in.Timestamp) == "" {
		return invalid("timestamp (YYYY-MM-DD or ISO) is required")
	}
	ts, err := timeframe.ParseTimestamp(in.Timestamp, loc)
	if err != nil {
		return invalid("timestamp %q is not a YYYY-MM-DD date or ISO 8601 date-time", in.Timestamp)
	}

	gameType := strings.TrimSpace(in.GameType)
	if gameType == "" {
		return invalid("gameType is required")
	}

	locationType := LocationType(strings.ToLower(strings.TrimSpace(in.LocationType)))
	if locationType == "" {
		locationType = LocationTypeCasino
	}
	if !IsValidLocationType(locationType) {
		return invalid("locationType must be one of home, casino")
	}

	if in.BuyIn.IsNegative() {
		return invalid("buyIn cannot be negative")
	}
	if in.EndAmount.IsNegative() {
		return invalid("endAmount cannot be negative")
	}
	if in.Duration.IsNegative() {
		return invalid("duration cannot be negative")
	}

	buyIn := in.BuyIn.Round(2)
	endAmount := in.EndAmount.Round(2)

	s.GameType = gameType
	s.Blinds = strings.TrimSpace(in.Blinds)
	s.Location = strings.TrimSpace(in.Location)
	s.LocationType = locationType
	s.BuyIn = buyIn
	s.EndAmount = endAmount
	s.Winnings = endAmount.Sub(buyIn)
	s.Duration = in.Duration.Round(2)
	s.Notes = in.Notes
	s.Timestamp = ts.UTC()
	return nil
}

// List returns the user's sessions, newest first.
func List(db *gorm.DB, userID uint) ([]Session, error) {
	var rows []Session
	err := db.Where("user_id = ?", userID).
		Order("timestamp DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Get returns one of the user's sessions.
func Get(db *gorm.DB, userID, id uint) (*Session, error) {
	var s Session
	err := db.Where("id = ? AND user_id = ?", id, userID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create stores a new session for the user.
func Create(db *gorm.DB, userID uint, in Input, loc *time.Location) (*Session, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}

	s := Session{UserID: userID}
	if err := in.apply(&s, loc); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now

	err := sqlite.PerformWrite(slog.Default(), db, func(tx *gorm.DB) error {
		return tx.Create(&s).Error
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Update replaces the mutable fields of one of the user's sessions.
func Update(db *gorm.DB, userID, id uint, in Input, loc *time.Location) (*Session, error) {
	s, err := Get(db, userID, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(s, loc); err != nil {
		return nil, err
	}
	s.UpdatedAt = time.Now().UTC()

	// Only update specific fields to prevent overwriting user_id
	err = sqlite.PerformWrite(slog.Default(), db, func(tx *gorm.DB) error {
		return tx.Model(s).
			Select("game_type", "blinds", "location", "location_type", "buy_in", "end_amount",
				"winnings", "duration", "notes", "timestamp", "updated_at").
			Updates(s).Error
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Delete removes one of the user's sessions.
func Delete(db *gorm.DB, userID, id uint) error {
	var rowsAffected int64
	err := sqlite.PerformWrite(slog.Default(), db, func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&Session{})
		rowsAffected = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Count returns how many sessions a user has; userID 0 counts every user.
func Count(db *gorm.DB, userID uint) (int64, error) {
	q := db.Model(&Session{})
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}
