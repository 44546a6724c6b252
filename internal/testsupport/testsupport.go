package testsupport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	ctestsupport "github.com/karloscodes/cartridge/testsupport"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pokerlog/internal"
	"pokerlog/internal/auth"
	"pokerlog/internal/config"
	"pokerlog/internal/sessions"
	"pokerlog/internal/users"
)

// testDBCache caches test databases by test name to allow multiple calls
// within the same test to share the same database
var testDBCache = make(map[string]*gorm.DB)
var testDBCacheMu sync.Mutex

// TestDBManager wraps cartridge's TestDBManager
type TestDBManager struct {
	*ctestsupport.TestDBManager
}

// NewTestDBManager creates a TestDBManager that implements cartridge.DBManager
func NewTestDBManager(db *gorm.DB) *TestDBManager {
	return &TestDBManager{
		TestDBManager: ctestsupport.NewTestDBManager(db),
	}
}

// Ensure TestDBManager implements cartridge.DBManager
var _ cartridge.DBManager = (*TestDBManager)(nil)

// allModels returns all models for migration
func allModels() []any {
	return []any{
		&users.User{},
		&sessions.Session{},
	}
}

// SetupTestDB creates a test database with all models migrated.
// Uses a named in-memory database with cache=shared so every connection of
// one test sees the same data. Calls within the same root test share it.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testName := t.Name()

	rootName := testName
	if idx := strings.Index(testName, "/"); idx > 0 {
		rootName = testName[:idx]
	}

	testDBCacheMu.Lock()
	if db, exists := testDBCache[rootName]; exists {
		testDBCacheMu.Unlock()
		return db
	}
	testDBCacheMu.Unlock()

	sanitizedName := strings.ReplaceAll(rootName, "/", "_")
	dsn := fmt.Sprintf("file:test_%s_%d?mode=memory&cache=shared", sanitizedName, time.Now().UnixNano())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("testsupport: failed to open test database: %v", err)
	}

	db.Exec("PRAGMA foreign_keys = ON")

	if err := db.AutoMigrate(allModels()...); err != nil {
		t.Fatalf("testsupport: failed to migrate models: %v", err)
	}

	testDBCacheMu.Lock()
	testDBCache[rootName] = db
	testDBCacheMu.Unlock()

	t.Cleanup(func() {
		testDBCacheMu.Lock()
		delete(testDBCache, rootName)
		testDBCacheMu.Unlock()
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// UseTestConfig switches the config singleton to the test environment for
// the duration of t.
func UseTestConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("POKERLOG_ENV", config.Test)
	config.Reset()
	t.Cleanup(config.Reset)
	return config.GetConfig()
}

// SetupTestDBManager creates a test DB manager using cartridge's testsupport
func SetupTestDBManager(t *testing.T) (*TestDBManager, *slog.Logger) {
	cfg := UseTestConfig(t)

	// SAFETY CHECK: Ensure we're in test environment
	if cfg.Environment != config.Test {
		t.Fatalf("CRITICAL: Tests must run in test environment! Current: %s. Set POKERLOG_ENV=test", cfg.Environment)
	}

	db := SetupTestDB(t)
	return NewTestDBManager(db), GetLogger()
}

// CleanAllTables empties every table and resets autoincrement counters.
func CleanAllTables(db *gorm.DB) {
	db.Exec("PRAGMA foreign_keys = OFF")
	defer db.Exec("PRAGMA foreign_keys = ON")

	db.Transaction(func(tx *gorm.DB) error {
		for _, table := range []string{"poker_sessions", "users"} {
			tx.Exec("DELETE FROM " + table)
			tx.Exec("DELETE FROM sqlite_sequence WHERE name=?", table)
		}
		return nil
	})
}

// CreateTestUser creates a user with a bcrypt-hashed password.
func CreateTestUser(t *testing.T, db *gorm.DB, email, password string) *users.User {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := &users.User{
		Email:             users.NormalizeEmail(email),
		Name:              strings.Split(email, "@")[0],
		EncryptedPassword: string(hashedPassword),
		CreatedAt:         time.Now().UTC(),
		UpdatedAt:         time.Now().UTC(),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// SessionFixture describes a session row in plain numbers.
type SessionFixture struct {
	GameType     string
	Location     string
	LocationType string
	Blinds       string
	BuyIn        float64
	EndAmount    float64
	Duration     float64
	Timestamp    string
}

// CreateTestSession stores a session through the store so winnings follow
// the write-time rule.
func CreateTestSession(t *testing.T, db *gorm.DB, userID uint, f SessionFixture) *sessions.Session {
	t.Helper()

	if f.GameType == "" {
		f.GameType = "No Limit Hold'em"
	}
	s, err := sessions.Create(db, userID, sessions.Input{
		GameType:     f.GameType,
		Blinds:       f.Blinds,
		Location:     f.Location,
		LocationType: f.LocationType,
		BuyIn:        decimal.NewFromFloat(f.BuyIn),
		EndAmount:    decimal.NewFromFloat(f.EndAmount),
		Duration:     decimal.NewFromFloat(f.Duration),
		Timestamp:    f.Timestamp,
	}, time.UTC)
	require.NoError(t, err)
	return s
}

// IssueTestToken returns a bearer token for user signed with the test config.
func IssueTestToken(t *testing.T, user *users.User) string {
	t.Helper()

	cfg := config.GetConfig()
	token, _, err := auth.NewIssuer(cfg.JWTSecret, cfg.GetTokenTTL(), cfg.AppName).Issue(user.ID, user.Email)
	require.NoError(t, err)
	return token
}

// GetLogger returns a test logger
func GetLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	return slog.New(handler)
}

// CreateTestApp builds a server with every application route mounted.
func CreateTestApp(t *testing.T, db *gorm.DB) *fiber.App {
	t.Helper()

	dbManager := NewTestDBManager(db)
	appConfig := config.GetConfig()
	appConfig.Environment = config.Test

	cfg := cartridge.DefaultServerConfig()
	cfg.Config = appConfig
	cfg.Logger = GetLogger()
	cfg.DBManager = dbManager
	cfg.EnableSecFetchSite = false

	srv, err := cartridge.NewServer(cfg)
	require.NoError(t, err)

	internal.MountAppRoutes(srv)
	return srv.App()
}

// DoRequest sends a JSON request, with a bearer token when one is given,
// and returns the status and raw body.
func DoRequest(t *testing.T, app *fiber.App, method, path, token string, payload any) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, 30000)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

// DoJSON is DoRequest for endpoints answering a JSON object.
func DoJSON(t *testing.T, app *fiber.App, method, path, token string, payload any) (int, map[string]any) {
	t.Helper()

	status, raw := DoRequest(t, app, method, path, token, payload)
	decoded := map[string]any{}
	if len(raw) > 0 && status != http.StatusNoContent {
		require.NoErrorf(t, json.Unmarshal(raw, &decoded), "response was not a JSON object: %s", string(raw))
	}
	return status, decoded
}
