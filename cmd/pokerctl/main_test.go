package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"pokerlog/internal/analytics"
	"pokerlog/internal/sessions"
	"pokerlog/internal/testsupport"
	"pokerlog/internal/timeframe"
)

func TestFindCommand(t *testing.T) {
	for _, name := range []string{"create-user", "change-password", "delete-user", "migrate", "seed", "export", "import", "report", "maintenance", "status", "help"} {
		assert.NotNilf(t, findCommand(name), "command %s", name)
	}
	assert.Nil(t, findCommand("drop-tables"))

	name, args := parseArgs(nil)
	assert.Equal(t, "help", name)
	assert.Empty(t, args)

	name, args = parseArgs([]string{"export", "-email", "a@example.com"})
	assert.Equal(t, "export", name)
	assert.Equal(t, []string{"-email", "a@example.com"}, args)
}

func TestExportImportRoundTrip(t *testing.T) {
	testsupport.UseTestConfig(t)
	db := testsupport.SetupTestDB(t)
	source := testsupport.CreateTestUser(t, db, "source@example.com", "password123")
	target := testsupport.CreateTestUser(t, db, "target@example.com", "password123")

	testsupport.CreateTestSession(t, db, source.ID, testsupport.SessionFixture{
		GameType: "Pot Limit Omaha", Location: "Aria", LocationType: "casino", Blinds: "2/5",
		BuyIn: 300.25, EndAmount: 120, Duration: 4.5, Timestamp: "2024-02-10",
	})
	testsupport.CreateTestSession(t, db, source.ID, testsupport.SessionFixture{
		Location: "Mike's place", LocationType: "home",
		BuyIn: 40, EndAmount: 95.5, Duration: 3, Timestamp: "2024-02-12T22:15:00Z",
	})

	var buf bytes.Buffer
	n, err := exportSessions(db, source, &buf, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var archive sessionArchive
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &archive))
	assert.Equal(t, "source@example.com", archive.Email)
	assert.Equal(t, "2024-03-01T00:00:00Z", archive.ExportedAt)
	require.Len(t, archive.Sessions, 2)
	assert.Equal(t, "55.5", archive.Sessions[0].Winnings)
	assert.Equal(t, "300.25", archive.Sessions[1].BuyIn)

	imported, err := importSessions(context.Background(), db, target.ID, bytes.NewReader(buf.Bytes()), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)

	rows, err := sessions.List(db, target.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "55.5", rows[0].Winnings.String())
	assert.Equal(t, "-180.25", rows[1].Winnings.String())
	assert.Equal(t, sessions.LocationTypeHome, rows[0].LocationType)
	assert.Equal(t, time.Date(2024, 2, 12, 22, 15, 0, 0, time.UTC), rows[0].Timestamp.UTC())
}

func TestImportIgnoresArchivedWinnings(t *testing.T) {
	testsupport.UseTestConfig(t)
	db := testsupport.SetupTestDB(t)
	user := testsupport.CreateTestUser(t, db, "import@example.com", "password123")

	doc := `
email: someone@example.com
sessions:
  - game_type: No Limit Hold'em
    location_type: casino
    buy_in: "100"
    end_amount: "250"
    winnings: "99999"
    duration: "2"
    timestamp: "2024-05-01"
`
	n, err := importSessions(context.Background(), db, user.ID, strings.NewReader(doc), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := sessions.List(db, user.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "150", rows[0].Winnings.String())
}

func TestImportRejectsBadAmounts(t *testing.T) {
	testsupport.UseTestConfig(t)
	db := testsupport.SetupTestDB(t)
	user := testsupport.CreateTestUser(t, db, "bad@example.com", "password123")

	doc := `
sessions:
  - game_type: NLH
    buy_in: "100"
    end_amount: "120"
    duration: "1"
    timestamp: "2024-05-01"
  - game_type: NLH
    buy_in: "a lot"
    end_amount: "120"
    duration: "1"
    timestamp: "2024-05-02"
`
	n, err := importSessions(context.Background(), db, user.ID, strings.NewReader(doc), time.UTC)
	assert.ErrorContains(t, err, "session 2")
	assert.Zero(t, n)

	count, err := sessions.Count(db, user.ID)
	require.NoError(t, err)
	assert.Zero(t, count, "no rows are written when any amount is malformed")
}

func TestWriteReport(t *testing.T) {
	testsupport.UseTestConfig(t)
	db := testsupport.SetupTestDB(t)
	user := testsupport.CreateTestUser(t, db, "report@example.com", "password123")
	testsupport.CreateTestSession(t, db, user.ID, testsupport.SessionFixture{
		GameType: "No Limit Hold'em", Location: "Bellagio", LocationType: "casino",
		BuyIn: 100, EndAmount: 180, Duration: 2, Timestamp: "2024-03-18",
	})
	testsupport.CreateTestSession(t, db, user.ID, testsupport.SessionFixture{
		GameType: "Pot Limit Omaha", Location: "Home game", LocationType: "home",
		BuyIn: 60, EndAmount: 30, Duration: 3, Timestamp: "2024-03-10",
	})

	rows, err := sessions.List(db, user.ID)
	require.NoError(t, err)

	var out bytes.Buffer
	now := time.Date(2024, 3, 20, 15, 0, 0, 0, time.UTC)
	dims, err := parseDimensions(defaultReportDimensions)
	require.NoError(t, err)
	require.NoError(t, writeReport(&out, sessions.Records(rows), timeframe.PeriodMonth, now, dims))

	report := out.String()
	assert.Contains(t, report, "SUMMARY")
	assert.Regexp(t, `Sessions\s+2`, report)
	assert.Regexp(t, `Winnings\s+50\.00`, report)
	assert.Regexp(t, `Win rate\s+50\.0%`, report)
	assert.Contains(t, report, "CUMULATIVE (1M)")
	assert.Regexp(t, `Mar 18\s+1\s+2\.00\s+50\.00`, report)

	gameSection := report[strings.Index(report, "BY GAME TYPE"):strings.Index(report, "BY LOCATION")]
	assert.Less(t, strings.Index(gameSection, "No Limit Hold'em"), strings.Index(gameSection, "Pot Limit Omaha"))
}

func TestReportDimensions(t *testing.T) {
	dims, err := parseDimensions(" blinds , locationType,")
	require.NoError(t, err)
	assert.Equal(t, []analytics.Dimension{analytics.DimensionBlinds, analytics.DimensionLocationType}, dims)

	_, err = parseDimensions("gameType,notes")
	assert.Error(t, err)

	records := []analytics.Record{
		{ID: 1, Blinds: "1/2", LocationType: "casino", BuyIn: 100, EndAmount: 150, Winnings: 50, Duration: 2, Timestamp: "2024-03-18"},
		{ID: 2, Blinds: "2/5", LocationType: "home", BuyIn: 200, EndAmount: 100, Winnings: -100, Duration: 3, Timestamp: "2024-03-10"},
	}
	var out bytes.Buffer
	now := time.Date(2024, 3, 20, 15, 0, 0, 0, time.UTC)
	require.NoError(t, writeReport(&out, records, timeframe.PeriodMonth, now, dims))

	report := out.String()
	assert.Contains(t, report, "BY BLINDS")
	assert.Contains(t, report, "BY LOCATION TYPE")
	assert.NotContains(t, report, "BY GAME TYPE")
	assert.Regexp(t, `2/5\s+1\s+-100\.00\s+-50\.0%`, report)
	assert.Regexp(t, `home\s+1\s+-100\.00`, report)
}
