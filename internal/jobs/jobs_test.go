package jobs_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pokerlog/internal/jobs"
	"pokerlog/internal/sessions"
	"pokerlog/internal/testsupport"
)

func TestSchedulerRunsJobsUntilStopped(t *testing.T) {
	var runs, failures atomic.Int32
	s := jobs.NewScheduler(testsupport.GetLogger(),
		jobs.Job{
			Name:     "counter",
			Interval: 10 * time.Millisecond,
			Run: func(context.Context) error {
				runs.Add(1)
				return nil
			},
		},
		jobs.Job{
			Name:     "failing",
			Interval: time.Hour,
			Run: func(context.Context) error {
				failures.Add(1)
				return errors.New("boom")
			},
		},
		jobs.Job{
			Name:     "panicking",
			Interval: time.Hour,
			Run:      func(context.Context) error { panic("bad job") },
		},
	)

	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())
	assert.Equal(t, int32(1), failures.Load())

	stopped := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, runs.Load())

	s.Stop()
}

func TestRunOnceRunsEachJobInOrder(t *testing.T) {
	var order []string
	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			order = append(order, name)
			return nil
		}
	}
	s := jobs.NewScheduler(testsupport.GetLogger(),
		jobs.Job{Name: "first", Interval: time.Hour, Run: record("first")},
		jobs.Job{Name: "panicking", Interval: time.Hour, Run: func(context.Context) error { panic("bad job") }},
		jobs.Job{Name: "last", Interval: time.Hour, Run: record("last")},
	)

	s.RunOnce(context.Background())

	assert.Equal(t, []string{"first", "last"}, order)
	assert.False(t, s.IsRunning())
}

func TestDeleteOrphanSessions(t *testing.T) {
	testsupport.UseTestConfig(t)
	db := testsupport.SetupTestDB(t)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Exec("PRAGMA foreign_keys = OFF").Error)

	keeper := testsupport.CreateTestUser(t, db, "keeper@example.com", "password123")
	gone := testsupport.CreateTestUser(t, db, "gone@example.com", "password123")

	testsupport.CreateTestSession(t, db, keeper.ID, testsupport.SessionFixture{BuyIn: 100, EndAmount: 150, Duration: 2, Timestamp: "2024-01-15"})
	testsupport.CreateTestSession(t, db, gone.ID, testsupport.SessionFixture{BuyIn: 50, EndAmount: 0, Duration: 1, Timestamp: "2024-01-16"})
	testsupport.CreateTestSession(t, db, gone.ID, testsupport.SessionFixture{BuyIn: 50, EndAmount: 80, Duration: 1, Timestamp: "2024-01-17"})

	require.NoError(t, db.Exec("DELETE FROM users WHERE id = ?", gone.ID).Error)

	deleted, err := jobs.DeleteOrphanSessions(context.Background(), db, testsupport.GetLogger())
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	remaining, err := sessions.Count(db, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), remaining)

	deleted, err = jobs.DeleteOrphanSessions(context.Background(), db, testsupport.GetLogger())
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
