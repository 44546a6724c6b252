package users_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"pokerlog/internal/sessions"
	"pokerlog/internal/testsupport"
	"pokerlog/internal/users"
)

func TestFindByEmail(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	t.Run("finds existing user regardless of case", func(t *testing.T) {
		testUser := testsupport.CreateTestUser(t, db, "test@example.com", "password123")

		foundUser, err := users.FindByEmail(db, "  Test@Example.COM ")

		require.NoError(t, err)
		assert.Equal(t, testUser.ID, foundUser.ID)
	})

	t.Run("returns error for non-existent user", func(t *testing.T) {
		foundUser, err := users.FindByEmail(db, "nonexistent@example.com")

		assert.Nil(t, foundUser)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("returns error for empty email", func(t *testing.T) {
		foundUser, err := users.FindByEmail(db, "")

		assert.Error(t, err)
		assert.Nil(t, foundUser)
	})
}

func TestRegister(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	t.Run("creates user with hashed password", func(t *testing.T) {
		user, err := users.Register(db, "Player@Example.com", "securepassword123", " Player One ")
		require.NoError(t, err)

		assert.Equal(t, "player@example.com", user.Email)
		assert.Equal(t, "Player One", user.Name)
		assert.NotEqual(t, "securepassword123", user.EncryptedPassword)
		assert.True(t, strings.HasPrefix(user.EncryptedPassword, "$2"))
	})

	t.Run("rejects a taken email", func(t *testing.T) {
		_, err := users.Register(db, "player@example.com", "anotherpassword", "Copy")
		assert.ErrorIs(t, err, users.ErrUserExists)
	})

	t.Run("rejects short passwords", func(t *testing.T) {
		_, err := users.Register(db, "short@example.com", "1234567", "Short")
		assert.ErrorIs(t, err, users.ErrWeakPassword)
	})

	t.Run("requires email and name", func(t *testing.T) {
		_, err := users.Register(db, " ", "password123", "Name")
		assert.Error(t, err)
		_, err = users.Register(db, "noname@example.com", "password123", "")
		assert.Error(t, err)
	})

	count, err := users.Count(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestAuthenticate(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	testsupport.CreateTestUser(t, db, "auth@example.com", "password123")

	user, err := users.Authenticate(db, "AUTH@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "auth@example.com", user.Email)

	_, err = users.Authenticate(db, "auth@example.com", "wrong-password")
	assert.ErrorIs(t, err, users.ErrInvalidCredentials)

	_, err = users.Authenticate(db, "missing@example.com", "password123")
	assert.ErrorIs(t, err, users.ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	testsupport.CreateTestUser(t, db, "change@example.com", "oldpassword123")

	t.Run("changes password for existing user", func(t *testing.T) {
		require.NoError(t, users.ChangePassword(db, "change@example.com", "newpassword123"))

		_, err := users.Authenticate(db, "change@example.com", "newpassword123")
		assert.NoError(t, err)
		_, err = users.Authenticate(db, "change@example.com", "oldpassword123")
		assert.ErrorIs(t, err, users.ErrInvalidCredentials)
	})

	t.Run("rejects short password", func(t *testing.T) {
		assert.ErrorIs(t, users.ChangePassword(db, "change@example.com", "short"), users.ErrWeakPassword)
	})

	t.Run("returns error for non-existent user", func(t *testing.T) {
		err := users.ChangePassword(db, "nonexistent@example.com", "newpassword123")
		assert.ErrorIs(t, err, users.ErrUserNotFound)
	})
}

func TestDelete(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	leaving := testsupport.CreateTestUser(t, db, "leaving@example.com", "password123")
	staying := testsupport.CreateTestUser(t, db, "staying@example.com", "password123")
	for _, u := range []uint{leaving.ID, leaving.ID, staying.ID} {
		testsupport.CreateTestSession(t, db, u, testsupport.SessionFixture{BuyIn: 10, EndAmount: 20, Duration: 1, Timestamp: "2024-05-01"})
	}

	require.NoError(t, users.Delete(db, leaving.ID))

	_, err := users.FindByID(db, leaving.ID)
	assert.ErrorIs(t, err, users.ErrUserNotFound)

	count, err := sessions.Count(db, leaving.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = sessions.Count(db, staying.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	assert.ErrorIs(t, users.Delete(db, leaving.ID), users.ErrUserNotFound)
}
