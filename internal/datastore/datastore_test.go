package datastore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quakepredict/quakepredict-go/internal/conf"
)

func openTestStore(t *testing.T) Interface {
	t.Helper()

	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "test.db")

	store := New(settings)
	require.NotNil(t, store)
	require.NoError(t, store.Open())
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func sampleReports(dateKey string) []RiskReport {
	now := time.Now()
	return []RiskReport{
		{CreatedAt: now, DateKey: dateKey, Location: "Quito", Probability: 0.45, RiskLevel: "MODERATE"},
		{CreatedAt: now, DateKey: dateKey, Location: "Manta", Probability: 0.12, RiskLevel: "LOW"},
	}
}

func TestSaveAndGetReportsByDate(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.SaveReports(sampleReports("2026-08-28")))

	reports, err := store.GetReportsByDate("2026-08-28")
	require.NoError(t, err)
	require.Len(t, reports, 2)

	// Ordered by location.
	assert.Equal(t, "Manta", reports[0].Location)
	assert.Equal(t, "Quito", reports[1].Location)
	assert.InDelta(t, 0.12, reports[0].Probability, 1e-9)

	other, err := store.GetReportsByDate("2026-08-27")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSaveReportsIgnoresDuplicateDay(t *testing.T) {
	store := openTestStore(t)

	first := sampleReports("2026-08-28")
	require.NoError(t, store.SaveReports(first))

	// A second batch for the same day must not produce duplicate rows or
	// overwrite the originals.
	second := sampleReports("2026-08-28")
	second[0].Probability = 0.99
	require.NoError(t, store.SaveReports(second))

	reports, err := store.GetReportsByDate("2026-08-28")
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.InDelta(t, 0.45, reports[1].Probability, 1e-9)
}

func TestSaveReportsEmptyBatch(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.SaveReports(nil))
}

func TestUpsertRegion(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.UpsertRegion(&Region{
		Name: "Quito", Province: "Pichincha", Latitude: -0.2299, Longitude: -78.5249,
	}))
	// Same name with refreshed coordinates updates in place.
	require.NoError(t, store.UpsertRegion(&Region{
		Name: "Quito", Province: "Pichincha", Latitude: -0.2300, Longitude: -78.5250,
	}))

	regions, err := store.GetRegions()
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.InDelta(t, -0.2300, regions[0].Latitude, 1e-9)
}

func TestUserLifecycle(t *testing.T) {
	store := openTestStore(t)

	username := "ana"
	user := &User{
		FirstName:    "Ana",
		LastName:     "Paredes",
		Email:        "ana@example.com",
		Username:     &username,
		PasswordHash: "$2a$10$fakehash",
	}
	require.NoError(t, store.CreateUser(user))

	byEmail, err := store.GetUserByEmail("ana@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	require.NotNil(t, byEmail.Username)
	assert.Equal(t, "ana", *byEmail.Username)

	byUsername, err := store.GetUserByUsername("ana")
	require.NoError(t, err)
	require.NotNil(t, byUsername)
	assert.Equal(t, "ana@example.com", byUsername.Email)

	missing, err := store.GetUserByUsername("nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	// Unique constraints on email and username.
	dup := *user
	dup.ID = 0
	assert.Error(t, store.CreateUser(&dup))
}

func TestCreateUserWithoutUsername(t *testing.T) {
	store := openTestStore(t)

	// The username column is nullable; several accounts without one must
	// not trip its unique index.
	require.NoError(t, store.CreateUser(&User{
		FirstName: "Ana", LastName: "Paredes",
		Email: "ana@example.com", PasswordHash: "$2a$10$fakehash",
	}))
	require.NoError(t, store.CreateUser(&User{
		FirstName: "Luis", LastName: "Vera",
		Email: "luis@example.com", PasswordHash: "$2a$10$fakehash",
	}))

	luis, err := store.GetUserByEmail("luis@example.com")
	require.NoError(t, err)
	require.NotNil(t, luis)
	assert.Nil(t, luis.Username)
}

func TestNewReturnsNilWithoutBackend(t *testing.T) {
	assert.Nil(t, New(&conf.Settings{}))
}
