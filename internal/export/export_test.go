package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	now := time.Date(2026, 10, 16, 8, 5, 9, 0, time.UTC)
	assert.Equal(t, "Travel_Itinerary_Goa_20261016_080509.txt", FileName("Goa", now))
	assert.Equal(t, "Travel_Itinerary_New_Delhi_20261016_080509.txt", FileName("New Delhi", now))
	assert.Equal(t, "Travel_Itinerary_a_b_20261016_080509.txt", FileName("a/b", now))
	assert.Equal(t, "Travel_Itinerary_trip_20261016_080509.txt", FileName("  ", now))
}

func TestSaveItineraryCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	path, err := SaveItinerary(dir, "Jaipur", "Day 1: Amber Fort", now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Travel_Itinerary_Jaipur_20260102_030405.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Day 1: Amber Fort", string(data))
}
