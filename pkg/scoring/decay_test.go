package scoring_test

import (
	"testing"
	"time"

	"github.com/Casino-TAO/casino-tao-subnet/pkg/scoring"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refDay = time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)

// day returns the window day at the given offset from the reference day.
func day(offset int) time.Time {
	return refDay.AddDate(0, 0, -offset)
}

func TestWeightTable(t *testing.T) {
	expected := []string{"1", "0.85", "0.7", "0.55", "0.4", "0.25", "0.1"}
	for offset, want := range expected {
		assert.True(t, scoring.Weight(offset).Equal(decimal.RequireFromString(want)),
			"offset %d: got %s", offset, scoring.Weight(offset))
	}

	assert.True(t, scoring.Weight(-1).IsZero())
	assert.True(t, scoring.Weight(scoring.WindowDays).IsZero())
}

func TestScoreSingleDayIsExact(t *testing.T) {
	amount := 12.5
	for offset := 0; offset < scoring.WindowDays; offset++ {
		window := map[time.Time]float64{day(offset): amount}
		got := scoring.Score(window, refDay)
		want := scoring.Weight(offset).Mul(decimal.NewFromFloat(amount))
		require.True(t, got.Equal(want), "offset %d: got %s, want %s", offset, got, want)
	}
}

func TestScoreZeroWindow(t *testing.T) {
	assert.True(t, scoring.Score(nil, refDay).IsZero())
	assert.True(t, scoring.Score(map[time.Time]float64{}, refDay).IsZero())

	allZero := map[time.Time]float64{}
	for offset := 0; offset < scoring.WindowDays; offset++ {
		allZero[day(offset)] = 0
	}
	assert.True(t, scoring.Score(allZero, refDay).IsZero())
}

func TestScoreWeightedVolume(t *testing.T) {
	// Volumes [10, 8, 5, 3, 0, 0, 0] for offsets 0..6:
	// 10(1.00) + 8(0.85) + 5(0.70) + 3(0.55) = 21.95
	window := map[time.Time]float64{
		day(0): 10,
		day(1): 8,
		day(2): 5,
		day(3): 3,
		day(4): 0,
		day(5): 0,
		day(6): 0,
	}

	got := scoring.Score(window, refDay)
	require.True(t, got.Equal(decimal.RequireFromString("21.95")), "got %s", got)
}

func TestScoreIgnoresDaysOutsideWindow(t *testing.T) {
	window := map[time.Time]float64{
		day(0):  10,
		day(7):  1000, // aged out
		day(-1): 1000, // future
	}

	got := scoring.Score(window, refDay)
	require.True(t, got.Equal(decimal.RequireFromString("10")), "got %s", got)
}

func TestScoreHonorsNonMidnightReference(t *testing.T) {
	window := map[time.Time]float64{day(0): 4}

	ref := refDay.Add(13*time.Hour + 37*time.Minute)
	got := scoring.Score(window, ref)
	require.True(t, got.Equal(decimal.RequireFromString("4")), "got %s", got)
}

func TestScoreAll(t *testing.T) {
	windows := map[uint16]map[time.Time]float64{
		1: {day(0): 10, day(1): 8, day(2): 5, day(3): 3},
		2: {},
		3: {day(6): 100},
	}

	scores := scoring.ScoreAll(windows, refDay)
	require.Len(t, scores, 3)
	assert.InDelta(t, 21.95, scores[1], 1e-9)
	assert.Zero(t, scores[2])
	assert.InDelta(t, 10, scores[3], 1e-9)
}

func TestWindowSlice(t *testing.T) {
	window := map[time.Time]float64{
		day(0): 1.5,
		day(3): 7,
		day(6): 2,
	}

	got := scoring.WindowSlice(window, refDay)
	assert.Equal(t, []float64{1.5, 0, 0, 7, 0, 0, 2}, got)
}
