// Package scoring turns raw per-day betting volumes into decayed scores and
// normalized weight vectors. It is pure computation: no I/O, no clocks.
package scoring

import (
	"time"

	"github.com/shopspring/decimal"
)

// WindowDays is the decay window length. The weight table below covers
// exactly this many day offsets; volume outside the window contributes
// nothing.
const WindowDays = 7

// weightTable maps day offset (0 = the reference day) to its decay weight.
// Accumulation happens in decimal so repeated snapshots cannot drift; only
// the final score is converted to float64, with sub-1e-9 conversion error
// for realistic volumes.
var weightTable = []decimal.Decimal{
	decimal.NewFromFloat(1.00),
	decimal.NewFromFloat(0.85),
	decimal.NewFromFloat(0.70),
	decimal.NewFromFloat(0.55),
	decimal.NewFromFloat(0.40),
	decimal.NewFromFloat(0.25),
	decimal.NewFromFloat(0.10),
}

// Weight returns the decay weight for a day offset; offsets outside the
// window weigh zero.
func Weight(offset int) decimal.Decimal {
	if offset < 0 || offset >= len(weightTable) {
		return decimal.Zero
	}
	return weightTable[offset]
}

// Score computes the decayed score for one miner's window against
// referenceDay: Σ weight[offset] × volume[referenceDay − offset] for offsets
// 0..WindowDays-1, with missing days counting as zero. referenceDay must be
// the same UTC day for every miner scored into one snapshot.
func Score(window map[time.Time]float64, referenceDay time.Time) decimal.Decimal {
	ref := dayOf(referenceDay)
	total := decimal.Zero
	for offset := 0; offset < WindowDays; offset++ {
		day := ref.AddDate(0, 0, -offset)
		amount, ok := window[day]
		if !ok || amount == 0 {
			continue
		}
		total = total.Add(weightTable[offset].Mul(decimal.NewFromFloat(amount)))
	}
	return total
}

// ScoreAll scores every miner window against the same reference day and
// returns the result as float64 per uid. Miners with an all-zero window score
// exactly 0.
func ScoreAll(windows map[uint16]map[time.Time]float64, referenceDay time.Time) map[uint16]float64 {
	scores := make(map[uint16]float64, len(windows))
	for uid, window := range windows {
		scores[uid], _ = Score(window, referenceDay).Float64()
	}
	return scores
}

// WindowSlice flattens a window into a fixed-length array where index 0 is
// the reference day, for API responses.
func WindowSlice(window map[time.Time]float64, referenceDay time.Time) []float64 {
	ref := dayOf(referenceDay)
	out := make([]float64, WindowDays)
	for offset := 0; offset < WindowDays; offset++ {
		out[offset] = window[ref.AddDate(0, 0, -offset)]
	}
	return out
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
