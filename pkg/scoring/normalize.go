package scoring

import (
	"time"

	"github.com/shopspring/decimal"
)

// Normalize converts raw scores into the weight vector submitted on-chain.
// Weights sum to 1 within 1e-6 whenever at least one score is positive; the
// division happens in decimal and rounds to 12 places before the float64
// conversion. Zero-score miners are excluded from the vector; an all-zero
// input yields an empty map, which the emitter submits as an empty vector and
// the snapshot records for audit continuity.
func Normalize(scores map[uint16]float64) map[uint16]float64 {
	total := decimal.Zero
	for _, s := range scores {
		if s > 0 {
			total = total.Add(decimal.NewFromFloat(s))
		}
	}

	weights := make(map[uint16]float64)
	if total.IsZero() {
		return weights
	}

	for uid, s := range scores {
		if s <= 0 {
			continue
		}
		w := decimal.NewFromFloat(s).DivRound(total, 12)
		weights[uid], _ = w.Float64()
	}
	return weights
}

// WindowTotal sums every raw day amount across all windows, for the snapshot
// header's total_volume.
func WindowTotal(windows map[uint16]map[time.Time]float64) float64 {
	total := decimal.Zero
	for _, window := range windows {
		for _, amount := range window {
			total = total.Add(decimal.NewFromFloat(amount))
		}
	}
	f, _ := total.Float64()
	return f
}

// TotalVolume sums raw decayed scores, for the snapshot header.
func TotalVolume(scores map[uint16]float64) float64 {
	total := decimal.Zero
	for _, s := range scores {
		total = total.Add(decimal.NewFromFloat(s))
	}
	f, _ := total.Float64()
	return f
}
