package controller

import (
	"net/http"
	"time"

	"github.com/Casino-TAO/casino-tao-subnet/pkg/db"
	"github.com/Casino-TAO/casino-tao-subnet/pkg/scoring"
)

// scoreWindow returns the UTC day bounds of the current decay window.
func scoreWindow() (sinceDay, refDay time.Time) {
	refDay = db.DayOf(time.Now())
	sinceDay = refDay.AddDate(0, 0, -(scoring.WindowDays - 1))
	return sinceDay, refDay
}

// HandleScores returns every miner's current decayed score.
// Endpoint: GET /scores
func (c *Controller) HandleScores(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sinceDay, refDay := scoreWindow()
	windows, err := c.App.DB.GetAllWindows(ctx, sinceDay, refDay)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	scores := scoring.ScoreAll(windows, refDay)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":          uidKeys(scores),
		"reference_day": refDay.Format("2006-01-02"),
	})
}

type scoreDetailResponse struct {
	UID        uint16    `json:"uid"`
	Score      float64   `json:"score"`
	Volumes    []float64 `json:"volumes"`
	Hotkey     string    `json:"hotkey,omitempty"`
	Coldkey    string    `json:"coldkey,omitempty"`
	EVMAddress string    `json:"evm_address,omitempty"`
}

// HandleScoreDetail returns one miner's score, its per-day volume breakdown
// (index 0 = today) and the ledger address it bets from.
// Endpoint: GET /scores/{uid}
func (c *Controller) HandleScoreDetail(w http.ResponseWriter, r *http.Request) {
	uid, ok := uidVar(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid uid")
		return
	}

	ctx := r.Context()

	sinceDay, refDay := scoreWindow()
	window, err := c.App.DB.GetWindow(ctx, uid, sinceDay, refDay)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	resp := scoreDetailResponse{
		UID:     uid,
		Volumes: scoring.WindowSlice(window, refDay),
	}
	resp.Score, _ = scoring.Score(window, refDay).Float64()

	if miner, minerErr := c.App.DB.GetMiner(ctx, uid); minerErr == nil && miner != nil {
		resp.Hotkey = miner.Hotkey
		resp.Coldkey = miner.Coldkey
		resp.EVMAddress = miner.EVMAddress
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleScoreHistory returns one miner's score across committed snapshots.
// Endpoint: GET /scores/{uid}/history
func (c *Controller) HandleScoreHistory(w http.ResponseWriter, r *http.Request) {
	uid, ok := uidVar(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid uid")
		return
	}

	points, err := c.App.DB.IdentityHistory(r.Context(), uid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"uid":  uid,
		"data": points,
	})
}
