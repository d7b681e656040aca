package controller

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/Casino-TAO/casino-tao-subnet/pkg/scoring"
)

type leaderboardEntry struct {
	UID   uint16  `json:"uid"`
	Score float64 `json:"score"`
}

// HandleLeaderboard returns miners ordered by score descending, with uid
// ascending as a deterministic tie-break.
// Endpoint: GET /leaderboard?limit=<n>
func (c *Controller) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit value")
			return
		}
		limit = n
	}

	ctx := r.Context()

	sinceDay, refDay := scoreWindow()
	windows, err := c.App.DB.GetAllWindows(ctx, sinceDay, refDay)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	scores := scoring.ScoreAll(windows, refDay)
	entries := make([]leaderboardEntry, 0, len(scores))
	for uid, score := range scores {
		entries = append(entries, leaderboardEntry{UID: uid, Score: score})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].UID < entries[j].UID
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":          entries,
		"reference_day": refDay.Format("2006-01-02"),
	})
}
