package controller

import (
	"net/http"
	"strconv"

	"github.com/Casino-TAO/casino-tao-subnet/pkg/scoring"
)

// HandleVolumes returns every miner's decay-window volumes as fixed-length
// arrays where index 0 is today.
// Endpoint: GET /volumes
func (c *Controller) HandleVolumes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sinceDay, refDay := scoreWindow()
	windows, err := c.App.DB.GetAllWindows(ctx, sinceDay, refDay)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	data := make(map[string][]float64, len(windows))
	for uid, window := range windows {
		data[strconv.FormatUint(uint64(uid), 10)] = scoring.WindowSlice(window, refDay)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":          data,
		"reference_day": refDay.Format("2006-01-02"),
	})
}
