package controller

import (
	"net/http"
	"strconv"
	"time"

	validatormodels "github.com/Casino-TAO/casino-tao-subnet/pkg/db/models/validator"
	"github.com/gorilla/mux"
)

type snapshotResponse struct {
	ID          uint64             `json:"id"`
	Timestamp   time.Time          `json:"timestamp"`
	TotalMiners uint16             `json:"total_miners"`
	TotalVolume float64            `json:"total_volume"`
	Scores      map[string]float64 `json:"scores"`
	Weights     map[string]float64 `json:"weights"`
}

func toSnapshotResponse(s *validatormodels.Snapshot) snapshotResponse {
	return snapshotResponse{
		ID:          s.ID,
		Timestamp:   s.Timestamp,
		TotalMiners: s.TotalMiners,
		TotalVolume: s.TotalVolume,
		Scores:      uidKeys(s.Scores),
		Weights:     uidKeys(s.Weights),
	}
}

// HandleSnapshots lists committed snapshot summaries, newest first. With
// from/to set it returns the full snapshots in that inclusive id range
// instead, oldest first.
// Endpoint: GET /snapshots?limit=<n> | GET /snapshots?from=<id>&to=<id>
func (c *Controller) HandleSnapshots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Get("from") != "" || q.Get("to") != "" {
		from, errFrom := strconv.ParseUint(q.Get("from"), 10, 64)
		to, errTo := strconv.ParseUint(q.Get("to"), 10, 64)
		if errFrom != nil || errTo != nil || from > to {
			writeError(w, http.StatusBadRequest, "invalid snapshot range")
			return
		}

		snaps, err := c.App.DB.RangeSnapshots(r.Context(), from, to)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "query failed")
			return
		}

		out := make([]snapshotResponse, 0, len(snaps))
		for _, s := range snaps {
			out = append(out, toSnapshotResponse(s))
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": out,
		})
		return
	}

	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit value")
			return
		}
		limit = n
	}

	summaries, err := c.App.DB.ListSnapshots(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": summaries,
	})
}

// HandleSnapshotByID returns one full snapshot. The id "latest" resolves to
// the most recent one.
// Endpoint: GET /snapshots/{id}
func (c *Controller) HandleSnapshotByID(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["id"]

	var (
		snap *validatormodels.Snapshot
		err  error
	)
	if raw == "latest" {
		snap, err = c.App.DB.LatestSnapshot(r.Context())
	} else {
		id, parseErr := strconv.ParseUint(raw, 10, 64)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, "invalid snapshot id")
			return
		}
		snap, err = c.App.DB.GetSnapshot(r.Context(), id)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if snap == nil {
		writeError(w, http.StatusNotFound, "snapshot not found")
		return
	}

	writeJSON(w, http.StatusOK, toSnapshotResponse(snap))
}
