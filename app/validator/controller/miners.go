package controller

import (
	"net/http"
)

// HandleMiners returns the metagraph roster as of the last ingestion cycle,
// including each miner's registered betting address when one exists.
// Endpoint: GET /miners
func (c *Controller) HandleMiners(w http.ResponseWriter, r *http.Request) {
	miners, err := c.App.DB.ListMiners(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": miners,
	})
}
