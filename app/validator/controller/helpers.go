package controller

import (
	"net/http"
	"strconv"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/gorilla/mux"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// uidVar parses the {uid} path variable.
func uidVar(r *http.Request) (uint16, bool) {
	raw := mux.Vars(r)["uid"]
	n, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		return 0, false
	}
	return uint16(n), true
}

// uidKeys converts a uid-keyed vector into the string-keyed shape the JSON
// encoder handles.
func uidKeys(m map[uint16]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for uid, v := range m {
		out[strconv.FormatUint(uint64(uid), 10)] = v
	}
	return out
}
