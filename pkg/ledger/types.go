package ledger

import "time"

// dayFormat is the wire format for calendar days (UTC).
const dayFormat = "2006-01-02"

// DayVolume is one day's authoritative betting total for an address as
// currently recorded on the ledger. A total, never a delta: ingestion must
// replace the stored amount for that day, not add to it.
type DayVolume struct {
	Day    time.Time
	Amount float64
}

// volumeRequest is the JSON body sent to the betting-contract indexer.
type volumeRequest struct {
	Address  string `json:"address"`
	FromDay  string `json:"from_day"`
	UntilDay string `json:"until_day"`
}

// volumeResponse is the indexer's reply. An empty Days list is a valid
// answer meaning "no betting activity", not an error.
type volumeResponse struct {
	Days []volumeDay `json:"days"`
}

type volumeDay struct {
	Day    string  `json:"day"`
	Amount float64 `json:"amount"`
}
