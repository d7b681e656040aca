package validator

import "time"

const SnapshotsTableName = "snapshots"

// SnapshotColumns defines the schema for the snapshots table. The table is an
// append-only audit log: there is no version column and no store method ever
// updates or deletes rows.
var SnapshotColumns = []ColumnDef{
	{Name: "id", Type: "UInt64", Codec: "DoubleDelta, LZ4"},
	{Name: "timestamp", Type: "DateTime64(3)", Codec: "DoubleDelta, LZ4"},
	{Name: "total_miners", Type: "UInt16"},
	{Name: "total_volume", Type: "Float64", Codec: "Gorilla, ZSTD(1)"},
	{Name: "scores", Type: "Map(UInt16, Float64)", Codec: "ZSTD(1)"},
	{Name: "weights", Type: "Map(UInt16, Float64)", Codec: "ZSTD(1)"},
}

// Snapshot is one committed score vector. ID is the consensus block height at
// emission time, which is strictly increasing across emissions. Scores holds
// the decayed weighted volumes, Weights the normalized vector submitted to the
// chain (sums to 1 unless every score was zero).
type Snapshot struct {
	ID          uint64             `ch:"id" json:"id"`
	Timestamp   time.Time          `ch:"timestamp" json:"timestamp"`
	TotalMiners uint16             `ch:"total_miners" json:"total_miners"`
	TotalVolume float64            `ch:"total_volume" json:"total_volume"`
	Scores      map[uint16]float64 `ch:"scores" json:"scores"`
	Weights     map[uint16]float64 `ch:"weights" json:"weights"`
}

// SnapshotSummary is the listing shape returned by /snapshots: the header
// without the full vectors.
type SnapshotSummary struct {
	ID          uint64    `ch:"id" json:"id"`
	Timestamp   time.Time `ch:"timestamp" json:"timestamp"`
	TotalMiners uint16    `ch:"total_miners" json:"total_miners"`
	TotalVolume float64   `ch:"total_volume" json:"total_volume"`
}

// ScorePoint is one miner's score in one snapshot, for history queries.
type ScorePoint struct {
	SnapshotID uint64    `ch:"id" json:"snapshot_id"`
	Timestamp  time.Time `ch:"timestamp" json:"timestamp"`
	Score      float64   `ch:"score" json:"score"`
}
