package validator

import "time"

const DailyVolumesTableName = "daily_volumes"

// DailyVolumeColumns defines the schema for the daily_volumes table.
// One row per (uid, day); re-ingestion inserts a newer version and the
// ReplacingMergeTree keeps the latest by updated_at.
var DailyVolumeColumns = []ColumnDef{
	{Name: "uid", Type: "UInt16"},
	{Name: "day", Type: "Date", Codec: "DoubleDelta, LZ4"},
	{Name: "amount", Type: "Float64", Codec: "Gorilla, ZSTD(1)"},
	{Name: "updated_at", Type: "DateTime64(3)", Codec: "DoubleDelta, LZ4"},
}

// DailyVolume is the authoritative betting volume of one miner on one UTC day,
// as currently recorded on the betting ledger. Amount is a total, never a delta.
type DailyVolume struct {
	UID       uint16    `ch:"uid" json:"uid"`
	Day       time.Time `ch:"day" json:"day"`
	Amount    float64   `ch:"amount" json:"amount"`
	UpdatedAt time.Time `ch:"updated_at" json:"updated_at"`
}
