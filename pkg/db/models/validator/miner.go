package validator

import "time"

const MinersTableName = "miners"

// MinerColumns defines the schema for the miners roster table.
var MinerColumns = []ColumnDef{
	{Name: "uid", Type: "UInt16"},
	{Name: "hotkey", Type: "String", Codec: "ZSTD(1)"},
	{Name: "coldkey", Type: "String", Codec: "ZSTD(1)"},
	{Name: "evm_address", Type: "String", Codec: "ZSTD(1)"},
	{Name: "updated_at", Type: "DateTime64(3)", Codec: "DoubleDelta, LZ4"},
}

// Miner is the current roster entry for one subnet UID, refreshed from the
// metagraph every ingestion cycle. EVMAddress is empty until the miner's
// coldkey registers a wallet mapping.
type Miner struct {
	UID        uint16    `ch:"uid" json:"uid"`
	Hotkey     string    `ch:"hotkey" json:"hotkey"`
	Coldkey    string    `ch:"coldkey" json:"coldkey"`
	EVMAddress string    `ch:"evm_address" json:"evm_address"`
	UpdatedAt  time.Time `ch:"updated_at" json:"updated_at"`
}
