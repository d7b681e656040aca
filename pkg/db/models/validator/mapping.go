package validator

import "time"

const WalletMappingsTableName = "wallet_mappings"

// WalletMappingColumns defines the schema for the wallet_mappings table.
// One logical row per coldkey; re-registration inserts a newer version and
// the ReplacingMergeTree keeps the one with the highest timestamp.
var WalletMappingColumns = []ColumnDef{
	{Name: "coldkey", Type: "String", Codec: "ZSTD(1)"},
	{Name: "evm_address", Type: "String", Codec: "ZSTD(1)"},
	{Name: "signature", Type: "String", Codec: "ZSTD(1)"},
	{Name: "message", Type: "String", Codec: "ZSTD(1)"},
	{Name: "timestamp", Type: "Int64", Codec: "DoubleDelta, LZ4"},
	{Name: "deleted", Type: "UInt8"},
	{Name: "verified_at", Type: "DateTime64(3)", Codec: "DoubleDelta, LZ4"},
}

// WalletMapping links a coldkey to the EVM address it bets from. Timestamp is
// the signed registration timestamp in milliseconds; it doubles as the replay
// fence and as the ReplacingMergeTree version. Deleted mappings are superseded
// with a tombstone row, never removed, so the registration history survives.
type WalletMapping struct {
	Coldkey    string    `ch:"coldkey" json:"coldkey"`
	EVMAddress string    `ch:"evm_address" json:"evm_address"`
	Signature  string    `ch:"signature" json:"signature,omitempty"`
	Message    string    `ch:"message" json:"message,omitempty"`
	Timestamp  int64     `ch:"timestamp" json:"timestamp"`
	Deleted    uint8     `ch:"deleted" json:"-"`
	VerifiedAt time.Time `ch:"verified_at" json:"verified_at"`
}
