package identity

import (
	"bytes"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// ss58Prefix is the checksum preimage prefix defined by the SS58 spec.
var ss58Prefix = []byte("SS58PRE")

// DecodeSS58 extracts the 32-byte public key from an SS58-encoded coldkey
// address and verifies its checksum.
func DecodeSS58(address string) ([]byte, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("decode ss58 address: %w", err)
	}

	// 1 or 2 byte network prefix, 32 byte key, 2 byte checksum.
	var prefixLen int
	switch {
	case len(raw) == 35:
		prefixLen = 1
	case len(raw) == 36:
		prefixLen = 2
	default:
		return nil, fmt.Errorf("decode ss58 address: unexpected length %d", len(raw))
	}

	body := raw[:len(raw)-2]
	checksum := raw[len(raw)-2:]

	hasher, err := blake2b.New512(nil)
	if err != nil {
		return nil, err
	}
	hasher.Write(ss58Prefix)
	hasher.Write(body)
	if !bytes.Equal(hasher.Sum(nil)[:2], checksum) {
		return nil, fmt.Errorf("decode ss58 address: checksum mismatch")
	}

	return raw[prefixLen : len(raw)-2], nil
}
