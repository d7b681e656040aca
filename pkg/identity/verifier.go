// Package identity verifies signed wallet-link registrations: an SS58 coldkey
// proves control of an EVM betting address by signing a canonical binding
// message.
package identity

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBadSignature means the signature does not verify against the
	// coldkey's public key. Surfaced to callers as a client failure.
	ErrBadSignature = errors.New("signature verification failed")

	// ErrStaleTimestamp means the registration timestamp is older than the
	// stored mapping or outside the freshness window (replay protection).
	ErrStaleTimestamp = errors.New("registration timestamp is stale")
)

// Verifier checks that signature was produced over message by the key behind
// the given coldkey identity. Implementations differ per signature scheme;
// the engine only depends on this capability.
type Verifier interface {
	Verify(coldkey, message, signature string) (bool, error)
}

// Ed25519Verifier verifies ed25519 signatures over the substrate raw-bytes
// wrapping of the message, recovering the public key from the SS58 coldkey.
type Ed25519Verifier struct{}

// Verify implements Verifier. The signature is hex, with or without a 0x
// prefix. Signers of raw payloads wrap them in <Bytes>…</Bytes> before
// signing; verification mirrors that wrapping.
func (Ed25519Verifier) Verify(coldkey, message, signature string) (bool, error) {
	pub, err := DecodeSS58(coldkey)
	if err != nil {
		return false, err
	}
	if len(pub) != ed25519.PublicKeySize {
		return false, fmt.Errorf("coldkey public key has %d bytes, want %d", len(pub), ed25519.PublicKeySize)
	}

	sig, err := hex.DecodeString(strings.TrimPrefix(signature, "0x"))
	if err != nil {
		return false, fmt.Errorf("decode signature hex: %w", err)
	}
	if len(sig) != ed25519.SignatureSize {
		return false, fmt.Errorf("signature has %d bytes, want %d", len(sig), ed25519.SignatureSize)
	}

	return ed25519.Verify(ed25519.PublicKey(pub), WrapRaw(message), sig), nil
}

// WrapRaw applies the substrate signRaw byte wrapping.
func WrapRaw(message string) []byte {
	return []byte("<Bytes>" + message + "</Bytes>")
}
