package identity

import (
	"fmt"
	"strings"
)

// BindingMessage is the canonical string a coldkey signs to claim an EVM
// betting address. Both sides must reproduce it byte for byte: the frontend
// builds it before signing, the validator rebuilds it before verifying, and
// any client-supplied "verified" flag is ignored.
func BindingMessage(coldkey, evmAddress string, timestampMillis int64) string {
	return fmt.Sprintf("casino-tao:wallet-link:%s:%s:%d", coldkey, strings.ToLower(evmAddress), timestampMillis)
}
