package ledger

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash/crc32"
)

const accountDomainSeparator = "\x0Aaccount-id"

// AccountIdentifier derives the ledger address for an identity: the SHA-224
// digest of the domain-separated owner (default subaccount), prefixed with a
// CRC-32 checksum, hex encoded. The derivation is deterministic, so two
// parties computing an address for the same owner always agree byte for byte
// and addresses can be compared with plain string equality.
func AccountIdentifier(owner string) string {
	h := sha256.New224()
	h.Write([]byte(accountDomainSeparator))
	h.Write([]byte(owner))
	h.Write(make([]byte, 32)) // default subaccount
	sum := h.Sum(nil)

	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], crc32.ChecksumIEEE(sum))
	return hex.EncodeToString(append(buf[:], sum...))
}
