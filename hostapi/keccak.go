package hostapi

import "golang.org/x/crypto/sha3"

// Keccak256 hashes data with the Keccak-256 permutation EVM uses (not NIST
// SHA3-256, which pads differently). Backing the native_keccak256 host
// call with a real library rather than a hand-rolled sponge is the point
// of depending on x/crypto here.
func Keccak256(data ...[]byte) Bytes32 {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out Bytes32
	h.Sum(out[:0])
	return out
}
