package binary_test

import (
	"errors"
	"testing"

	"github.com/inkvm/ink/internal/wasm"
	"github.com/inkvm/ink/internal/wasm/binary"
	"github.com/stretchr/testify/require"
)

func wasmHeader() []byte {
	return []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
}

// tableSection encodes a table section declaring one funcref table of
// `min` entries per element of mins, with no declared maximum.
func tableSection(mins ...[]byte) []byte {
	body := []byte{byte(len(mins))}
	for _, min := range mins {
		body = append(body, 0x70, 0x00)
		body = append(body, min...)
	}
	return append([]byte{0x04, byte(len(body))}, body...)
}

// TestDecodeRejectsTableEntriesOverModuleWideCap pins the entry ceiling
// as a sum over every declared table: two tables of 6,000 entries each
// stay under the cap individually but breach the 10,000-entry module
// total.
func TestDecodeRejectsTableEntriesOverModuleWideCap(t *testing.T) {
	sixThousand := []byte{0xF0, 0x2E}
	b := append(wasmHeader(), tableSection(sixThousand, sixThousand)...)

	_, err := binary.DecodeModule(b, "tables.wasm", binary.Limits{PageLimit: 128})
	require.Error(t, err)
	var limitErr *wasm.LimitExceededError
	require.True(t, errors.As(err, &limitErr))
	require.Equal(t, "table entries", limitErr.What)
	require.Equal(t, uint64(12000), limitErr.Value)
}

// TestDecodeAcceptsTableEntriesAtModuleWideCap is the control case: a
// single table of exactly 10,000 entries passes the table check and
// fails later, on the missing entrypoint, instead.
func TestDecodeAcceptsTableEntriesAtModuleWideCap(t *testing.T) {
	tenThousand := []byte{0x90, 0x4E}
	b := append(wasmHeader(), tableSection(tenThousand)...)

	_, err := binary.DecodeModule(b, "tables.wasm", binary.Limits{PageLimit: 128})
	require.Error(t, err)
	var limitErr *wasm.LimitExceededError
	require.False(t, errors.As(err, &limitErr))
	var missing *wasm.MissingEntrypointError
	require.True(t, errors.As(err, &missing))
}
