package ink

import (
	"testing"

	"github.com/inkvm/ink/api"
	"github.com/inkvm/ink/hostapi"
	"github.com/stretchr/testify/require"
)

// identityEntrypointWasm is a hand-assembled minimal WASM binary: one
// type section entry (i32)->(i32), one function, exported as
// user_entrypoint, whose body is just `i32.const 0; end` — the
// entrypoint's i32 result is a status code (0 = success), not guest
// output data, so a trivial success entrypoint returns the constant
// directly. It is built by hand rather than from a .wasm fixture file
// so the binary format stays readable in the test itself.
func identityEntrypointWasm() []byte {
	var b []byte
	b = append(b, 0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00) // \0asm, version 1

	// type section: (i32) -> (i32)
	b = append(b, 0x01, 0x06, 0x01, 0x60, 0x01, 0x7f, 0x01, 0x7f)

	// function section: function 0 uses type 0
	b = append(b, 0x03, 0x02, 0x01, 0x00)

	// export section: "user_entrypoint" -> func 0
	name := "user_entrypoint"
	exportContent := []byte{byte(len(name))}
	exportContent = append(exportContent, name...)
	exportContent = append(exportContent, 0x00, 0x00) // kind=func, index=0
	b = append(b, 0x07, byte(1+len(exportContent)))
	b = append(b, 0x01) // export count
	b = append(b, exportContent...)

	// code section: one function, no locals, `i32.const 0; end`
	fnBody := []byte{0x00, 0x41, 0x00, 0x0b}
	codePayload := []byte{0x01, byte(len(fnBody))} // function count, then this function's body size
	codePayload = append(codePayload, fnBody...)
	b = append(b, 0x0a, byte(len(codePayload)))
	b = append(b, codePayload...)

	return b
}

func TestCompileModuleAcceptsMinimalValidModule(t *testing.T) {
	_, err := CompileModule(identityEntrypointWasm(), NewRuntimeConfig())
	require.NoError(t, err)
}

func TestCompileModuleRejectsTruncatedInput(t *testing.T) {
	_, err := CompileModule([]byte{0x00, 0x61, 0x73}, NewRuntimeConfig())
	require.Error(t, err)
}

func TestCompileModuleRejectsReservedExportName(t *testing.T) {
	patched := append([]byte{}, identityEntrypointWasm()...)
	// The export name field starts right after the fixed 8-byte header,
	// 8-byte type section, 4-byte function section, and the export
	// section's own 2-byte [id, size] plus 1-byte count plus 1-byte name
	// length: offset 8+8+4+2+1+1 = 24. Overwriting its first 6 bytes
	// ("user_e" -> "stylus") keeps the 15-byte name field's length
	// unchanged while tripping the reserved-prefix check: "stylusntrypoint".
	const nameOffset = 8 + 8 + 4 + 2 + 1 + 1
	require.Equal(t, byte('u'), patched[nameOffset])
	copy(patched[nameOffset:nameOffset+6], "stylus")

	_, err := CompileModule(patched, NewRuntimeConfig())
	require.Error(t, err)
}

func TestCompiledModuleLinkAndInvokeRoundtrips(t *testing.T) {
	compiled, err := CompileModule(identityEntrypointWasm(), NewRuntimeConfig())
	require.NoError(t, err)

	program, err := Link(compiled, hostapi.NewStubEvmApi(), &hostapi.EvmData{}, nil)
	require.NoError(t, err)

	outcome, err := program.Invoke(10_000_000, []byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, api.StatusSuccess, outcome.Status)
	require.Nil(t, outcome.Output)
	require.Greater(t, outcome.InkConsumed, uint64(0))
}

func TestCompileModuleRejectsFrameBudgetBelowEveryFunction(t *testing.T) {
	// maxDepth of 1 word cannot fit even the identity function's fixed
	// 4-word frame overhead, so instrumentation must reject it outright
	// rather than deferring to a runtime trap that could never fire.
	_, err := CompileModule(identityEntrypointWasm(), NewRuntimeConfig().WithMaxDepth(1))
	require.Error(t, err)
}
