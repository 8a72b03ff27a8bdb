package hostapi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeMemory struct {
	buf []byte
}

func newFakeMemory(size uint32) *fakeMemory { return &fakeMemory{buf: make([]byte, size)} }

func (m *fakeMemory) Size() uint32 { return uint32(len(m.buf)) }
func (m *fakeMemory) Grow(deltaPages uint32) (uint32, bool) {
	prev := uint32(len(m.buf)) / 65536
	m.buf = append(m.buf, make([]byte, uint64(deltaPages)*65536)...)
	return prev, true
}
func (m *fakeMemory) Read(offset, byteCount uint32) ([]byte, bool) {
	if uint64(offset)+uint64(byteCount) > uint64(len(m.buf)) {
		return nil, false
	}
	return m.buf[offset : offset+byteCount], true
}
func (m *fakeMemory) Write(offset uint32, data []byte) bool {
	if uint64(offset)+uint64(len(data)) > uint64(len(m.buf)) {
		return false
	}
	copy(m.buf[offset:], data)
	return true
}
func (m *fakeMemory) ReadUint32Le(offset uint32) (uint32, bool) {
	b, ok := m.Read(offset, 4)
	if !ok {
		return 0, false
	}
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24, true
}
func (m *fakeMemory) WriteUint32Le(offset uint32, v uint32) bool {
	return m.Write(offset, []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
}

func hookByName(name string) *HostFunc {
	for i := range VMHooks {
		if VMHooks[i].Name == name {
			return &VMHooks[i]
		}
	}
	return nil
}

func newTestContext() (*Context, *fakeMemory, *StubEvmApi) {
	mem := newFakeMemory(4096)
	evm := NewStubEvmApi()
	c := &Context{
		Memory:    mem,
		Evm:       evm,
		Data:      &EvmData{},
		Resources: &fakeState{inkLeft: 1 << 60},
		InkPrice:  1,
		Tracer:    NopTracer{},
	}
	return c, mem, evm
}

func TestStorageStoreThenLoadRoundtrips(t *testing.T) {
	c, mem, _ := newTestContext()

	var key, value Bytes32
	key[31] = 7
	value[0] = 0xaa
	mem.Write(0, key[:])
	mem.Write(32, value[:])

	require.NoError(t, hookByName("storage_store_bytes32").Invoke(c, []uint64{0, 32}))

	require.NoError(t, hookByName("storage_load_bytes32").Invoke(c, []uint64{0, 64}))
	got, ok := mem.Read(64, 32)
	require.True(t, ok)
	require.Equal(t, value[:], got)
}

func TestNativeKeccak256MatchesDirectCall(t *testing.T) {
	c, mem, _ := newTestContext()
	mem.Write(0, []byte("hello"))

	require.NoError(t, hookByName("native_keccak256").Invoke(c, []uint64{0, 5, 100}))

	got, ok := mem.Read(100, 32)
	require.True(t, ok)
	want := Keccak256([]byte("hello"))
	require.Equal(t, want[:], got)
}

func TestReadArgsWritesStagedInput(t *testing.T) {
	c, mem, _ := newTestContext()
	c.Input = []byte{1, 2, 3, 4}

	require.NoError(t, hookByName("read_args").Invoke(c, []uint64{10}))

	got, ok := mem.Read(10, 4)
	require.True(t, ok)
	require.Equal(t, c.Input, got)
}

func TestWriteResultCapturesOutput(t *testing.T) {
	c, mem, _ := newTestContext()
	mem.Write(0, []byte{9, 9, 9})

	require.NoError(t, hookByName("write_result").Invoke(c, []uint64{0, 3}))
	require.Equal(t, []byte{9, 9, 9}, c.Output)
}

func TestEmitLogRecordsOnStub(t *testing.T) {
	c, mem, evm := newTestContext()
	var topic0 Bytes32
	topic0[31] = 1
	mem.Write(0, topic0[:])

	require.NoError(t, hookByName("emit_log").Invoke(c, []uint64{0, 32, 1}))
	require.Len(t, evm.Logs, 1)
	require.Equal(t, uint32(1), evm.Logs[0].TopicCount)
}

func TestEmitLogRejectsUndersizedTopicData(t *testing.T) {
	c, mem, _ := newTestContext()
	mem.Write(0, []byte("topic0data"))

	err := hookByName("emit_log").Invoke(c, []uint64{0, 10, 1}) // 10 < 1*32
	require.Error(t, err)
}

func TestEmitLogRejectsTooManyTopics(t *testing.T) {
	c, mem, _ := newTestContext()
	mem.Write(0, make([]byte, 160))

	err := hookByName("emit_log").Invoke(c, []uint64{0, 160, 5}) // topics > 4
	require.Error(t, err)
}

// TestStorageStoreSentryRefusesUnderfundedWrite pins the EIP-2200
// reserve: with ink covering only 2299 gas, storage_store_bytes32 must
// refuse before the EvmApi sees the write.
func TestStorageStoreSentryRefusesUnderfundedWrite(t *testing.T) {
	c, mem, evm := newTestContext()
	c.Resources = &fakeState{inkLeft: 2299 * 100_000}

	var key, value Bytes32
	mem.Write(0, key[:])
	mem.Write(32, value[:])

	err := hookByName("storage_store_bytes32").Invoke(c, []uint64{0, 32})
	require.Error(t, err)
	require.Empty(t, evm.Storage, "the sentry must fire before SetBytes32")
}

func TestMsgReentrantReflectsEvmData(t *testing.T) {
	c, _, _ := newTestContext()

	stack := []uint64{0}
	require.NoError(t, hookByName("msg_reentrant").Invoke(c, stack))
	require.Equal(t, uint64(0), stack[0])

	c.Data.Reentrant = true
	require.NoError(t, hookByName("msg_reentrant").Invoke(c, stack))
	require.Equal(t, uint64(1), stack[0])
}

// TestReturnDataSizeTracksLastCall confirms return_data_size reports the
// retLen of the most recent sub-call rather than a stale value.
func TestReturnDataSizeTracksLastCall(t *testing.T) {
	c, mem, _ := newTestContext()
	mem.Write(0, make([]byte, 64))
	c.ReturnDataLen = 7 // left over from an earlier sub-call

	stack := []uint64{0, 32, 0, 32, 0, 60} // addr, data, len, value, gas, retLen out
	require.NoError(t, hookByName("call_contract").Invoke(c, stack))

	out := []uint64{0}
	require.NoError(t, hookByName("return_data_size").Invoke(c, out))
	require.Equal(t, uint64(0), out[0], "the stub's calls return no data")
}

func TestStorageLoadOutOfBoundsKeyErrors(t *testing.T) {
	c, _, _ := newTestContext()
	err := hookByName("storage_load_bytes32").Invoke(c, []uint64{100000, 0})
	require.Error(t, err)
}
