package interp

import (
	"fmt"

	"github.com/inkvm/ink/api"
)

// memView adapts an Instance's linear memory to api.Memory. It is a thin
// pointer wrapper rather than a copy: growth and writes through the
// interpreter are immediately visible to any memView an embedder holds.
type memView struct{ in *Instance }

func (in *Instance) Memory() api.Memory {
	if in.memory == nil && in.memoryMax == 0 {
		return nil
	}
	return memView{in: in}
}

func (m memView) Size() uint32 { return uint32(len(m.in.memory)) }

func (m memView) Grow(deltaPages uint32) (uint32, bool) {
	return m.in.growMemory(deltaPages)
}

func (m memView) Read(offset, byteCount uint32) ([]byte, bool) {
	if uint64(offset)+uint64(byteCount) > uint64(len(m.in.memory)) {
		return nil, false
	}
	return m.in.memory[offset : offset+byteCount], true
}

func (m memView) Write(offset uint32, data []byte) bool {
	if uint64(offset)+uint64(len(data)) > uint64(len(m.in.memory)) {
		return false
	}
	copy(m.in.memory[offset:], data)
	return true
}

func (m memView) ReadUint32Le(offset uint32) (uint32, bool) {
	b, ok := m.Read(offset, 4)
	if !ok {
		return 0, false
	}
	return leUint32(b), true
}

func (m memView) WriteUint32Le(offset uint32, v uint32) bool {
	return m.Write(offset, le32(v))
}

// globalView adapts one of an Instance's globals to api.Global /
// api.MutableGlobal.
type globalView struct {
	in  *Instance
	idx int
}

func (g globalView) Type() api.ValueType { return byte(g.in.globalType[g.idx].ValType) }
func (g globalView) Get() uint64         { return g.in.globals[g.idx] }
func (g globalView) Set(v uint64)        { g.in.globals[g.idx] = v }
func (g globalView) String() string {
	return fmt.Sprintf("global(%s)=0x%x", api.ValueTypeName(g.Type()), g.Get())
}

func (in *Instance) Global(name string) (api.Global, bool) {
	idx, ok := in.globalName[name]
	if !ok {
		return nil, false
	}
	return globalView{in: in, idx: idx}, true
}

func (in *Instance) Footprint() uint32 {
	if len(in.compiled.Module.Memories) == 0 {
		return 0
	}
	return in.compiled.Module.Memories[0].Minimum
}

// ResetOpcodeCounts zeroes every injected counter global, part of the
// executor's per-invocation initialization alongside the ink and depth
// resets.
func (in *Instance) ResetOpcodeCounts() {
	for _, idx := range in.opcodeCounterIdx {
		in.globals[idx] = 0
	}
}

func (in *Instance) OpcodeCounts() (map[string]uint64, bool) {
	if len(in.opcodeCounterIdx) == 0 {
		return nil, false
	}
	out := make(map[string]uint64, len(in.opcodeCounterIdx))
	for name, idx := range in.opcodeCounterIdx {
		out[name] = in.globals[idx]
	}
	return out, true
}

var _ api.Instance = (*Instance)(nil)
