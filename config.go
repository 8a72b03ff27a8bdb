package ink

import "github.com/sirupsen/logrus"

// RuntimeConfig controls how CompileModule and Link behave: the pricing
// and limits every instrumentation pass needs, plus ambient concerns
// like logging. Like the teacher lineage's own RuntimeConfig, every
// With* method returns a shallow copy so a base config can be reused
// across many derived ones without aliasing surprises.
type RuntimeConfig struct {
	version uint16

	inkPrice  uint32
	hostioInk uint64
	maxDepth  uint32

	memoryMaxPages uint32
	tableMaxBytes  uint64

	countingOps bool

	logger *logrus.Logger
}

// NewRuntimeConfig returns the default configuration: price 1 (1 gas is
// 100,000 ink at GasToInk's fixed scale), no hostio surcharge, a generous
// call-depth ceiling, and opcode counting disabled.
func NewRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		version:        1,
		inkPrice:       1,
		hostioInk:      0,
		maxDepth:       4 * 1024,
		memoryMaxPages: 2 * 1024, // 128 MiB
		tableMaxBytes:  4 * 1024 * 1024,
		countingOps:    false,
		logger:         defaultLogger(),
	}
}

func defaultLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return l
}

// WithVersion sets the instrumentation profile version (spec §3
// supplemented feature: versioned CompileConfig profiles). Different
// versions may price pricing tables differently; see
// internal/middleware.ProfileForVersion.
func (c RuntimeConfig) WithVersion(v uint16) RuntimeConfig {
	c.version = v
	return c
}

// WithInkPrice sets the ink-per-gas conversion rate used by the host-call
// ink/gas bridge. The static meter's per-opcode ink costs come from the
// version profile and do not depend on it.
func (c RuntimeConfig) WithInkPrice(price uint32) RuntimeConfig {
	c.inkPrice = price
	return c
}

// WithHostioInk sets the flat ink cost charged for every vm_hooks call
// before any operation-specific cost.
func (c RuntimeConfig) WithHostioInk(ink uint64) RuntimeConfig {
	c.hostioInk = ink
	return c
}

// WithMaxDepth sets the call-stack depth budget in words, consumed by
// the depth middleware's worst-case frame analysis.
func (c RuntimeConfig) WithMaxDepth(words uint32) RuntimeConfig {
	c.maxDepth = words
	return c
}

// WithPageLimit sets the maximum initial number of 64KiB linear memory
// pages a module may declare; CompileModule rejects a module whose memory
// minimum exceeds it. Growth at run time is bounded by the version
// profile's heap bound, not by this value.
func (c RuntimeConfig) WithPageLimit(pages uint32) RuntimeConfig {
	c.memoryMaxPages = pages
	return c
}

// WithTableByteLimit sets the maximum declared table footprint (spec
// §4.2.6 heap/table byte-budget bounding), rejecting modules whose
// wasm.Module.TableBytes() exceeds it at compile time.
func (c RuntimeConfig) WithTableByteLimit(maxBytes uint64) RuntimeConfig {
	c.tableMaxBytes = maxBytes
	return c
}

// WithCountingOps enables the optional per-opcode debug counter pass.
func (c RuntimeConfig) WithCountingOps(enabled bool) RuntimeConfig {
	c.countingOps = enabled
	return c
}

// WithLogger overrides the logger used for compile and link diagnostics.
func (c RuntimeConfig) WithLogger(l *logrus.Logger) RuntimeConfig {
	c.logger = l
	return c
}
