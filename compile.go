package ink

import (
	"fmt"

	"github.com/inkvm/ink/internal/interp"
	"github.com/inkvm/ink/internal/middleware"
	"github.com/inkvm/ink/internal/wasm"
	"github.com/inkvm/ink/internal/wasm/binary"
)

// CompiledModule is a decoded, validated, and instrumented program ready
// to be linked against a host (spec C1-C3 output, C4 input). It holds no
// per-run state; many Instances may be linked from the same
// CompiledModule concurrently.
type CompiledModule struct {
	cfg       RuntimeConfig
	pipeline  *middleware.Result
	compiled  *interp.CompiledModule
}

// CompileModule decodes, validates, and instruments wasm, the raw bytes
// of a WASM binary, per cfg's pricing and limits. It returns a
// *wasm.FeatureUnsupportedError, a structural decode/validation error, or
// a middleware.Result error (entrypoint missing, frame too large,
// heap/table budget exceeded) on failure — never a panic, since this
// path runs directly on untrusted input.
func CompileModule(wasmBytes []byte, cfg RuntimeConfig) (*CompiledModule, error) {
	logger := cfg.logger
	if logger == nil {
		logger = defaultLogger()
	}

	m, err := binary.DecodeModule(wasmBytes, "module.wasm", binary.Limits{PageLimit: cfg.memoryMaxPages})
	if err != nil {
		logger.WithError(err).Debug("ink: decode failed")
		return nil, err
	}

	profile, err := middleware.ProfileForVersion(cfg.version)
	if err != nil {
		return nil, err
	}
	if m.TableBytes() > cfg.tableMaxBytes {
		return nil, fmt.Errorf("ink: table footprint %d exceeds limit %d", m.TableBytes(), cfg.tableMaxBytes)
	}

	pipelineResult, err := middleware.Run(m, profile, cfg.maxDepth, cfg.countingOps)
	if err != nil {
		logger.WithError(err).Debug("ink: instrumentation failed")
		return nil, err
	}

	compiled, err := interp.Compile(m)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrusFields(m)).Debug("ink: module compiled")
	return &CompiledModule{cfg: cfg, pipeline: pipelineResult, compiled: compiled}, nil
}

func logrusFields(m *wasm.Module) map[string]interface{} {
	return map[string]interface{}{
		"functions": m.FunctionCount(),
		"memories":  len(m.Memories),
		"tables":    len(m.Tables),
	}
}
