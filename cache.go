package ink

import (
	"crypto/sha256"
	"encoding/binary"
	"sync"
)

// CompilationCache memoizes CompileModule by the hash of its input bytes
// and configuration, avoiding redundant decode/validate/instrument work
// when the same program is compiled repeatedly (e.g. once per incoming
// transaction targeting the same contract). Unlike the teacher lineage's
// disk-persistent cache, this one is in-memory only and scoped to the
// process: the engine never writes compiled artifacts to disk on its
// own (spec §9: caching is an embedder concern beyond compiling once).
type CompilationCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]*CompiledModule
}

type cacheKey [32]byte

// NewCompilationCache returns an empty cache.
func NewCompilationCache() *CompilationCache {
	return &CompilationCache{entries: make(map[cacheKey]*CompiledModule)}
}

// CompileModule behaves like the package-level CompileModule, but
// returns a cached result when wasmBytes and cfg were seen before.
func (c *CompilationCache) CompileModule(wasmBytes []byte, cfg RuntimeConfig) (*CompiledModule, error) {
	key := hashKey(wasmBytes, cfg)

	c.mu.RLock()
	cached, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	compiled, err := CompileModule(wasmBytes, cfg)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = compiled
	c.mu.Unlock()
	return compiled, nil
}

// Len returns the number of distinct compiled programs currently cached.
func (c *CompilationCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func hashKey(wasmBytes []byte, cfg RuntimeConfig) cacheKey {
	h := sha256.New()
	h.Write(wasmBytes)
	var scratch [8]byte
	binary.LittleEndian.PutUint16(scratch[0:2], cfg.version)
	binary.LittleEndian.PutUint32(scratch[2:6], cfg.inkPrice)
	h.Write(scratch[:6])
	binary.LittleEndian.PutUint64(scratch[:], cfg.hostioInk)
	h.Write(scratch[:])
	binary.LittleEndian.PutUint32(scratch[0:4], cfg.maxDepth)
	binary.LittleEndian.PutUint32(scratch[4:8], cfg.memoryMaxPages)
	h.Write(scratch[:])
	binary.LittleEndian.PutUint64(scratch[:], cfg.tableMaxBytes)
	h.Write(scratch[:])
	if cfg.countingOps {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	var out cacheKey
	h.Sum(out[:0])
	return out
}
