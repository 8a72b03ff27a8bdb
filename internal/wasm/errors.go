package wasm

import "fmt"

// FeatureUnsupportedError reports an operator or section construct
// outside this engine's supported feature subset.
type FeatureUnsupportedError struct {
	Kind string // e.g. "simd", "threads", "reference-types", "tail-call", "exceptions", "bulk-memory"
	Op   string
}

func (e *FeatureUnsupportedError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("wasm: unsupported feature %s (operator %s)", e.Kind, e.Op)
	}
	return fmt.Sprintf("wasm: unsupported feature %s", e.Kind)
}

// LimitExceededError reports a structural count or size limit violation.
type LimitExceededError struct {
	What  string
	Value uint64
	Max   uint64
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("wasm: %s exceeds limit: %d > %d", e.What, e.Value, e.Max)
}

// ReservedNameError reports use of the `stylus`-reserved name prefix
// by user-supplied import/export names.
type ReservedNameError struct {
	Name string
}

func (e *ReservedNameError) Error() string {
	return fmt.Sprintf("wasm: name %q uses reserved prefix", e.Name)
}

// BadSignatureError reports a required export with the wrong type.
type BadSignatureError struct {
	Name     string
	Expected string
	Got      string
}

func (e *BadSignatureError) Error() string {
	return fmt.Sprintf("wasm: %s has signature %s, expected %s", e.Name, e.Got, e.Expected)
}

// NonConstantInitializerError reports a global initializer that is not
// one of the four `T.const` forms.
type NonConstantInitializerError struct{}

func (e *NonConstantInitializerError) Error() string {
	return "wasm: global initializer is not a constant expression"
}

// DuplicateInconsistentImportError reports the same (module, name)
// import pair bound to two different signatures.
type DuplicateInconsistentImportError struct {
	Module, Name string
}

func (e *DuplicateInconsistentImportError) Error() string {
	return fmt.Sprintf("wasm: import %s.%s repeated with inconsistent signature", e.Module, e.Name)
}

// MissingEntrypointError reports the absence of the required
// `user_entrypoint` export.
type MissingEntrypointError struct{}

func (e *MissingEntrypointError) Error() string {
	return "wasm: missing required export \"user_entrypoint\""
}

// StartFunctionForbiddenError reports a start section present in
// user-supplied input, which is forbidden at parse time.
type StartFunctionForbiddenError struct{}

func (e *StartFunctionForbiddenError) Error() string {
	return "wasm: start function is forbidden in user input"
}

// MemoryTooLargeError reports an initial memory page count above the
// caller-supplied page limit.
type MemoryTooLargeError struct {
	Initial, Limit uint32
}

func (e *MemoryTooLargeError) Error() string {
	return fmt.Sprintf("wasm: initial memory %d pages exceeds limit %d", e.Initial, e.Limit)
}

// MalformedSectionError reports a structurally invalid section
// (bad LEB128, index out of range, truncated section, etc.)
type MalformedSectionError struct {
	Section SectionID
	Reason  string
}

func (e *MalformedSectionError) Error() string {
	return fmt.Sprintf("wasm: malformed %s section: %s", e.Section, e.Reason)
}
