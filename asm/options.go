package asm

// Options configures emission behavior. Passed explicitly into
// constructors instead of living in process-wide flags, so concurrent
// compilation units can be configured independently.
type Options struct {
	// EmitComments enables human-readable annotations recorded alongside
	// emission, keyed by code offset.
	EmitComments bool

	// VerifyCodePointer enables an extra verification step on finalized
	// code artifacts.
	VerifyCodePointer bool
}
