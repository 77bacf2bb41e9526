//go:build !release

package asm

// debugAssertions enables the contract checks that are too costly for a
// production code generator: the EnsureCapacity guard bookkeeping, the
// emission-after-finalize checks, and buffer pre-fill with breakpoint
// bytes. Build with -tags release to compile them out.
const debugAssertions = true
