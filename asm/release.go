//go:build release

package asm

// Contract checks are compiled out in release builds; the invariants they
// check remain hard contracts on every instruction encoder.
const debugAssertions = false
