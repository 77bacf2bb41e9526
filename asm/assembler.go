package asm

import (
	"fmt"
	"log"

	"github.com/arctany/ember/vm"
)

// CodeComment is a human-readable annotation attached to a code offset,
// recorded during emission and carried into the finished artifact for
// disassembly listings.
type CodeComment struct {
	PCOffset int
	Text     string
}

// Assembler is the base every architecture-specific instruction encoder
// builds on: the code buffer, the object pool builder, the configured
// options, and the comment stream.
type Assembler struct {
	buffer   *Buffer
	pool     *PoolBuilder
	opts     Options
	comments []CodeComment
}

// NewAssembler creates an assembler for one compilation unit. The scope,
// when non-nil, receives every tagged value the pool retains.
func NewAssembler(opts Options, scope *vm.Scope) *Assembler {
	return &Assembler{
		buffer: NewBuffer(),
		pool:   NewPoolBuilder(scope),
		opts:   opts,
	}
}

// Buffer returns the assembler's code buffer.
func (a *Assembler) Buffer() *Buffer {
	return a.buffer
}

// Pool returns the assembler's object pool builder.
func (a *Assembler) Pool() *PoolBuilder {
	return a.pool
}

// Options returns the assembler's configuration.
func (a *Assembler) Options() Options {
	return a.opts
}

// EmittingComments reports whether Comment calls record anything.
func (a *Assembler) EmittingComments() bool {
	return a.opts.EmitComments
}

// Comment records an annotation at the current code offset. A no-op
// unless comments are enabled.
func (a *Assembler) Comment(format string, args ...any) {
	if !a.EmittingComments() {
		return
	}
	a.comments = append(a.comments, CodeComment{
		PCOffset: a.buffer.Position(),
		Text:     fmt.Sprintf(format, args...),
	})
}

// CodeComments returns the recorded annotations in emission order.
func (a *Assembler) CodeComments() []CodeComment {
	return a.comments
}

// ---------------------------------------------------------------------------
// Stop helpers
// ---------------------------------------------------------------------------

// Stop aborts code generation with a fatal message.
func (a *Assembler) Stop(message string) {
	log.Printf("Assembler: %s", message)
	panic("Assembler.Stop: " + message)
}

// Unimplemented aborts on a code path that is not implemented yet.
func (a *Assembler) Unimplemented(message string) {
	a.Stop("Unimplemented: " + message)
}

// Untested aborts on a code path that has never been exercised.
func (a *Assembler) Untested(message string) {
	a.Stop("Untested: " + message)
}

// Unreachable aborts on a code path that must not be reachable.
func (a *Assembler) Unreachable(message string) {
	a.Stop("Unreachable: " + message)
}
