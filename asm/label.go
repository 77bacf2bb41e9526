package asm

// ExternalLabel names a native entry point outside generated code. The
// address is process-lifetime stable; the name exists for diagnostics.
type ExternalLabel struct {
	name    string
	address uint64
}

// NewExternalLabel creates a label for a native entry point.
func NewExternalLabel(name string, address uint64) *ExternalLabel {
	return &ExternalLabel{name: name, address: address}
}

// Name returns the label's diagnostic name.
func (l *ExternalLabel) Name() string {
	return l.name
}

// Address returns the native entry point address.
func (l *ExternalLabel) Address() uint64 {
	return l.address
}
