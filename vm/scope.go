package vm

// ---------------------------------------------------------------------------
// Scope: long-lived storage for managed values
// ---------------------------------------------------------------------------

// Scope is a storage scope that keeps adopted objects alive and vouches
// for their lifetime. When we convert an Object pointer to an integer
// (for NaN-boxing), Go can't track the reference anymore, so the scope
// maintains a Go-visible reference to every adopted object.
//
// Components that retain values past the caller's frame (the object pool,
// reference-slot fixups) require the values to be scope-stable: either a
// non-reference value or an object adopted by some scope.
type Scope struct {
	name    string
	objects map[*Object]struct{}
}

// NewScope creates an empty storage scope.
func NewScope(name string) *Scope {
	return &Scope{
		name:    name,
		objects: make(map[*Object]struct{}),
	}
}

// Name returns the scope's diagnostic name.
func (s *Scope) Name() string {
	return s.name
}

// Adopt copies a reference into the scope, ensuring the referenced object
// survives as long as the scope does. Non-reference values are returned
// unchanged; they are stable by construction.
func (s *Scope) Adopt(v Value) Value {
	if !v.IsObject() {
		return v
	}
	obj := MustObjectFromValue(v)
	s.objects[obj] = struct{}{}
	if obj.owner == nil {
		obj.owner = s
	}
	return v
}

// Contains returns true if the scope has adopted the value's object.
// Non-reference values are never contained; they don't need adoption.
func (s *Scope) Contains(v Value) bool {
	if !v.IsObject() {
		return false
	}
	_, ok := s.objects[MustObjectFromValue(v)]
	return ok
}

// Len returns the number of adopted objects.
func (s *Scope) Len() int {
	return len(s.objects)
}

// Clear drops every adopted reference. Objects solely owned by this scope
// become non-stable again.
func (s *Scope) Clear() {
	for obj := range s.objects {
		if obj.owner == s {
			obj.owner = nil
		}
	}
	s.objects = make(map[*Object]struct{})
}

// IsScopeStable reports whether v may be retained past the current frame:
// true for all non-reference values, and for objects adopted by a scope.
func IsScopeStable(v Value) bool {
	if !v.IsObject() {
		return true
	}
	return MustObjectFromValue(v).owner != nil
}
