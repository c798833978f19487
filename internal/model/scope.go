package model

import "fmt"

// Scope is the nesting level of the analytics being viewed.
type Scope int

const (
	ScopeNationwide Scope = iota
	ScopeSchool
	ScopeClass
	ScopeStudent
)

const scopeCount = 4

var scopeNames = [scopeCount]string{"nationwide", "school", "class", "student"}

func (s Scope) Valid() bool {
	return s >= ScopeNationwide && s <= ScopeStudent
}

func (s Scope) Depth() int {
	return int(s)
}

func (s Scope) String() string {
	if !s.Valid() {
		return fmt.Sprintf("scope(%d)", int(s))
	}
	return scopeNames[s]
}

// Parent returns the enclosing scope; Nationwide has none.
func (s Scope) Parent() (Scope, bool) {
	if s <= ScopeNationwide || !s.Valid() {
		return ScopeNationwide, false
	}
	return s - 1, true
}

func ParseScope(v string) (Scope, error) {
	for i, name := range scopeNames {
		if name == v {
			return Scope(i), nil
		}
	}
	return ScopeNationwide, fmt.Errorf("unknown scope %q", v)
}

func (s Scope) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid scope %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Scope) UnmarshalText(b []byte) error {
	parsed, err := ParseScope(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
