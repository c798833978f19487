package model

import "strings"

// Selection is the chain of ancestor identifiers for the current scope.
type Selection struct {
	SchoolID  string `json:"schoolId,omitempty"`
	ClassName string `json:"className,omitempty"`
	StudentID string `json:"studentId,omitempty"`
}

func (s Selection) fields() [3]string {
	return [3]string{s.SchoolID, s.ClassName, s.StudentID}
}

// ValidFor reports whether every field up to the scope's depth is populated
// and every deeper field is empty.
func (s Selection) ValidFor(scope Scope) bool {
	if !scope.Valid() {
		return false
	}
	for i, v := range s.fields() {
		populated := v != ""
		if populated != (i < scope.Depth()) {
			return false
		}
	}
	return true
}

// Truncate clears every field deeper than the scope.
func (s Selection) Truncate(scope Scope) Selection {
	out := s
	if scope.Depth() < 3 {
		out.StudentID = ""
	}
	if scope.Depth() < 2 {
		out.ClassName = ""
	}
	if scope.Depth() < 1 {
		out.SchoolID = ""
	}
	return out
}

// Key encodes the selection subset visible at scope.
func (s Selection) Key(scope Scope) string {
	t := s.Truncate(scope).fields()
	return strings.Join(t[:scope.Depth()], "/")
}
