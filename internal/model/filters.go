package model

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

type FilterKey string

const (
	FilterBranch     FilterKey = "branchId"
	FilterClass      FilterKey = "className"
	FilterSection    FilterKey = "sectionName"
	FilterAssessment FilterKey = "assessmentId"
	FilterSearch     FilterKey = "searchText"
	FilterPage       FilterKey = "page"
)

var filterKeys = []FilterKey{FilterBranch, FilterClass, FilterSection, FilterAssessment, FilterSearch, FilterPage}

func ParseFilterKey(v string) (FilterKey, error) {
	for _, k := range filterKeys {
		if string(k) == v {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown filter %q", v)
}

// Filters narrows the data shown at one scope. Page only applies to the
// nationwide school listing.
type Filters struct {
	BranchID     string `json:"branchId,omitempty"`
	ClassName    string `json:"className,omitempty"`
	SectionName  string `json:"sectionName,omitempty"`
	AssessmentID string `json:"assessmentId,omitempty"`
	SearchText   string `json:"searchText,omitempty"`
	Page         string `json:"page,omitempty"`
}

func (f Filters) Get(key FilterKey) string {
	switch key {
	case FilterBranch:
		return f.BranchID
	case FilterClass:
		return f.ClassName
	case FilterSection:
		return f.SectionName
	case FilterAssessment:
		return f.AssessmentID
	case FilterSearch:
		return f.SearchText
	case FilterPage:
		return f.Page
	}
	return ""
}

// PageNumber is the listing page, 1 when unset or malformed.
func (f Filters) PageNumber() int {
	n, err := strconv.Atoi(f.Page)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func (f Filters) IsZero() bool {
	return f == Filters{}
}

// Key is a stable encoding used in cache keys.
func (f Filters) Key() string {
	v := url.Values{}
	for _, k := range filterKeys {
		if val := f.Get(k); val != "" {
			v.Set(string(k), val)
		}
	}
	return v.Encode()
}

// FilterSet holds one Filters value per scope.
type FilterSet [scopeCount]Filters

func (fs FilterSet) At(scope Scope) Filters {
	if !scope.Valid() {
		return Filters{}
	}
	return fs[scope]
}

// ClearBelow resets the filters of every scope deeper than scope.
func (fs FilterSet) ClearBelow(scope Scope) FilterSet {
	out := fs
	for s := scope + 1; s.Valid(); s++ {
		out[s] = Filters{}
	}
	return out
}

func (fs FilterSet) MarshalJSON() ([]byte, error) {
	m := make(map[string]Filters, scopeCount)
	for i, f := range fs {
		m[Scope(i).String()] = f
	}
	return json.Marshal(m)
}

func (fs *FilterSet) UnmarshalJSON(b []byte) error {
	var m map[string]Filters
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	var out FilterSet
	for name, f := range m {
		s, err := ParseScope(name)
		if err != nil {
			return err
		}
		out[s] = f
	}
	*fs = out
	return nil
}

// ClassEntry is one class/section pair from the school's class catalogue.
type ClassEntry struct {
	ClassName   string `json:"className"`
	SectionName string `json:"sectionName"`
}
