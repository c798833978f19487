package model

// Breadcrumb is one element of the trail from Nationwide to the current scope.
type Breadcrumb struct {
	Scope Scope  `json:"scope"`
	ID    string `json:"id,omitempty"`
	Label string `json:"label"`
}

// NavigationState is the single source of truth for what a session displays.
type NavigationState struct {
	Scope     Scope     `json:"scope"`
	Selection Selection `json:"selection"`
	Filters   FilterSet `json:"filters"`
}

func NewNavigationState() NavigationState {
	return NavigationState{Scope: ScopeNationwide}
}

// CurrentFilters returns the filters of the current scope.
func (s NavigationState) CurrentFilters() Filters {
	return s.Filters.At(s.Scope)
}

// NameLookup resolves a display name for the node at scope with identifier id.
type NameLookup func(scope Scope, id string) (string, bool)

const NationwideLabel = "All Schools"

// Breadcrumbs projects state into an ordered trail. Unresolved names fall
// back to the identifier.
func Breadcrumbs(state NavigationState, names NameLookup) []Breadcrumb {
	trail := []Breadcrumb{{Scope: ScopeNationwide, Label: NationwideLabel}}
	ids := state.Selection.fields()
	for s := ScopeSchool; s <= state.Scope && s.Valid(); s++ {
		id := ids[s.Depth()-1]
		label := id
		if names != nil {
			if n, ok := names(s, id); ok && n != "" {
				label = n
			}
		}
		trail = append(trail, Breadcrumb{Scope: s, ID: id, Label: label})
	}
	return trail
}

// SlotError describes why the current scope has no data.
type SlotError struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// NavigationView is what a session renders: state, trail and the data of
// the current scope.
type NavigationView struct {
	State           NavigationState `json:"state"`
	Breadcrumbs     []Breadcrumb    `json:"breadcrumbs"`
	Data            *ScopeData      `json:"data,omitempty"`
	Empty           bool            `json:"empty"`
	Loaded          bool            `json:"loaded"`
	Loading         bool            `json:"loading"`
	Error           *SlotError      `json:"error,omitempty"`
	PendingDeepLink string          `json:"pendingDeepLink,omitempty"`
}
