package model

import "time"

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleSchool UserRole = "school"
)

// DashboardSession is the persisted snapshot of one navigation session.
type DashboardSession struct {
	UUIDBase
	UserID          string    `gorm:"size:64;index" json:"userId"`
	Role            UserRole  `gorm:"size:20" json:"role"`
	Scope           string    `gorm:"size:20" json:"scope"`
	SchoolID        string    `gorm:"size:64" json:"schoolId"`
	ClassName       string    `gorm:"size:64" json:"className"`
	StudentID       string    `gorm:"size:64" json:"studentId"`
	Filters         FilterSet `gorm:"type:text;serializer:json" json:"filters"`
	PendingDeepLink string    `gorm:"size:64" json:"pendingDeepLink,omitempty"`
	LastActiveAt    time.Time `gorm:"index" json:"lastActiveAt"`
}

func (DashboardSession) TableName() string {
	return "dashboard_sessions"
}

// State rebuilds the navigation state; an unparseable scope falls back to
// Nationwide with an empty selection.
func (s *DashboardSession) State() NavigationState {
	scope, err := ParseScope(s.Scope)
	if err != nil {
		return NewNavigationState()
	}
	state := NavigationState{
		Scope: scope,
		Selection: Selection{
			SchoolID:  s.SchoolID,
			ClassName: s.ClassName,
			StudentID: s.StudentID,
		},
		Filters: s.Filters.ClearBelow(scope),
	}
	if !state.Selection.ValidFor(scope) {
		return NewNavigationState()
	}
	return state
}

func (s *DashboardSession) Apply(state NavigationState) {
	s.Scope = state.Scope.String()
	s.SchoolID = state.Selection.SchoolID
	s.ClassName = state.Selection.ClassName
	s.StudentID = state.Selection.StudentID
	s.Filters = state.Filters
}

// ExportRecord tracks a snapshot written to object storage.
type ExportRecord struct {
	UUIDBase
	SessionID string `gorm:"size:36;index" json:"sessionId"`
	UserID    string `gorm:"size:64;index" json:"userId"`
	Scope     string `gorm:"size:20" json:"scope"`
	ObjectKey string `gorm:"size:255" json:"objectKey"`
	URL       string `gorm:"size:1024" json:"url"`
	Rows      int    `json:"rows"`
}

func (ExportRecord) TableName() string {
	return "export_records"
}

// Principal is the authenticated caller a session belongs to.
type Principal struct {
	UserID   string   `json:"userId"`
	Role     UserRole `json:"role"`
	SchoolID string   `json:"schoolId,omitempty"`
}
