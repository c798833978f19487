package model

import "time"

type CompletionStats struct {
	TotalStudents     int     `json:"totalStudents"`
	CompletedStudents int     `json:"completedStudents"`
	PendingStudents   int     `json:"pendingStudents"`
	CompletionRate    float64 `json:"completionRate"`
	AvgScore          float64 `json:"avgScore"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// SchoolSummary is one entry of the nationwide listing. ID is the query
// service's identifier, Code the externally visible school identifier.
type SchoolSummary struct {
	ID              string          `json:"id"`
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	Logo            string          `json:"logo,omitempty"`
	StudentCount    int             `json:"studentCount"`
	SubmissionCount int             `json:"submissionCount"`
	CompletionRate  float64         `json:"completionRate"`
	Branches        []SchoolSummary `json:"branches"`
}

func (s SchoolSummary) matches(id string) bool {
	return id != "" && (s.ID == id || s.Code == id)
}

// FindSchool looks an identifier up among top-level entries and their
// branches, depth first.
func FindSchool(schools []SchoolSummary, id string) (SchoolSummary, bool) {
	for _, s := range schools {
		if s.matches(id) {
			return s, true
		}
		if b, ok := FindSchool(s.Branches, id); ok {
			return b, true
		}
	}
	return SchoolSummary{}, false
}

type SchoolRank struct {
	SchoolID        string  `json:"schoolId"`
	Name            string  `json:"name"`
	Logo            string  `json:"logo,omitempty"`
	SubmissionCount int     `json:"submissionCount"`
	AvgScore        float64 `json:"avgScore"`
}

type NationwideTotals struct {
	Schools     int `json:"totalSchools"`
	Students    int `json:"totalStudents"`
	Submissions int `json:"totalSubmissions"`
}

type NationwideOverview struct {
	Totals     NationwideTotals `json:"totals"`
	Aggregates AggregateView    `json:"aggregates"`
	TopSchools []SchoolRank     `json:"topSchools"`
	Schools    []SchoolSummary  `json:"schools"`
	Pagination Pagination       `json:"pagination"`
}

type SchoolInfo struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Logo     string `json:"logo,omitempty"`
	Address  string `json:"address,omitempty"`
	ParentID string `json:"parentId,omitempty"`
}

type ClassRollup struct {
	ClassName           string          `json:"className"`
	Stats               CompletionStats `json:"stats"`
	SkillDistribution   Distribution    `json:"skillDistribution"`
	OverallDistribution BucketCounts    `json:"overallDistribution"`
}

type RecentSubmission struct {
	ID              string    `json:"id"`
	StudentID       string    `json:"studentId"`
	StudentName     string    `json:"studentName"`
	ClassName       string    `json:"className"`
	SectionName     string    `json:"sectionName"`
	SchoolName      string    `json:"schoolName,omitempty"`
	AssessmentTitle string    `json:"assessmentTitle"`
	TotalScore      float64   `json:"totalScore"`
	SubmittedAt     time.Time `json:"submittedAt"`
}

type SchoolAnalytics struct {
	School            SchoolInfo         `json:"school"`
	Stats             CompletionStats    `json:"stats"`
	Classes           []ClassRollup      `json:"classes"`
	ClassCatalog      []ClassEntry       `json:"classCatalog"`
	RecentSubmissions []RecentSubmission `json:"recentSubmissions"`
	Aggregates        AggregateView      `json:"aggregates"`
}

// RosterEntry is one student of a class listing; the bucket is derived from
// TotalScore when rendered.
type RosterEntry struct {
	ID            string                   `json:"id"`
	Name          string                   `json:"name"`
	AccessID      string                   `json:"accessId"`
	ClassName     string                   `json:"className"`
	SectionName   string                   `json:"sectionName"`
	RollNo        string                   `json:"rollNo,omitempty"`
	HasSubmission bool                     `json:"hasSubmission"`
	TotalScore    float64                  `json:"totalScore"`
	SectionScores map[SkillAreaKey]float64 `json:"sectionScores"`
	SubmittedAt   time.Time                `json:"submittedAt"`
}

type ClassAnalytics struct {
	School         SchoolInfo      `json:"school"`
	ClassName      string          `json:"className"`
	CurrentSection string          `json:"currentSection,omitempty"`
	Sections       []string        `json:"sections"`
	Stats          CompletionStats `json:"stats"`
	Aggregates     AggregateView   `json:"aggregates"`
	Students       []RosterEntry   `json:"students"`
}

type StudentInfo struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	AccessID    string     `json:"accessId"`
	ClassName   string     `json:"className"`
	SectionName string     `json:"sectionName"`
	RollNo      string     `json:"rollNo,omitempty"`
	School      SchoolInfo `json:"school"`
}

type TestRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type StudentAnalytics struct {
	Student        StudentInfo   `json:"student"`
	Submissions    []Submission  `json:"submissions"`
	AvailableTests []TestRef     `json:"availableTests"`
	Aggregates     AggregateView `json:"aggregates"`
}

type TestSummary struct {
	ID                    string       `json:"id"`
	Title                 string       `json:"title"`
	Description           string       `json:"description,omitempty"`
	CreatedAt             time.Time    `json:"createdAt"`
	TotalSubmissions      int          `json:"totalSubmissions"`
	CompletedSubmissions  int          `json:"completedSubmissions"`
	PendingSubmissions    int          `json:"pendingSubmissions"`
	IncompleteSubmissions int          `json:"incompleteSubmissions"`
	AvgScore              float64      `json:"avgScore"`
	CompletionRate        float64      `json:"completionRate"`
	Distribution          BucketCounts `json:"distribution"`
}

type TestCatalog struct {
	Tests      []TestSummary `json:"tests"`
	TotalTests int           `json:"totalTests"`
}

type TestStats struct {
	TotalSubmissions  int          `json:"totalSubmissions"`
	AvgScore          float64      `json:"avgScore"`
	Distribution      BucketCounts `json:"distribution"`
	SkillDistribution Distribution `json:"skillDistribution"`
}

type SchoolBreakdown struct {
	SchoolID        string  `json:"schoolId"`
	Name            string  `json:"name"`
	SubmissionCount int     `json:"submissionCount"`
	AvgScore        float64 `json:"avgScore"`
}

type TestDetail struct {
	Test              TestSummary        `json:"test"`
	QuestionCount     int                `json:"questionCount"`
	Stats             TestStats          `json:"stats"`
	SchoolBreakdown   []SchoolBreakdown  `json:"schoolBreakdown"`
	RecentSubmissions []RecentSubmission `json:"recentSubmissions"`
}

// ScopeData is one immutable fetch result. Exactly one payload pointer
// matching Scope is set.
type ScopeData struct {
	Scope      Scope               `json:"scope"`
	Selection  Selection           `json:"selection"`
	Filters    Filters             `json:"filters"`
	FetchedAt  time.Time           `json:"fetchedAt"`
	Nationwide *NationwideOverview `json:"nationwide,omitempty"`
	School     *SchoolAnalytics    `json:"school,omitempty"`
	Class      *ClassAnalytics     `json:"class,omitempty"`
	Student    *StudentAnalytics   `json:"student,omitempty"`
}

func (d *ScopeData) Aggregates() AggregateView {
	if d == nil {
		return NewAggregateView()
	}
	switch {
	case d.Nationwide != nil:
		return d.Nationwide.Aggregates
	case d.School != nil:
		return d.School.Aggregates
	case d.Class != nil:
		return d.Class.Aggregates
	case d.Student != nil:
		return d.Student.Aggregates
	}
	return NewAggregateView()
}

// IsEmpty reports a well-formed result without any records.
func (d *ScopeData) IsEmpty() bool {
	if d == nil {
		return true
	}
	switch {
	case d.Nationwide != nil:
		return d.Nationwide.Totals.Submissions == 0 && len(d.Nationwide.Schools) == 0
	case d.School != nil:
		return len(d.School.Classes) == 0 && len(d.School.RecentSubmissions) == 0
	case d.Class != nil:
		return len(d.Class.Students) == 0
	case d.Student != nil:
		return len(d.Student.Submissions) == 0
	}
	return true
}

// DisplayName is the label of the node this data describes.
func (d *ScopeData) DisplayName() string {
	if d == nil {
		return ""
	}
	switch {
	case d.School != nil:
		return d.School.School.Name
	case d.Class != nil:
		return d.Class.ClassName
	case d.Student != nil:
		return d.Student.Student.Name
	}
	return ""
}
