package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"wellbeing_dashboard/internal/model"
)

// fakeAPI serves fixture data. A gate registered for a call key blocks that
// call until the gate is closed; with ignoreCancel the call also outlives
// its context.
type fakeAPI struct {
	mu           sync.Mutex
	overview     *model.NationwideOverview
	pages        map[int]*model.NationwideOverview
	pageCalls    []int
	schools      map[string]*model.SchoolAnalytics
	classes      map[string]*model.ClassAnalytics
	students     map[string]*model.StudentAnalytics
	catalogs     map[string][]model.ClassEntry
	search       map[string][]model.RosterEntry
	errs         map[string]error
	gates        map[string]chan struct{}
	ignoreCancel bool
	calls        map[string]int
	filters      map[string]model.Filters
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		overview: fixtureOverview(),
		schools:  map[string]*model.SchoolAnalytics{},
		classes:  map[string]*model.ClassAnalytics{},
		students: map[string]*model.StudentAnalytics{},
		catalogs: map[string][]model.ClassEntry{},
		search:   map[string][]model.RosterEntry{},
		errs:     map[string]error{},
		gates:    map[string]chan struct{}{},
		calls:    map[string]int{},
		filters:  map[string]model.Filters{},
	}
}

// fixtureOverview has three schools; the second has two branches.
func fixtureOverview() *model.NationwideOverview {
	return &model.NationwideOverview{
		Totals:     model.NationwideTotals{Schools: 3, Submissions: 10},
		Aggregates: model.NewAggregateView(),
		Schools: []model.SchoolSummary{
			{ID: "s1", Code: "SCH-1", Name: "Hillside"},
			{ID: "s2", Code: "SCH-2", Name: "Riverside", Branches: []model.SchoolSummary{
				{ID: "br-2a", Code: "BR-2A", Name: "Riverside North"},
				{ID: "br-2b", Code: "BR-2B", Name: "Riverside South"},
			}},
			{ID: "s3", Code: "SCH-3", Name: "Lakeside"},
		},
	}
}

func (f *fakeAPI) setError(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, key)
		return
	}
	f.errs[key] = err
}

func (f *fakeAPI) gate(key string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[key] = ch
	return ch
}

func (f *fakeAPI) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeAPI) lastFilters(key string) model.Filters {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.filters[key]
}

func (f *fakeAPI) enter(ctx context.Context, key string, filters model.Filters) error {
	f.mu.Lock()
	f.calls[key]++
	f.filters[key] = filters
	gate := f.gates[key]
	delete(f.gates, key)
	err := f.errs[key]
	ignore := f.ignoreCancel
	f.mu.Unlock()

	if gate != nil {
		if ignore {
			<-gate
		} else {
			select {
			case <-gate:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return err
}

// NationwideOverview serves pages when set, otherwise overview for any page.
func (f *fakeAPI) NationwideOverview(ctx context.Context, page int) (*model.NationwideOverview, error) {
	f.mu.Lock()
	f.pageCalls = append(f.pageCalls, page)
	f.mu.Unlock()
	if err := f.enter(ctx, "nationwide", model.Filters{}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pages != nil {
		if o, ok := f.pages[page]; ok {
			return o, nil
		}
		return &model.NationwideOverview{Aggregates: model.NewAggregateView()}, nil
	}
	return f.overview, nil
}

func (f *fakeAPI) requestedPages() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.pageCalls...)
}

// paginate splits n generated schools into pages of size.
func (f *fakeAPI) paginate(n, size int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pages := (n + size - 1) / size
	f.pages = make(map[int]*model.NationwideOverview, pages)
	for p := 1; p <= pages; p++ {
		o := &model.NationwideOverview{
			Totals:     model.NationwideTotals{Schools: n},
			Aggregates: model.NewAggregateView(),
			Pagination: model.Pagination{Page: p, Limit: size, Total: n, Pages: pages},
		}
		for i := (p-1)*size + 1; i <= p*size && i <= n; i++ {
			o.Schools = append(o.Schools, model.SchoolSummary{
				ID:   fmt.Sprintf("s%d", i),
				Code: fmt.Sprintf("SCH-%d", i),
				Name: fmt.Sprintf("School #%d", i),
			})
		}
		f.pages[p] = o
	}
}

func (f *fakeAPI) SchoolAnalytics(ctx context.Context, schoolID string, filters model.Filters) (*model.SchoolAnalytics, error) {
	key := "school:" + schoolID
	if err := f.enter(ctx, key, filters); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.schools[schoolID]; ok {
		return s, nil
	}
	return &model.SchoolAnalytics{
		School:     model.SchoolInfo{ID: schoolID, Name: "School " + schoolID},
		Aggregates: model.NewAggregateView(),
	}, nil
}

func (f *fakeAPI) ClassAnalytics(ctx context.Context, schoolID, className string, filters model.Filters) (*model.ClassAnalytics, error) {
	key := "class:" + schoolID + "/" + className
	if err := f.enter(ctx, key, filters); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.classes[schoolID+"/"+className]; ok {
		return c, nil
	}
	return &model.ClassAnalytics{
		ClassName:  className,
		Aggregates: model.NewAggregateView(),
		Students: []model.RosterEntry{
			{ID: "st-" + className, Name: "Student of " + className, ClassName: className, HasSubmission: true, TotalScore: 60},
		},
	}, nil
}

func (f *fakeAPI) StudentAnalytics(ctx context.Context, studentID string, filters model.Filters) (*model.StudentAnalytics, error) {
	key := "student:" + studentID
	if err := f.enter(ctx, key, filters); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.students[studentID]; ok {
		return s, nil
	}
	subs := []model.Submission{
		{ID: "sub-1", TotalScore: 70, SectionScores: scores(16, 16, 20, 18), SubmittedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	return &model.StudentAnalytics{
		Student:     model.StudentInfo{ID: studentID, Name: "Student " + strings.ToUpper(studentID)},
		Submissions: subs,
		Aggregates:  AggregateStudent(subs),
	}, nil
}

func (f *fakeAPI) ClassCatalog(ctx context.Context, schoolID string) ([]model.ClassEntry, error) {
	if err := f.enter(ctx, "catalog:"+schoolID, model.Filters{}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.catalogs[schoolID], nil
}

func (f *fakeAPI) SearchStudents(ctx context.Context, schoolID string, filters model.Filters) ([]model.RosterEntry, error) {
	if err := f.enter(ctx, "search:"+schoolID, filters); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.search[schoolID], nil
}

func (f *fakeAPI) TestCatalog(ctx context.Context) (*model.TestCatalog, error) {
	if err := f.enter(ctx, "tests", model.Filters{}); err != nil {
		return nil, err
	}
	return &model.TestCatalog{Tests: []model.TestSummary{{ID: "t1", Title: "Spring check-in"}}, TotalTests: 1}, nil
}

func (f *fakeAPI) TestDetail(ctx context.Context, testID string) (*model.TestDetail, error) {
	if err := f.enter(ctx, "test:"+testID, model.Filters{}); err != nil {
		return nil, err
	}
	return &model.TestDetail{Test: model.TestSummary{ID: testID}}, nil
}

func (f *fakeAPI) Ping(ctx context.Context) error {
	return f.enter(ctx, "ping", model.Filters{})
}

// fakeShared is an in-memory SharedCache.
type fakeShared struct {
	mu      sync.Mutex
	entries map[string]*model.ScopeData
	ttls    map[string]time.Duration
}

func newFakeShared() *fakeShared {
	return &fakeShared{entries: map[string]*model.ScopeData{}, ttls: map[string]time.Duration{}}
}

func (s *fakeShared) GetScopeData(ctx context.Context, key string) (*model.ScopeData, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.entries[key]
	return d, ok, nil
}

func (s *fakeShared) SetScopeData(ctx context.Context, key string, data *model.ScopeData, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = data
	s.ttls[key] = ttl
	return nil
}

func (s *fakeShared) DeletePrefix(ctx context.Context, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			delete(s.entries, k)
		}
	}
	return nil
}
