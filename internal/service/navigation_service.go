package service

import (
	"context"
	"errors"
	"sync"

	"wellbeing_dashboard/internal/model"
	"wellbeing_dashboard/internal/util"
	"wellbeing_dashboard/pkg/logger"

	"go.uber.org/zap"
)

// StateListener observes every committed navigation state.
type StateListener func(state model.NavigationState, pendingDeepLink string)

type nameKey struct {
	scope model.Scope
	id    string
}

type transition func(model.NavigationState) (model.NavigationState, error)

// deepLinkLookup is a consumed deep link waiting to be opened. schoolID is
// empty when the loaded listing page did not contain it.
type deepLinkLookup struct {
	link     string
	schoolID string
	page     int
	pages    int
	gen      uint64
}

// Navigator is the navigation state machine of one dashboard session.
// Transitions are serialized on mu; fetches run outside the lock and their
// results are applied only if no later transition happened in between.
type Navigator struct {
	mu       sync.Mutex
	fetcher  Fetcher
	api      QueryAPI
	cache    *ScopeCache
	listener StateListener

	// persistMu orders listener calls; it is never taken while holding mu.
	persistMu sync.Mutex
	dirty     bool

	root    model.NavigationState
	state   model.NavigationState
	data    [4]*model.ScopeData
	errs    [4]error
	loading bool

	viewGen uint64
	cancel  context.CancelFunc

	names         map[nameKey]string
	listingLoaded bool
	listing       []model.SchoolSummary
	listingPage   model.Pagination
	deepLink      string
	catalogs      map[string][]model.ClassEntry
}

func NewNavigator(fetcher Fetcher, api QueryAPI, cache *ScopeCache) *Navigator {
	if cache == nil {
		cache = NewScopeCache(nil, "", 0)
	}
	return &Navigator{
		fetcher:  fetcher,
		api:      api,
		cache:    cache,
		root:     model.NewNavigationState(),
		state:    model.NewNavigationState(),
		names:    make(map[nameKey]string),
		catalogs: make(map[string][]model.ClassEntry),
	}
}

func (n *Navigator) SetListener(l StateListener) {
	n.mu.Lock()
	n.listener = l
	n.mu.Unlock()
}

// PinSchool confines the navigator to one school. The school becomes the
// top of the trail: Start lands on it and nothing navigates above it.
func (n *Navigator) PinSchool(schoolID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.root = model.NavigationState{
		Scope:     model.ScopeSchool,
		Selection: model.Selection{SchoolID: schoolID},
	}
	n.state = n.root
	n.deepLink = ""
}

// Start loads the top scope, the nationwide listing unless the navigator is
// pinned to a school. A deep link given here is resolved against the
// listing, and when found the session lands directly on that school.
func (n *Navigator) Start(ctx context.Context, deepLink string) (model.NavigationView, error) {
	n.mu.Lock()
	if n.root.Scope == model.ScopeNationwide {
		n.deepLink = deepLink
	}
	n.mu.Unlock()

	return n.run(ctx, false, func(s model.NavigationState) (model.NavigationState, error) {
		return n.root, nil
	})
}

// Restore re-enters a persisted state and fetches its current scope.
func (n *Navigator) Restore(ctx context.Context, state model.NavigationState, deepLink string) (model.NavigationView, error) {
	if !state.Selection.ValidFor(state.Scope) {
		return n.View(), util.ErrInvalidSelection
	}
	n.mu.Lock()
	if !n.withinRootLocked(state) {
		view := n.viewLocked()
		n.mu.Unlock()
		return view, util.ErrInvalidSelection
	}
	if n.root.Scope == model.ScopeNationwide {
		n.deepLink = deepLink
	}
	n.mu.Unlock()

	return n.run(ctx, false, func(model.NavigationState) (model.NavigationState, error) {
		state.Filters = state.Filters.ClearBelow(state.Scope)
		return state, nil
	})
}

func (n *Navigator) DrillToSchool(ctx context.Context, schoolID string) (model.NavigationView, error) {
	return n.run(ctx, false, func(s model.NavigationState) (model.NavigationState, error) {
		if s.Scope != model.ScopeNationwide || schoolID == "" {
			return s, util.ErrInvalidTransition
		}
		return descend(s, model.ScopeSchool, model.Selection{SchoolID: schoolID}), nil
	})
}

func (n *Navigator) DrillToClass(ctx context.Context, className string) (model.NavigationView, error) {
	return n.run(ctx, false, func(s model.NavigationState) (model.NavigationState, error) {
		if s.Scope != model.ScopeSchool || s.Selection.SchoolID == "" || className == "" {
			return s, util.ErrInvalidTransition
		}
		sel := s.Selection
		sel.ClassName = className
		return descend(s, model.ScopeClass, sel), nil
	})
}

func (n *Navigator) DrillToStudent(ctx context.Context, studentID string) (model.NavigationView, error) {
	return n.run(ctx, false, func(s model.NavigationState) (model.NavigationState, error) {
		if s.Scope != model.ScopeClass || studentID == "" {
			return s, util.ErrInvalidTransition
		}
		sel := s.Selection
		sel.StudentID = studentID
		return descend(s, model.ScopeStudent, sel), nil
	})
}

// JumpToStudent opens a student found by search at School scope. The class
// comes from the search hit so the selection chain stays complete.
func (n *Navigator) JumpToStudent(ctx context.Context, studentID, className string) (model.NavigationView, error) {
	return n.run(ctx, false, func(s model.NavigationState) (model.NavigationState, error) {
		if s.Scope != model.ScopeSchool || studentID == "" || className == "" {
			return s, util.ErrInvalidTransition
		}
		sel := s.Selection
		sel.ClassName = className
		sel.StudentID = studentID
		return descend(s, model.ScopeStudent, sel), nil
	})
}

func (n *Navigator) NavigateUp(ctx context.Context) (model.NavigationView, error) {
	return n.run(ctx, false, func(s model.NavigationState) (model.NavigationState, error) {
		parent, ok := s.Scope.Parent()
		if !ok || s.Scope <= n.root.Scope {
			return s, util.ErrInvalidTransition
		}
		return model.NavigationState{
			Scope:     parent,
			Selection: s.Selection.Truncate(parent),
			Filters:   s.Filters.ClearBelow(parent),
		}, nil
	})
}

// ResetToNationwide clears the selection chain. A navigator pinned to a
// school resets to that school.
func (n *Navigator) ResetToNationwide(ctx context.Context) (model.NavigationView, error) {
	return n.run(ctx, false, func(model.NavigationState) (model.NavigationState, error) {
		return n.root, nil
	})
}

// SetFilter applies one filter at the current scope with its cascade and
// invalidates that scope's cached data. The listing page can only be set at
// Nationwide scope.
func (n *Navigator) SetFilter(ctx context.Context, key model.FilterKey, value string) (model.NavigationView, error) {
	if key == model.FilterPage {
		page := util.ParsePositiveInt(value, 0)
		if value != "" && page == 0 {
			return n.View(), util.ErrInvalidFilter
		}
		if page == 1 {
			value = ""
		}
	}
	return n.run(ctx, true, func(s model.NavigationState) (model.NavigationState, error) {
		if key == model.FilterPage && s.Scope != model.ScopeNationwide {
			return s, util.ErrInvalidFilter
		}
		next := s
		next.Filters[s.Scope] = ApplyFilter(s.CurrentFilters(), key, value)
		return next, nil
	})
}

// Refresh drops the current slot from the cache and fetches it again. The
// class catalogue of the selected school is reloaded on next use.
func (n *Navigator) Refresh(ctx context.Context) (model.NavigationView, error) {
	return n.run(ctx, true, func(s model.NavigationState) (model.NavigationState, error) {
		delete(n.catalogs, s.Selection.SchoolID)
		return s, nil
	})
}

func (n *Navigator) withinRootLocked(s model.NavigationState) bool {
	return s.Scope >= n.root.Scope && s.Selection.Truncate(n.root.Scope) == n.root.Selection
}

func descend(s model.NavigationState, scope model.Scope, sel model.Selection) model.NavigationState {
	return model.NavigationState{
		Scope:     scope,
		Selection: sel.Truncate(scope),
		Filters:   s.Filters.ClearBelow(s.Scope),
	}
}

// run commits a transition, then serves the new scope from cache or fetches
// it. invalidate drops the target slot from the cache first.
func (n *Navigator) run(ctx context.Context, invalidate bool, t transition) (model.NavigationView, error) {
	defer n.persist()
	return n.apply(ctx, invalidate, t)
}

func (n *Navigator) apply(ctx context.Context, invalidate bool, t transition) (model.NavigationView, error) {
	n.mu.Lock()
	next, err := t(n.state)
	if err != nil {
		view := n.viewLocked()
		n.mu.Unlock()
		return view, err
	}

	n.state = next
	for s := next.Scope + 1; s.Valid(); s++ {
		n.data[s] = nil
		n.errs[s] = nil
	}
	n.viewGen++
	gen := n.viewGen
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
	n.notifyLocked()

	scope := next.Scope
	key := CacheKey(scope, next.Selection, next.CurrentFilters())
	if invalidate {
		n.cache.InvalidateSlot(ctx, scope, next.Selection)
	} else if cached, ok := n.cache.Get(ctx, key); ok {
		n.applyLocked(scope, cached)
		resolve := n.takeDeepLinkLocked()
		view := n.viewLocked()
		n.mu.Unlock()
		return n.afterListing(ctx, view, resolve)
	}

	fctx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	n.data[scope] = nil
	n.errs[scope] = nil
	n.loading = true
	n.mu.Unlock()
	n.persist()

	data, err := n.fetcher.Fetch(fctx, scope, next.Selection, next.CurrentFilters())
	cancel()

	n.mu.Lock()
	if err == nil {
		n.cache.Put(ctx, key, data)
	}
	if gen != n.viewGen {
		view := n.viewLocked()
		n.mu.Unlock()
		return view, util.ErrSuperseded
	}
	n.cancel = nil
	n.loading = false
	if err != nil {
		if errors.Is(err, util.ErrSuperseded) || errors.Is(err, context.Canceled) {
			view := n.viewLocked()
			n.mu.Unlock()
			return view, err
		}
		n.errs[scope] = err
		logger.Log.Warn("Scope fetch failed",
			zap.String("scope", scope.String()),
			zap.String("selection", next.Selection.Key(scope)),
			zap.Error(err))
		view := n.viewLocked()
		n.mu.Unlock()
		return view, err
	}
	n.applyLocked(scope, data)
	resolve := n.takeDeepLinkLocked()
	view := n.viewLocked()
	n.mu.Unlock()
	return n.afterListing(ctx, view, resolve)
}

func (n *Navigator) applyLocked(scope model.Scope, data *model.ScopeData) {
	n.data[scope] = data
	n.errs[scope] = nil
	n.loading = false
	n.learnNamesLocked(data)
	if scope == model.ScopeNationwide && data.Nationwide != nil {
		n.listing = data.Nationwide.Schools
		n.listingPage = data.Nationwide.Pagination
		n.listingLoaded = true
	}
}

func schoolRef(s model.SchoolSummary) string {
	if s.ID != "" {
		return s.ID
	}
	return s.Code
}

// takeDeepLinkLocked consumes the pending deep link once a listing is
// available.
func (n *Navigator) takeDeepLinkLocked() *deepLinkLookup {
	if n.deepLink == "" || !n.listingLoaded || n.state.Scope != model.ScopeNationwide {
		return nil
	}
	lookup := &deepLinkLookup{
		link:  n.deepLink,
		page:  n.listingPage.Page,
		pages: n.listingPage.Pages,
		gen:   n.viewGen,
	}
	if lookup.page < 1 {
		lookup.page = 1
	}
	n.deepLink = ""
	n.notifyLocked()

	if school, ok := model.FindSchool(n.listing, lookup.link); ok {
		lookup.schoolID = schoolRef(school)
	}
	return lookup
}

// afterListing opens the school of a consumed deep link, searching the
// listing pages that are not loaded when needed. A failed search keeps the
// link pending for the next listing load.
func (n *Navigator) afterListing(ctx context.Context, view model.NavigationView, lookup *deepLinkLookup) (model.NavigationView, error) {
	if lookup == nil {
		return view, nil
	}

	schoolID := lookup.schoolID
	if schoolID == "" {
		var err error
		schoolID, err = n.scanListing(ctx, lookup)
		if err != nil {
			logger.Log.Warn("Deep link lookup interrupted", zap.String("schoolId", lookup.link), zap.Error(err))
			n.mu.Lock()
			if n.deepLink == "" && n.viewGen == lookup.gen {
				n.deepLink = lookup.link
				n.notifyLocked()
			}
			view = n.viewLocked()
			n.mu.Unlock()
			return view, nil
		}
	}
	if schoolID == "" {
		logger.Log.Info("Deep link did not match any school", zap.String("schoolId", lookup.link))
		return view, nil
	}

	n.mu.Lock()
	moved := n.viewGen != lookup.gen
	n.mu.Unlock()
	if moved {
		return n.View(), nil
	}
	return n.DrillToSchool(ctx, schoolID)
}

// scanListing looks for the deep link on every listing page except the
// loaded one.
func (n *Navigator) scanListing(ctx context.Context, lookup *deepLinkLookup) (string, error) {
	for page := 1; page <= lookup.pages; page++ {
		if page == lookup.page {
			continue
		}
		overview, err := n.api.NationwideOverview(ctx, page)
		if err != nil {
			return "", err
		}
		n.mu.Lock()
		n.learnNamesLocked(&model.ScopeData{Nationwide: overview})
		n.mu.Unlock()

		if school, ok := model.FindSchool(overview.Schools, lookup.link); ok {
			return schoolRef(school), nil
		}
	}
	return "", nil
}

func (n *Navigator) learnNamesLocked(data *model.ScopeData) {
	set := func(scope model.Scope, id, name string) {
		if id != "" && name != "" {
			n.names[nameKey{scope, id}] = name
		}
	}
	var walk func([]model.SchoolSummary)
	walk = func(schools []model.SchoolSummary) {
		for _, s := range schools {
			set(model.ScopeSchool, s.ID, s.Name)
			set(model.ScopeSchool, s.Code, s.Name)
			walk(s.Branches)
		}
	}

	switch {
	case data.Nationwide != nil:
		walk(data.Nationwide.Schools)
	case data.School != nil:
		set(model.ScopeSchool, data.Selection.SchoolID, data.School.School.Name)
		for _, r := range data.School.RecentSubmissions {
			set(model.ScopeStudent, r.StudentID, r.StudentName)
		}
	case data.Class != nil:
		set(model.ScopeClass, data.Selection.ClassName, data.Class.ClassName)
		for _, s := range data.Class.Students {
			set(model.ScopeStudent, s.ID, s.Name)
		}
	case data.Student != nil:
		set(model.ScopeStudent, data.Selection.StudentID, data.Student.Student.Name)
	}
}

func (n *Navigator) lookupLocked(scope model.Scope, id string) (string, bool) {
	name, ok := n.names[nameKey{scope, id}]
	return name, ok
}

// notifyLocked marks the state for the listener; persist delivers it once
// mu is released.
func (n *Navigator) notifyLocked() {
	n.dirty = true
}

func (n *Navigator) persist() {
	n.persistMu.Lock()
	defer n.persistMu.Unlock()

	n.mu.Lock()
	if !n.dirty || n.listener == nil {
		n.dirty = false
		n.mu.Unlock()
		return
	}
	n.dirty = false
	listener, state, pending := n.listener, n.state, n.deepLink
	n.mu.Unlock()

	listener(state, pending)
}

func (n *Navigator) View() model.NavigationView {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.viewLocked()
}

func (n *Navigator) State() model.NavigationState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

func (n *Navigator) Breadcrumbs() []model.Breadcrumb {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.breadcrumbsLocked()
}

// breadcrumbsLocked starts the trail at the navigator's root.
func (n *Navigator) breadcrumbsLocked() []model.Breadcrumb {
	trail := model.Breadcrumbs(n.state, n.lookupLocked)
	return trail[n.root.Scope.Depth():]
}

func (n *Navigator) viewLocked() model.NavigationView {
	scope := n.state.Scope
	data := n.data[scope]
	view := model.NavigationView{
		State:           n.state,
		Breadcrumbs:     n.breadcrumbsLocked(),
		Data:            data,
		Loaded:          data != nil,
		Loading:         n.loading,
		PendingDeepLink: n.deepLink,
	}
	if data != nil {
		view.Empty = data.IsEmpty()
	}
	if err := n.errs[scope]; err != nil {
		view.Error = slotError(err)
	}
	return view
}

func slotError(err error) *model.SlotError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return &model.SlotError{
			Kind:      string(fe.Kind),
			Message:   fe.Message,
			Retryable: fe.Kind == FetchTransport,
		}
	}
	return &model.SlotError{Kind: string(FetchTransport), Message: err.Error(), Retryable: true}
}

// AvailableSections lists the sections of the class selected at the current
// scope: the class filter at School scope, the selected class below it.
func (n *Navigator) AvailableSections(ctx context.Context) ([]string, error) {
	n.mu.Lock()
	state := n.state
	catalog, cached := n.catalogs[state.Selection.SchoolID]
	n.mu.Unlock()

	filters := state.CurrentFilters()
	if state.Scope >= model.ScopeClass {
		filters.ClassName = state.Selection.ClassName
	}
	if state.Scope == model.ScopeNationwide || filters.ClassName == "" {
		return []string{}, nil
	}

	if !cached {
		var err error
		catalog, err = n.api.ClassCatalog(ctx, state.Selection.SchoolID)
		if err != nil {
			return nil, err
		}
		n.mu.Lock()
		n.catalogs[state.Selection.SchoolID] = catalog
		n.mu.Unlock()
	}
	return AvailableSections(filters, catalog), nil
}

// SearchStudents searches the selected school's students; hits can be
// opened with JumpToStudent.
func (n *Navigator) SearchStudents(ctx context.Context, text string) ([]model.RosterEntry, error) {
	n.mu.Lock()
	state := n.state
	n.mu.Unlock()

	if state.Scope != model.ScopeSchool {
		return nil, util.ErrInvalidTransition
	}
	filters := state.CurrentFilters()
	filters.SearchText = text

	hits, err := n.api.SearchStudents(ctx, state.Selection.SchoolID, filters)
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	for _, h := range hits {
		if h.ID != "" && h.Name != "" {
			n.names[nameKey{model.ScopeStudent, h.ID}] = h.Name
		}
	}
	n.mu.Unlock()
	return hits, nil
}

func (n *Navigator) Cache() *ScopeCache {
	return n.cache
}
