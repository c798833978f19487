package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"wellbeing_dashboard/internal/model"
	"wellbeing_dashboard/internal/util"
	"wellbeing_dashboard/pkg/logger"
	"wellbeing_dashboard/pkg/monitoring"

	"go.uber.org/zap"
)

// Fetcher loads the data of one scope.
type Fetcher interface {
	Fetch(ctx context.Context, scope model.Scope, sel model.Selection, filters model.Filters) (*model.ScopeData, error)
}

// SlotKey identifies a logical fetch slot: a scope plus the selection
// subset visible at it.
type SlotKey struct {
	Scope     model.Scope
	Selection string
}

type fetchSlot struct {
	gen    uint64
	cancel context.CancelFunc
}

// ScopeFetcher issues scope queries. A new Fetch for a slot cancels the
// previous one, and a response is returned only while its request is still
// the slot's newest; older callers get util.ErrSuperseded.
type ScopeFetcher struct {
	api   QueryAPI
	now   func() time.Time
	mu    sync.Mutex
	slots map[SlotKey]*fetchSlot
}

func NewScopeFetcher(api QueryAPI) *ScopeFetcher {
	return &ScopeFetcher{
		api:   api,
		now:   time.Now,
		slots: make(map[SlotKey]*fetchSlot),
	}
}

func (f *ScopeFetcher) begin(ctx context.Context, key SlotKey) (context.Context, *fetchSlot, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	slot, ok := f.slots[key]
	if !ok {
		slot = &fetchSlot{}
		f.slots[key] = slot
	}
	if slot.cancel != nil {
		slot.cancel()
	}
	slot.gen++
	fctx, cancel := context.WithCancel(ctx)
	slot.cancel = cancel
	return fctx, slot, slot.gen
}

// finish reports whether gen is still current and releases the slot if so.
func (f *ScopeFetcher) finish(key SlotKey, slot *fetchSlot, gen uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if slot.gen != gen {
		return false
	}
	slot.cancel()
	slot.cancel = nil
	if f.slots[key] == slot {
		delete(f.slots, key)
	}
	return true
}

func (f *ScopeFetcher) Fetch(ctx context.Context, scope model.Scope, sel model.Selection, filters model.Filters) (*model.ScopeData, error) {
	if !sel.ValidFor(scope) {
		return nil, util.ErrInvalidSelection
	}

	key := SlotKey{Scope: scope, Selection: sel.Key(scope)}
	fctx, slot, gen := f.begin(ctx, key)
	started := f.now()

	data, err := f.query(fctx, scope, sel, filters)

	if !f.finish(key, slot, gen) {
		monitoring.ObserveFetch(scope.String(), "superseded", started)
		logger.Log.Debug("Discarding superseded scope fetch",
			zap.String("scope", scope.String()),
			zap.String("selection", key.Selection))
		return nil, util.ErrSuperseded
	}

	if err != nil {
		outcome := "transport"
		switch {
		case IsForbidden(err):
			outcome = "forbidden"
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			outcome = "canceled"
		}
		monitoring.ObserveFetch(scope.String(), outcome, started)
		return nil, err
	}

	monitoring.ObserveFetch(scope.String(), "ok", started)
	data.Scope = scope
	data.Selection = sel.Truncate(scope)
	data.Filters = filters
	data.FetchedAt = f.now()
	return data, nil
}

func (f *ScopeFetcher) query(ctx context.Context, scope model.Scope, sel model.Selection, filters model.Filters) (*model.ScopeData, error) {
	switch scope {
	case model.ScopeNationwide:
		overview, err := f.api.NationwideOverview(ctx, filters.PageNumber())
		if err != nil {
			return nil, err
		}
		return &model.ScopeData{Nationwide: overview}, nil
	case model.ScopeSchool:
		school, err := f.api.SchoolAnalytics(ctx, sel.SchoolID, filters)
		if err != nil {
			return nil, err
		}
		return &model.ScopeData{School: school}, nil
	case model.ScopeClass:
		class, err := f.api.ClassAnalytics(ctx, sel.SchoolID, sel.ClassName, filters)
		if err != nil {
			return nil, err
		}
		return &model.ScopeData{Class: class}, nil
	case model.ScopeStudent:
		student, err := f.api.StudentAnalytics(ctx, sel.StudentID, filters)
		if err != nil {
			return nil, err
		}
		return &model.ScopeData{Student: student}, nil
	}
	return nil, util.ErrInvalidSelection
}
