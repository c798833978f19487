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

// SessionStore persists navigation snapshots.
type SessionStore interface {
	Create(ctx context.Context, session *model.DashboardSession) error
	SaveState(ctx context.Context, id string, state model.NavigationState, pendingDeepLink string) error
	Touch(ctx context.Context, id string) error
	FindByIDAndUserID(ctx context.Context, id, userID string) (*model.DashboardSession, error)
	Delete(ctx context.Context, id, userID string) error
	PurgeInactive(ctx context.Context, cutoff time.Time) (int64, error)
}

type liveSession struct {
	id        string
	principal model.Principal
	nav       *Navigator
	lastSeen  time.Time
}

// SessionService owns the navigators of all live dashboard sessions.
type SessionService struct {
	Store    SessionStore
	API      QueryAPI
	Shared   SharedCache
	CacheTTL time.Duration
	IdleTTL  time.Duration

	mu       sync.Mutex
	sessions map[string]*liveSession
	now      func() time.Time
}

func NewSessionService(store SessionStore, api QueryAPI, shared SharedCache, cacheTTL, idleTTL time.Duration) *SessionService {
	return &SessionService{
		Store:    store,
		API:      api,
		Shared:   shared,
		CacheTTL: cacheTTL,
		IdleTTL:  idleTTL,
		sessions: make(map[string]*liveSession),
		now:      time.Now,
	}
}

func (s *SessionService) newNavigator(id string, p model.Principal) *Navigator {
	s.mu.Lock()
	ttl := s.CacheTTL
	s.mu.Unlock()

	nav := NewNavigator(NewScopeFetcher(s.API), s.API, NewScopeCache(s.Shared, p.UserID, ttl))
	if p.Role == model.RoleSchool {
		nav.PinSchool(p.SchoolID)
	}
	nav.SetListener(func(state model.NavigationState, pending string) {
		// detached from the request so a cancelled client still persists
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := s.Store.SaveState(ctx, id, state, pending); err != nil {
			logger.Log.Error("Failed to persist navigation state", zap.String("session", id), zap.Error(err))
		}
	})
	return nav
}

// Create opens a session at Nationwide, optionally seeded by a deep-link
// school identifier, and loads the nationwide listing. Sessions of school
// accounts open on their own school instead and ignore deep links.
func (s *SessionService) Create(ctx context.Context, p model.Principal, deepLink string) (string, model.NavigationView, error) {
	scope := model.ScopeNationwide
	if p.Role == model.RoleSchool {
		if p.SchoolID == "" {
			return "", model.NavigationView{}, util.ErrNoSchoolAssigned
		}
		scope = model.ScopeSchool
		deepLink = ""
	}

	record := &model.DashboardSession{
		UserID:          p.UserID,
		Role:            p.Role,
		Scope:           scope.String(),
		PendingDeepLink: deepLink,
		LastActiveAt:    s.now(),
	}
	if scope == model.ScopeSchool {
		record.SchoolID = p.SchoolID
	}
	record.ID = model.GenerateUUID()
	if err := s.Store.Create(ctx, record); err != nil {
		return "", model.NavigationView{}, err
	}

	live := &liveSession{
		id:        record.ID,
		principal: p,
		nav:       s.newNavigator(record.ID, p),
		lastSeen:  s.now(),
	}
	s.mu.Lock()
	s.sessions[record.ID] = live
	monitoring.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	logger.Log.Info("Dashboard session created",
		zap.String("session", record.ID),
		zap.String("user", p.UserID),
		zap.Bool("deepLink", deepLink != ""))

	view, err := live.nav.Start(ctx, deepLink)
	return record.ID, view, err
}

// Get returns the navigator of a session owned by p, restoring it from the
// store when it is no longer in memory.
func (s *SessionService) Get(ctx context.Context, p model.Principal, id string) (*Navigator, error) {
	s.mu.Lock()
	live, ok := s.sessions[id]
	if ok {
		if live.principal.UserID != p.UserID {
			s.mu.Unlock()
			return nil, util.ErrSessionNotFound
		}
		live.lastSeen = s.now()
		s.mu.Unlock()
		return live.nav, nil
	}
	s.mu.Unlock()

	record, err := s.Store.FindByIDAndUserID(ctx, id, p.UserID)
	if err != nil {
		logger.Log.Debug("Session lookup failed", zap.String("session", id), zap.Error(err))
		return nil, util.ErrSessionNotFound
	}

	s.mu.Lock()
	// another request may have restored it meanwhile
	if live, ok := s.sessions[id]; ok {
		live.lastSeen = s.now()
		s.mu.Unlock()
		return live.nav, nil
	}
	live = &liveSession{
		id:        id,
		principal: p,
		nav:       nil,
		lastSeen:  s.now(),
	}
	s.mu.Unlock()
	live.nav = s.newNavigator(id, p)

	_, err = live.nav.Restore(ctx, record.State(), record.PendingDeepLink)
	if errors.Is(err, util.ErrInvalidSelection) {
		// snapshot outside what the principal may see
		_, err = live.nav.Start(ctx, "")
	}
	if err != nil {
		logger.Log.Warn("Restored session could not load its scope", zap.String("session", id), zap.Error(err))
	}

	s.mu.Lock()
	if existing, ok := s.sessions[id]; ok {
		s.mu.Unlock()
		return existing.nav, nil
	}
	s.sessions[id] = live
	monitoring.ActiveSessions.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	if err := s.Store.Touch(ctx, id); err != nil {
		logger.Log.Warn("Failed to touch session", zap.String("session", id), zap.Error(err))
	}
	return live.nav, nil
}

func (s *SessionService) Close(ctx context.Context, p model.Principal, id string) error {
	s.mu.Lock()
	if live, ok := s.sessions[id]; ok && live.principal.UserID == p.UserID {
		delete(s.sessions, id)
		monitoring.ActiveSessions.Set(float64(len(s.sessions)))
	}
	s.mu.Unlock()

	if err := s.Store.Delete(ctx, id, p.UserID); err != nil {
		return util.ErrSessionNotFound
	}
	return nil
}

// Sweep drops sessions idle for longer than IdleTTL from memory; their
// snapshots stay in the store until PurgeInactive.
func (s *SessionService) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.IdleTTL)
	evicted := 0
	for id, live := range s.sessions {
		if live.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	monitoring.ActiveSessions.Set(float64(len(s.sessions)))
	return evicted
}

// RunSweeper evicts idle sessions every interval and purges snapshots older
// than a day until ctx is done.
func (s *SessionService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				logger.Log.Info("Evicted idle dashboard sessions", zap.Int("count", n))
			}
			purged, err := s.Store.PurgeInactive(ctx, s.now().Add(-24*time.Hour))
			if err != nil {
				logger.Log.Error("Failed to purge inactive sessions", zap.Error(err))
			} else if purged > 0 {
				logger.Log.Info("Purged inactive dashboard sessions", zap.Int64("count", purged))
			}
		}
	}
}

// SetCacheTTL applies a reloaded cache TTL to live and future sessions.
func (s *SessionService) SetCacheTTL(ttl time.Duration) {
	s.mu.Lock()
	s.CacheTTL = ttl
	navs := make([]*Navigator, 0, len(s.sessions))
	for _, live := range s.sessions {
		navs = append(navs, live.nav)
	}
	s.mu.Unlock()

	for _, nav := range navs {
		nav.Cache().SetTTL(ttl)
	}
}

func (s *SessionService) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
