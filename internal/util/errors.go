package util

import "errors"

var (
	ErrPermissionDenied  = errors.New("permission denied")
	ErrInvalidTransition = errors.New("navigation transition not allowed from the current scope")
	ErrInvalidSelection  = errors.New("selection does not match scope")
	ErrSuperseded        = errors.New("request superseded by a newer one")
	ErrSessionNotFound   = errors.New("dashboard session not found")
	ErrNoScopeData       = errors.New("no data loaded for the current scope")
	ErrStorageFailed     = errors.New("export storage failed")
	ErrInvalidFilterKey  = errors.New("unknown filter key")
	ErrInvalidFilter     = errors.New("filter value not valid at the current scope")
	ErrNoSchoolAssigned  = errors.New("school account has no school assigned")
)
