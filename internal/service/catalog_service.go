package service

import (
	"context"

	"wellbeing_dashboard/internal/model"

	"golang.org/x/sync/singleflight"
)

// CatalogService serves the test catalogue and per-test detail. Identical
// concurrent requests of one caller share a single upstream call.
type CatalogService struct {
	API   QueryAPI
	group singleflight.Group
}

func NewCatalogService(api QueryAPI) *CatalogService {
	return &CatalogService{API: api}
}

func (s *CatalogService) Tests(ctx context.Context) (*model.TestCatalog, error) {
	v, err, _ := s.group.Do(bearerToken(ctx)+"|tests", func() (interface{}, error) {
		return s.API.TestCatalog(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.TestCatalog), nil
}

func (s *CatalogService) TestDetail(ctx context.Context, testID string) (*model.TestDetail, error) {
	v, err, _ := s.group.Do(bearerToken(ctx)+"|test|"+testID, func() (interface{}, error) {
		return s.API.TestDetail(ctx, testID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.TestDetail), nil
}
