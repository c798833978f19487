package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"wellbeing_dashboard/internal/config"
	"wellbeing_dashboard/internal/model"
	"wellbeing_dashboard/pkg/logger"
	"wellbeing_dashboard/pkg/tracing"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// QueryAPI is the external analytics query service. Each scope maps to one
// call; the caller's bearer token travels in the context.
type QueryAPI interface {
	NationwideOverview(ctx context.Context, page int) (*model.NationwideOverview, error)
	SchoolAnalytics(ctx context.Context, schoolID string, filters model.Filters) (*model.SchoolAnalytics, error)
	ClassAnalytics(ctx context.Context, schoolID, className string, filters model.Filters) (*model.ClassAnalytics, error)
	StudentAnalytics(ctx context.Context, studentID string, filters model.Filters) (*model.StudentAnalytics, error)
	ClassCatalog(ctx context.Context, schoolID string) ([]model.ClassEntry, error)
	SearchStudents(ctx context.Context, schoolID string, filters model.Filters) ([]model.RosterEntry, error)
	TestCatalog(ctx context.Context) (*model.TestCatalog, error)
	TestDetail(ctx context.Context, testID string) (*model.TestDetail, error)
	Ping(ctx context.Context) error
}

type FetchErrorKind string

const (
	FetchTransport FetchErrorKind = "transport"
	FetchForbidden FetchErrorKind = "forbidden"
)

const defaultForbiddenMessage = "You do not have permission to view analytics for this scope."

// FetchError is the failure of a query service call. Forbidden carries a
// message meant for the end user and is not retryable.
type FetchError struct {
	Kind    FetchErrorKind
	Status  int
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *FetchError) Unwrap() error { return e.Err }

func IsForbidden(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == FetchForbidden
}

func IsTransport(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == FetchTransport
}

type tokenKey struct{}

// WithBearerToken attaches the caller's token for forwarding upstream.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func bearerToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

type QueryClient struct {
	baseURL    string
	pageSize   int
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewQueryClient(cfg config.QueryServiceConfig) *QueryClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	return &QueryClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		pageSize:   pageSize,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
	}
}

func (c *QueryClient) NationwideOverview(ctx context.Context, page int) (*model.NationwideOverview, error) {
	if page < 1 {
		page = 1
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(c.pageSize))

	var dto overviewDTO
	if err := c.get(ctx, "/api/admin/analytics/overview", q, &dto); err != nil {
		return nil, err
	}
	return toNationwideOverview(dto), nil
}

func (c *QueryClient) SchoolAnalytics(ctx context.Context, schoolID string, filters model.Filters) (*model.SchoolAnalytics, error) {
	q := url.Values{}
	setIf(q, "branchId", filters.BranchID)
	setIf(q, "class", filters.ClassName)
	setIf(q, "section", filters.SectionName)
	setIf(q, "assessmentId", filters.AssessmentID)

	var dto schoolAnalyticsDTO
	if err := c.get(ctx, "/api/admin/schools/"+url.PathEscape(schoolID)+"/analytics", q, &dto); err != nil {
		return nil, err
	}
	return toSchoolAnalytics(dto), nil
}

func (c *QueryClient) ClassAnalytics(ctx context.Context, schoolID, className string, filters model.Filters) (*model.ClassAnalytics, error) {
	q := url.Values{}
	setIf(q, "section", filters.SectionName)
	setIf(q, "assessmentId", filters.AssessmentID)

	var dto classAnalyticsDTO
	path := "/api/admin/schools/" + url.PathEscape(schoolID) + "/class/" + url.PathEscape(className) + "/analytics"
	if err := c.get(ctx, path, q, &dto); err != nil {
		return nil, err
	}
	return toClassAnalytics(dto), nil
}

func (c *QueryClient) StudentAnalytics(ctx context.Context, studentID string, filters model.Filters) (*model.StudentAnalytics, error) {
	q := url.Values{}
	setIf(q, "testId", filters.AssessmentID)

	var dto studentAnalyticsDTO
	if err := c.get(ctx, "/api/admin/students/"+url.PathEscape(studentID)+"/analytics", q, &dto); err != nil {
		return nil, err
	}
	return toStudentAnalytics(dto), nil
}

func (c *QueryClient) ClassCatalog(ctx context.Context, schoolID string) ([]model.ClassEntry, error) {
	var dto classCatalogDTO
	if err := c.get(ctx, "/api/admin/schools/"+url.PathEscape(schoolID)+"/classes", nil, &dto); err != nil {
		return nil, err
	}
	return toClassCatalog(dto), nil
}

func (c *QueryClient) SearchStudents(ctx context.Context, schoolID string, filters model.Filters) ([]model.RosterEntry, error) {
	q := url.Values{}
	setIf(q, "search", filters.SearchText)
	setIf(q, "class", filters.ClassName)
	setIf(q, "section", filters.SectionName)
	setIf(q, "assessmentId", filters.AssessmentID)

	var dto studentSearchDTO
	if err := c.get(ctx, "/api/admin/schools/"+url.PathEscape(schoolID)+"/students-analytics", q, &dto); err != nil {
		return nil, err
	}
	return toRoster(dto.Students), nil
}

func (c *QueryClient) TestCatalog(ctx context.Context) (*model.TestCatalog, error) {
	var dto testCatalogDTO
	if err := c.get(ctx, "/api/admin/analytics/tests", nil, &dto); err != nil {
		return nil, err
	}
	return toTestCatalog(dto), nil
}

func (c *QueryClient) TestDetail(ctx context.Context, testID string) (*model.TestDetail, error) {
	var dto testDetailDTO
	if err := c.get(ctx, "/api/admin/analytics/tests/"+url.PathEscape(testID), nil, &dto); err != nil {
		return nil, err
	}
	return toTestDetail(dto), nil
}

func (c *QueryClient) Ping(ctx context.Context) error {
	return c.get(ctx, "/health", nil, nil)
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

// get performs one request. No retries: a failed fetch is retried by the
// user through refresh.
func (c *QueryClient) get(ctx context.Context, path string, query url.Values, result interface{}) (err error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return &FetchError{Kind: FetchTransport, Message: "invalid request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if token := bearerToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	req, span := tracing.StartClientSpan(ctx, req, "query "+path)
	defer func() { tracing.EndWithError(span, err) }()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// cancellation is not a transport failure
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Log.Warn("Query service unreachable", zap.String("path", path), zap.Error(err))
		return &FetchError{Kind: FetchTransport, Message: "query service unreachable", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &FetchError{Kind: FetchTransport, Status: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(resp.StatusCode, body)
	}

	if result == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		logger.Log.Warn("Query service returned an undecodable body", zap.String("path", path), zap.Error(err))
		return &FetchError{Kind: FetchTransport, Status: resp.StatusCode, Message: "malformed response", Err: err}
	}
	return nil
}

func statusError(status int, body []byte) error {
	var apiErr apiErrorDTO
	_ = json.Unmarshal(body, &apiErr)
	msg := string(apiErr.Message)
	if msg == "" {
		msg = string(apiErr.Error)
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		if msg == "" {
			msg = defaultForbiddenMessage
		}
		return &FetchError{Kind: FetchForbidden, Status: status, Message: msg}
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &FetchError{Kind: FetchTransport, Status: status, Message: msg}
}
