package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"wellbeing_dashboard/internal/config"
	"wellbeing_dashboard/internal/middleware"
	"wellbeing_dashboard/internal/model"
	"wellbeing_dashboard/internal/repository"
	"wellbeing_dashboard/internal/service"
	"wellbeing_dashboard/internal/util"
	"wellbeing_dashboard/pkg/database"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "controller-test-secret-0123456789abcdef"

var upstream = map[string]string{
	"/api/admin/analytics/overview": `{
		"totals": {"totalSchools": 2, "totalSubmissions": 4},
		"schools": [
			{"_id": "s1", "schoolId": "SCH-1", "name": "Hillside"},
			{"_id": "s2", "schoolId": "SCH-2", "name": "Riverside"}
		]}`,
	"/api/admin/schools/s1/analytics": `{"school": {"_id": "s1", "schoolId": "SCH-1", "name": "Hillside"}}`,
	"/api/admin/schools/s1/class/5/analytics": `{
		"className": "5",
		"students": [
			{"_id": "st1", "name": "Ann", "class": "5", "hasSubmission": true, "totalScore": 70,
			 "sectionScores": {"A": 10, "B": 16, "C": 23, "D": 21}},
			{"_id": "st2", "name": "Ben", "class": "5"}
		]}`,
	"/api/admin/schools/s1/classes": `{"classes": [
		{"_id": {"class": "5", "section": "B"}},
		{"_id": {"class": "5", "section": "A"}}
	]}`,
	"/api/admin/analytics/tests": `{"tests": [{"_id": "t1", "title": "Spring check-in"}], "totalTests": 1}`,
}

type testServer struct {
	router *gin.Engine
	t      *testing.T
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, RegisterValidations())

	query := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/api/admin/schools/s2/analytics" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message": "Not your school."}`))
			return
		}
		body, ok := upstream[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(query.Close)

	db, err := database.InitDB(&config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "dashboard.db")}, false)
	require.NoError(t, err)

	api := service.NewQueryClient(config.QueryServiceConfig{BaseURL: query.URL, Timeout: 2 * time.Second})
	storage := &service.LocalStorageProvider{Config: &config.StorageConfig{LocalPath: t.TempDir()}}
	sessions := service.NewSessionService(repository.NewDashboardSessionRepository(db), api, nil, time.Minute, time.Hour)
	nav := NewNavigationController(sessions, service.NewExportService(storage, repository.NewExportRepository(db)))
	catalog := NewCatalogController(service.NewCatalogService(api))

	router := gin.New()
	apiGroup := router.Group("/api")
	apiGroup.Use(middleware.AuthMiddleware(func() string { return testSecret }))
	apiGroup.POST("/sessions", nav.CreateSession)
	s := apiGroup.Group("/sessions/:id")
	s.GET("", nav.GetSession)
	s.DELETE("", nav.CloseSession)
	s.POST("/schools/:schoolId", nav.DrillToSchool)
	s.POST("/classes/:className", nav.DrillToClass)
	s.POST("/students/:studentId", nav.DrillToStudent)
	s.POST("/up", nav.NavigateUp)
	s.PUT("/filters", nav.SetFilter)
	s.GET("/sections", nav.Sections)
	s.POST("/export", nav.Export)
	s.GET("/exports", nav.ListExports)
	tests := apiGroup.Group("/tests", middleware.RoleMiddleware(model.RoleAdmin))
	tests.GET("", catalog.ListTests)

	return &testServer{router: router, t: t}
}

func token(t *testing.T, p model.Principal) string {
	t.Helper()
	tok, err := util.GenerateJWT(p, testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

var (
	admin  = model.Principal{UserID: "admin-1", Role: model.RoleAdmin}
	school = model.Principal{UserID: "school-1", Role: model.RoleSchool, SchoolID: "s1"}
)

// do returns the status and the decoded envelope.
func (s *testServer) do(method, path, tok string, body interface{}) (int, map[string]interface{}) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w.Code, resp
}

func data(resp map[string]interface{}) map[string]interface{} {
	d, _ := resp["data"].(map[string]interface{})
	return d
}

func scopeOf(resp map[string]interface{}) string {
	state, _ := data(resp)["state"].(map[string]interface{})
	s, _ := state["scope"].(string)
	return s
}

func (s *testServer) createSession(tok string) string {
	s.t.Helper()
	status, resp := s.do(http.MethodPost, "/api/sessions", tok, nil)
	require.Equal(s.t, http.StatusCreated, status)
	id, _ := data(resp)["sessionId"].(string)
	require.NotEmpty(s.t, id)
	return id
}

func TestNavigationRequiresToken(t *testing.T) {
	srv := newTestServer(t)

	status, _ := srv.do(http.MethodPost, "/api/sessions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = srv.do(http.MethodPost, "/api/sessions", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestNavigationDrillDown(t *testing.T) {
	srv := newTestServer(t)
	tok := token(t, admin)
	id := srv.createSession(tok)
	base := "/api/sessions/" + id

	status, resp := srv.do(http.MethodPost, base+"/schools/s1", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "school", scopeOf(resp))
	crumbs := data(resp)["breadcrumbs"].([]interface{})
	require.Len(t, crumbs, 2)
	assert.Equal(t, "Hillside", crumbs[1].(map[string]interface{})["label"])

	status, resp = srv.do(http.MethodPost, base+"/classes/5?vocabulary=friendly", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "class", scopeOf(resp))
	assert.Equal(t, "friendly", data(resp)["vocabulary"])
	assert.Equal(t, "Thriving", data(resp)["bucketLabels"].(map[string]interface{})["stable"])

	roster := data(resp)["roster"].([]interface{})
	require.Len(t, roster, 2)
	ann := roster[0].(map[string]interface{})
	assert.Equal(t, "emerging", ann["bucket"])
	assert.Equal(t, "Needs Support", ann["bucketLabel"])
	assert.Equal(t, map[string]interface{}{
		"A": "stable",
		"B": "emerging",
		"C": "support_needed",
		"D": "emerging",
	}, ann["sectionBuckets"])
	ben := roster[1].(map[string]interface{})
	_, hasBucket := ben["bucket"]
	assert.False(t, hasBucket)

	status, resp = srv.do(http.MethodGet, base+"/sections", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []interface{}{"A", "B"}, data(resp)["sections"])

	status, resp = srv.do(http.MethodPost, base+"/up", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "school", scopeOf(resp))

	status, resp = srv.do(http.MethodGet, base, tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "school", scopeOf(resp))
}

func TestNavigationErrorMapping(t *testing.T) {
	srv := newTestServer(t)
	tok := token(t, admin)
	id := srv.createSession(tok)
	base := "/api/sessions/" + id

	status, resp := srv.do(http.MethodPost, base+"/up", tok, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "nationwide", scopeOf(resp))

	status, resp = srv.do(http.MethodPost, base+"/schools/s2", tok, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Not your school.", resp["message"])
	assert.Equal(t, "school", scopeOf(resp))
	slotErr := data(resp)["error"].(map[string]interface{})
	assert.Equal(t, "forbidden", slotErr["kind"])
	assert.Equal(t, false, slotErr["retryable"])

	status, _ = srv.do(http.MethodPost, base+"/up", tok, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = srv.do(http.MethodPut, base+"/filters", tok, gin.H{"key": "colour", "value": "red"})
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = srv.do(http.MethodPut, base+"/filters", tok, gin.H{"value": "red"})
	assert.Equal(t, http.StatusBadRequest, status)

	// another principal cannot see the session
	status, _ = srv.do(http.MethodGet, base, token(t, school), nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = srv.do(http.MethodGet, "/api/sessions/unknown", tok, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestNavigationSetFilter(t *testing.T) {
	srv := newTestServer(t)
	tok := token(t, admin)
	id := srv.createSession(tok)
	base := "/api/sessions/" + id

	status, _ := srv.do(http.MethodPost, base+"/schools/s1", tok, nil)
	require.Equal(t, http.StatusOK, status)

	status, resp := srv.do(http.MethodPut, base+"/filters", tok, gin.H{"key": "className", "value": "5"})
	require.Equal(t, http.StatusOK, status)
	filters := data(resp)["state"].(map[string]interface{})["filters"].(map[string]interface{})
	assert.Equal(t, "5", filters["school"].(map[string]interface{})["className"])
}

func TestNavigationDeepLinkOnCreate(t *testing.T) {
	srv := newTestServer(t)
	tok := token(t, admin)

	status, resp := srv.do(http.MethodPost, "/api/sessions", tok, gin.H{"schoolId": "SCH-1"})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "school", scopeOf(resp))
	assert.Equal(t, "s1", data(resp)["state"].(map[string]interface{})["selection"].(map[string]interface{})["schoolId"])
}

func TestNavigationExport(t *testing.T) {
	srv := newTestServer(t)
	tok := token(t, admin)
	id := srv.createSession(tok)
	base := "/api/sessions/" + id

	status, resp := srv.do(http.MethodPost, base+"/export", tok, nil)
	require.Equal(t, http.StatusCreated, status)
	url, _ := data(resp)["url"].(string)
	assert.True(t, strings.HasPrefix(url, "/exports/exports/"+id+"/"))
	assert.Equal(t, "nationwide", data(resp)["scope"])

	status, resp = srv.do(http.MethodGet, base+"/exports", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, data(resp)["exports"], 1)
}

func TestNavigationCloseSession(t *testing.T) {
	srv := newTestServer(t)
	tok := token(t, admin)
	id := srv.createSession(tok)

	status, _ := srv.do(http.MethodDelete, "/api/sessions/"+id, token(t, school), nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = srv.do(http.MethodDelete, "/api/sessions/"+id, tok, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = srv.do(http.MethodGet, "/api/sessions/"+id, tok, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCatalogRequiresAdmin(t *testing.T) {
	srv := newTestServer(t)

	status, _ := srv.do(http.MethodGet, "/api/tests", token(t, school), nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, resp := srv.do(http.MethodGet, "/api/tests", token(t, admin), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, data(resp)["tests"], 1)
}

func TestNavigationSchoolAccountStaysOnItsSchool(t *testing.T) {
	srv := newTestServer(t)
	tok := token(t, school)

	status, resp := srv.do(http.MethodPost, "/api/sessions", tok, gin.H{"schoolId": "SCH-2"})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "school", scopeOf(resp))
	assert.Equal(t, "s1", data(resp)["state"].(map[string]interface{})["selection"].(map[string]interface{})["schoolId"])
	crumbs := data(resp)["breadcrumbs"].([]interface{})
	require.Len(t, crumbs, 1)
	assert.Equal(t, "Hillside", crumbs[0].(map[string]interface{})["label"])
	base := "/api/sessions/" + data(resp)["sessionId"].(string)

	status, resp = srv.do(http.MethodPost, base+"/up", tok, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "school", scopeOf(resp))
	status, _ = srv.do(http.MethodPost, base+"/schools/s2", tok, nil)
	assert.Equal(t, http.StatusConflict, status)

	status, resp = srv.do(http.MethodPost, base+"/classes/5", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "class", scopeOf(resp))
	status, resp = srv.do(http.MethodPost, base+"/up", tok, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "school", scopeOf(resp))
}

func TestNavigationSchoolAccountWithHiddenAnalytics(t *testing.T) {
	srv := newTestServer(t)
	hidden := model.Principal{UserID: "school-2", Role: model.RoleSchool, SchoolID: "s2"}

	status, resp := srv.do(http.MethodPost, "/api/sessions", token(t, hidden), nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Not your school.", resp["message"])
	assert.Equal(t, "school", scopeOf(resp))
	slotErr := data(resp)["error"].(map[string]interface{})
	assert.Equal(t, "forbidden", slotErr["kind"])
	assert.Equal(t, false, slotErr["retryable"])

	unassigned := model.Principal{UserID: "school-3", Role: model.RoleSchool}
	status, resp = srv.do(http.MethodPost, "/api/sessions", token(t, unassigned), nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, util.ErrNoSchoolAssigned.Error(), resp["message"])
}

func TestNavigationListingPage(t *testing.T) {
	srv := newTestServer(t)
	tok := token(t, admin)
	id := srv.createSession(tok)
	base := "/api/sessions/" + id

	status, resp := srv.do(http.MethodPut, base+"/filters", tok, gin.H{"key": "page", "value": "2"})
	require.Equal(t, http.StatusOK, status)
	filters := data(resp)["state"].(map[string]interface{})["filters"].(map[string]interface{})
	assert.Equal(t, "2", filters["nationwide"].(map[string]interface{})["page"])

	status, _ = srv.do(http.MethodPut, base+"/filters", tok, gin.H{"key": "page", "value": "zero"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = srv.do(http.MethodPost, base+"/schools/s1", tok, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = srv.do(http.MethodPut, base+"/filters", tok, gin.H{"key": "page", "value": "3"})
	assert.Equal(t, http.StatusBadRequest, status)
}
