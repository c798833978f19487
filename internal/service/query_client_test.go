package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wellbeing_dashboard/internal/config"
	"wellbeing_dashboard/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *QueryClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewQueryClient(config.QueryServiceConfig{BaseURL: srv.URL, Timeout: 2 * time.Second, PageSize: 20})
}

func respondJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestQueryClientForwardsTokenAndFilters(t *testing.T) {
	var gotAuth, gotPath, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		respondJSON(w, http.StatusOK, `{}`)
	})

	ctx := WithBearerToken(context.Background(), "tok")
	_, err := client.SchoolAnalytics(ctx, "sch-1", model.Filters{BranchID: "br", ClassName: "5", AssessmentID: "t9"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, "/api/admin/schools/sch-1/analytics", gotPath)
	assert.Contains(t, gotQuery, "branchId=br")
	assert.Contains(t, gotQuery, "class=5")
	assert.Contains(t, gotQuery, "assessmentId=t9")
	assert.NotContains(t, gotQuery, "section=")
}

func TestQueryClientErrorClassification(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantKind    FetchErrorKind
		wantMessage string
	}{
		{
			name:        "forbidden with server message",
			status:      http.StatusForbidden,
			body:        `{"message":"Access denied to this school"}`,
			wantKind:    FetchForbidden,
			wantMessage: "Access denied to this school",
		},
		{
			name:        "unauthorized without body",
			status:      http.StatusUnauthorized,
			wantKind:    FetchForbidden,
			wantMessage: defaultForbiddenMessage,
		},
		{
			name:        "server error",
			status:      http.StatusInternalServerError,
			body:        `{"error":"boom"}`,
			wantKind:    FetchTransport,
			wantMessage: "boom",
		},
		{
			name:        "not found",
			status:      http.StatusNotFound,
			wantKind:    FetchTransport,
			wantMessage: "Not Found",
		},
		{
			name:        "malformed body",
			status:      http.StatusOK,
			body:        `{"schools": [`,
			wantKind:    FetchTransport,
			wantMessage: "malformed response",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				respondJSON(w, tt.status, tt.body)
			})

			_, err := client.NationwideOverview(context.Background(), 1)
			require.Error(t, err)

			var fe *FetchError
			require.True(t, errors.As(err, &fe), "got %T", err)
			assert.Equal(t, tt.wantKind, fe.Kind)
			assert.Equal(t, tt.wantMessage, fe.Message)
			assert.Equal(t, tt.wantKind == FetchForbidden, IsForbidden(err))
			assert.Equal(t, tt.wantKind == FetchTransport, IsTransport(err))
		})
	}
}

func TestQueryClientUnreachableIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewQueryClient(config.QueryServiceConfig{BaseURL: url, Timeout: time.Second})
	_, err := client.ClassCatalog(context.Background(), "s1")

	assert.True(t, IsTransport(err))
}

func TestQueryClientCancellationIsNotAFetchError(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := client.StudentAnalytics(ctx, "st-1", model.Filters{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsTransport(err))
	assert.False(t, IsForbidden(err))
}

func TestQueryClientMissingFieldsDefaultToZero(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, `{"totals":{"totalSchools":"3","totalStudents":null},"skillDistribution":{"a":{"green":2,"red":-1}},"monthlyTrend":[{"month":"2024-02","count":3,"avgScore":61.26},{"month":"bad"},{"month":"2023-11","count":1,"avgScore":"55"}]}`)
	})

	overview, err := client.NationwideOverview(context.Background(), 0)
	require.NoError(t, err)

	assert.Equal(t, 3, overview.Totals.Schools)
	assert.Zero(t, overview.Totals.Students)
	assert.NotNil(t, overview.Schools)
	assert.Empty(t, overview.Schools)

	dist := overview.Aggregates.SkillDistribution
	require.Len(t, dist, len(model.SkillAreas))
	assert.Equal(t, 2, dist[model.SkillFocus][model.BucketStable])
	assert.Zero(t, dist[model.SkillFocus][model.BucketSupportNeeded])
	assert.Equal(t, model.NewBucketCounts(), dist[model.SkillSocial])
	assert.Equal(t, model.NewBucketCounts(), overview.Aggregates.OverallDistribution)

	trend := overview.Aggregates.MonthlyTrend
	require.Len(t, trend, 2)
	assert.Equal(t, "2023-11", trend[0].PeriodLabel)
	assert.Equal(t, "2024-02", trend[1].PeriodLabel)
	assert.Equal(t, 61.3, trend[1].AvgScore)
	assert.NotNil(t, overview.Aggregates.WeeklyTrend)
}

func TestQueryClientSchoolAggregatesMergeClassRollups(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, `{
			"school": {"_id": "s1", "schoolId": "SCH-1", "name": "Hillside"},
			"classes": [
				{"className": "5", "skillDistribution": {"A": {"green": 3, "yellow": 1}}, "overallDistribution": {"doingWell": 2, "needsAttention": 1}},
				{"className": "6", "skillDistribution": {"A": {"green": 1, "red": 2}}, "overallDistribution": {"needsSupport": 4}}
			]
		}`)
	})

	school, err := client.SchoolAnalytics(context.Background(), "s1", model.Filters{})
	require.NoError(t, err)

	assert.Equal(t, "Hillside", school.School.Name)
	require.Len(t, school.Classes, 2)
	assert.Equal(t, model.BucketCounts{model.BucketStable: 4, model.BucketEmerging: 1, model.BucketSupportNeeded: 2}, school.Aggregates.SkillDistribution[model.SkillFocus])
	assert.Equal(t, model.BucketCounts{model.BucketStable: 2, model.BucketEmerging: 4, model.BucketSupportNeeded: 1}, school.Aggregates.OverallDistribution)
}

func TestQueryClientStudentAggregatesAreDerived(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "t1", r.URL.Query().Get("testId"))
		respondJSON(w, http.StatusOK, `{
			"_id": "st1", "name": "Ann", "class": "5", "section": "A",
			"submissions": [
				{"_id": "x1", "totalScore": 60, "sectionScores": {"A": 10, "B": 16, "C": 24, "D": "8"}, "submittedAt": "2024-03-02T10:00:00Z"},
				{"_id": "x2", "totalScore": 95, "sectionScores": {"A": 30, "B": 30, "C": 20, "D": 15}, "submittedAt": 1711965600000}
			]
		}`)
	})

	student, err := client.StudentAnalytics(context.Background(), "st1", model.Filters{AssessmentID: "t1"})
	require.NoError(t, err)

	require.Len(t, student.Submissions, 2)
	assert.Equal(t, 8.0, student.Submissions[0].SectionScores[model.SkillDigitalHygiene])
	assert.False(t, student.Submissions[1].SubmittedAt.IsZero())

	agg := student.Aggregates
	assert.Equal(t, 1, agg.SkillDistribution[model.SkillFocus][model.BucketStable])
	assert.Equal(t, 1, agg.SkillDistribution[model.SkillFocus][model.BucketSupportNeeded])
	assert.Equal(t, 2, agg.SkillDistribution.Total(model.SkillSocial))
	assert.Equal(t, 1, agg.OverallDistribution[model.BucketEmerging])
	assert.Equal(t, 1, agg.OverallDistribution[model.BucketSupportNeeded])
	assert.Len(t, agg.MonthlyTrend, 2)
}

func TestQueryClientClassCatalog(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/schools/s1/classes", r.URL.Path)
		respondJSON(w, http.StatusOK, `{"classes":[{"_id":{"class":"5","section":"A"}},{"_id":{"class":"5","section":"B"}},{"_id":{"class":""}}]}`)
	})

	catalog, err := client.ClassCatalog(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, []model.ClassEntry{{ClassName: "5", SectionName: "A"}, {ClassName: "5", SectionName: "B"}}, catalog)
}
