package service

import (
	"testing"

	"wellbeing_dashboard/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateStudentMatchesServerShape(t *testing.T) {
	subs := []model.Submission{
		{ID: "s1", TotalScore: 50, SectionScores: scores(10, 12, 14, 14), SubmittedAt: at("2024-02-05T09:00:00Z")},
		{ID: "s2", TotalScore: 92, SectionScores: scores(24, 24, 22, 22), SubmittedAt: at("2024-02-27T09:00:00Z")},
		{ID: "s3", TotalScore: 70, SectionScores: scores(18, 18, 17, 17)},
	}

	view := AggregateStudent(subs)

	assert.Equal(t, AggregateDistribution(subs), view.SkillDistribution)
	assert.Equal(t, 1, view.OverallDistribution[model.BucketStable])
	assert.Equal(t, 1, view.OverallDistribution[model.BucketEmerging])
	assert.Equal(t, 1, view.OverallDistribution[model.BucketSupportNeeded])

	// undated submissions count in distributions but not in trends
	require.Len(t, view.MonthlyTrend, 1)
	assert.Equal(t, "2024-02", view.MonthlyTrend[0].PeriodLabel)
	assert.Equal(t, 2, view.MonthlyTrend[0].Count)
	assert.Equal(t, 71.0, view.MonthlyTrend[0].AvgScore)
	assert.Len(t, view.WeeklyTrend, 2)
}

func TestAggregateStudentEmpty(t *testing.T) {
	view := AggregateStudent(nil)

	assert.Equal(t, model.NewAggregateView(), view)
}
