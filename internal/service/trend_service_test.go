package service

import (
	"math/rand"
	"testing"
	"time"

	"wellbeing_dashboard/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func trendFixture() []model.Submission {
	return []model.Submission{
		{ID: "a", TotalScore: 60, SubmittedAt: at("2024-03-04T10:00:00Z")},
		{ID: "b", TotalScore: 70, SubmittedAt: at("2024-03-20T10:00:00Z")},
		{ID: "c", TotalScore: 81, SubmittedAt: at("2024-01-15T08:00:00Z")},
		{ID: "d", TotalScore: 50, SubmittedAt: at("2023-12-31T23:30:00Z")},
		{ID: "e", TotalScore: 99},
	}
}

func TestAggregateTrendMonthly(t *testing.T) {
	points := AggregateTrend(trendFixture(), model.Monthly)

	require.Len(t, points, 3)
	assert.Equal(t, model.TrendPoint{PeriodLabel: "2023-12", PeriodSortKey: 202312, AvgScore: 50, Count: 1}, points[0])
	assert.Equal(t, model.TrendPoint{PeriodLabel: "2024-01", PeriodSortKey: 202401, AvgScore: 81, Count: 1}, points[1])
	assert.Equal(t, model.TrendPoint{PeriodLabel: "2024-03", PeriodSortKey: 202403, AvgScore: 65, Count: 2}, points[2])
}

func TestAggregateTrendWeeklyUsesISOWeeks(t *testing.T) {
	subs := []model.Submission{
		// Monday 2024-12-30 belongs to ISO week 1 of 2025
		{TotalScore: 40, SubmittedAt: at("2024-12-30T12:00:00Z")},
		{TotalScore: 41, SubmittedAt: at("2025-01-02T12:00:00Z")},
		// Sunday 2023-01-01 belongs to ISO week 52 of 2022
		{TotalScore: 70, SubmittedAt: at("2023-01-01T12:00:00Z")},
	}

	points := AggregateTrend(subs, model.Weekly)

	require.Len(t, points, 2)
	assert.Equal(t, "W52 2022", points[0].PeriodLabel)
	assert.Equal(t, 202252, points[0].PeriodSortKey)
	assert.Equal(t, "W1 2025", points[1].PeriodLabel)
	assert.Equal(t, 202501, points[1].PeriodSortKey)
	assert.Equal(t, 2, points[1].Count)
	assert.Equal(t, 40.5, points[1].AvgScore)
}

func TestAggregateTrendRoundsToOneDecimal(t *testing.T) {
	subs := []model.Submission{
		{TotalScore: 50, SubmittedAt: at("2024-05-01T00:00:00Z")},
		{TotalScore: 51, SubmittedAt: at("2024-05-02T00:00:00Z")},
		{TotalScore: 51, SubmittedAt: at("2024-05-03T00:00:00Z")},
	}

	points := AggregateTrend(subs, model.Monthly)

	require.Len(t, points, 1)
	assert.Equal(t, 50.7, points[0].AvgScore)
}

func TestAggregateTrendConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	subs := []model.Submission{
		{TotalScore: 60, SubmittedAt: time.Date(2024, 4, 1, 2, 0, 0, 0, loc)},
	}

	points := AggregateTrend(subs, model.Monthly)

	require.Len(t, points, 1)
	assert.Equal(t, "2024-03", points[0].PeriodLabel)
}

func TestAggregateTrendIsOrderIndependent(t *testing.T) {
	subs := trendFixture()
	want := AggregateTrend(subs, model.Monthly)

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		shuffled := append([]model.Submission(nil), subs...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, AggregateTrend(shuffled, model.Monthly))
	}
}

func TestAggregateTrendDisjointUnion(t *testing.T) {
	a := []model.Submission{
		{TotalScore: 40, SubmittedAt: at("2024-01-10T00:00:00Z")},
		{TotalScore: 60, SubmittedAt: at("2024-02-10T00:00:00Z")},
	}
	b := []model.Submission{
		{TotalScore: 80, SubmittedAt: at("2024-01-20T00:00:00Z")},
		{TotalScore: 90, SubmittedAt: at("2024-04-01T00:00:00Z")},
	}

	union := AggregateTrend(append(append([]model.Submission(nil), a...), b...), model.Monthly)
	byLabel := map[string]model.TrendPoint{}
	for _, p := range union {
		byLabel[p.PeriodLabel] = p
	}

	left := AggregateTrend(a, model.Monthly)
	right := AggregateTrend(b, model.Monthly)
	counts := map[string]int{}
	sums := map[string]float64{}
	for _, p := range append(left, right...) {
		counts[p.PeriodLabel] += p.Count
		sums[p.PeriodLabel] += p.AvgScore * float64(p.Count)
	}

	require.Len(t, byLabel, len(counts))
	for label, n := range counts {
		assert.Equal(t, n, byLabel[label].Count, label)
		assert.InDelta(t, sums[label]/float64(n), byLabel[label].AvgScore, 0.05, label)
	}
}

func TestAggregateTrendEmpty(t *testing.T) {
	points := AggregateTrend(nil, model.Weekly)
	assert.NotNil(t, points)
	assert.Empty(t, points)
}
