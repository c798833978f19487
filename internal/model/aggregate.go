package model

// AggregateView is the rendering contract shared by every scope: the server
// provides it pre-aggregated above the student leaf, and it is derived from
// raw submissions at the leaf.
type AggregateView struct {
	SkillDistribution   Distribution `json:"skillDistribution"`
	OverallDistribution BucketCounts `json:"overallDistribution"`
	MonthlyTrend        []TrendPoint `json:"monthlyTrend"`
	WeeklyTrend         []TrendPoint `json:"weeklyTrend"`
}

func NewAggregateView() AggregateView {
	return AggregateView{
		SkillDistribution:   NewDistribution(),
		OverallDistribution: NewBucketCounts(),
		MonthlyTrend:        []TrendPoint{},
		WeeklyTrend:         []TrendPoint{},
	}
}

// Normalize fills absent parts with empty values.
func (v AggregateView) Normalize() AggregateView {
	out := AggregateView{
		SkillDistribution:   v.SkillDistribution.Normalize(),
		OverallDistribution: v.OverallDistribution.Normalize(),
		MonthlyTrend:        v.MonthlyTrend,
		WeeklyTrend:         v.WeeklyTrend,
	}
	if out.MonthlyTrend == nil {
		out.MonthlyTrend = []TrendPoint{}
	}
	if out.WeeklyTrend == nil {
		out.WeeklyTrend = []TrendPoint{}
	}
	return out
}
