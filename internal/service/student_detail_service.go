package service

import "wellbeing_dashboard/internal/model"

// AggregateStudent derives the per-scope aggregate shape from one student's
// raw submissions, matching what the query service returns above the leaf.
func AggregateStudent(submissions []model.Submission) model.AggregateView {
	return model.AggregateView{
		SkillDistribution:   AggregateDistribution(submissions),
		OverallDistribution: AggregateOverall(submissions),
		MonthlyTrend:        AggregateTrend(submissions, model.Monthly),
		WeeklyTrend:         AggregateTrend(submissions, model.Weekly),
	}
}
