package service

import (
	"fmt"
	"sort"
	"time"

	"wellbeing_dashboard/internal/model"
)

type periodKey struct {
	year   int
	period int
}

func (k periodKey) sortKey() int {
	return k.year*100 + k.period
}

func periodOf(t time.Time, g model.Granularity) periodKey {
	t = t.UTC()
	if g == model.Weekly {
		year, week := t.ISOWeek()
		return periodKey{year: year, period: week}
	}
	return periodKey{year: t.Year(), period: int(t.Month())}
}

func periodLabel(k periodKey, g model.Granularity) string {
	if g == model.Weekly {
		return fmt.Sprintf("W%d %d", k.period, k.year)
	}
	return fmt.Sprintf("%d-%02d", k.year, k.period)
}

// AggregateTrend groups submissions by calendar month or ISO week of
// submittedAt (UTC). Submissions without a timestamp are skipped. Points are
// ascending and only exist for periods present in the input.
func AggregateTrend(submissions []model.Submission, g model.Granularity) []model.TrendPoint {
	type acc struct {
		sum   float64
		count int
	}
	groups := make(map[periodKey]*acc)
	for _, sub := range submissions {
		if !sub.HasSubmittedAt() {
			continue
		}
		k := periodOf(sub.SubmittedAt, g)
		a, ok := groups[k]
		if !ok {
			a = &acc{}
			groups[k] = a
		}
		a.sum += sub.TotalScore
		a.count++
	}

	points := make([]model.TrendPoint, 0, len(groups))
	for k, a := range groups {
		points = append(points, model.TrendPoint{
			PeriodLabel:   periodLabel(k, g),
			PeriodSortKey: k.sortKey(),
			AvgScore:      model.RoundTenth(a.sum / float64(a.count)),
			Count:         a.count,
		})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].PeriodSortKey < points[j].PeriodSortKey
	})
	return points
}
