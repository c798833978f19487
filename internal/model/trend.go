package model

import (
	"fmt"
	"math"
)

type Granularity string

const (
	Monthly Granularity = "monthly"
	Weekly  Granularity = "weekly"
)

func ParseGranularity(v string) (Granularity, error) {
	switch Granularity(v) {
	case Monthly, Weekly:
		return Granularity(v), nil
	}
	return "", fmt.Errorf("unknown granularity %q", v)
}

// TrendPoint is one calendar period. Series are sorted by PeriodSortKey.
type TrendPoint struct {
	PeriodLabel   string  `json:"periodLabel"`
	PeriodSortKey int     `json:"periodSortKey"`
	AvgScore      float64 `json:"avgScore"`
	Count         int     `json:"count"`
}

func RoundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
